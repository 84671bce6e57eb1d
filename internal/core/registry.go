package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	db "github.com/JonMunkholm/estatecrm/internal/database"
	"github.com/JonMunkholm/estatecrm/internal/schema"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Data types recorded on custom field definitions.
const (
	DataTypeNumber = "number"
	DataTypeString = "string"
)

// FieldRegistry is the persistent catalog of custom field names seen per
// entity kind. It holds no state of its own.
type FieldRegistry struct {
	store FieldDefinitionStore
}

// NewFieldRegistry returns a registry backed by store.
func NewFieldRegistry(store FieldDefinitionStore) *FieldRegistry {
	return &FieldRegistry{store: store}
}

// Register records one import job's custom fields for kind.
//
// samples maps each distinct custom field name of the job to a representative
// value used for type inference when the field is new. Every call bumps the
// usage count of each field by one; sourceFile is added to a field's
// provenance only when not already listed.
//
// Fields are processed in name order. The first failure stops the call and
// is returned with the field name.
func (r *FieldRegistry) Register(ctx context.Context, kind schema.EntityKind, samples map[string]any, sourceFile string) error {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.registerField(ctx, kind, name, samples[name], sourceFile); err != nil {
			return fmt.Errorf("register custom field %q: %w", name, err)
		}
	}
	return nil
}

func (r *FieldRegistry) registerField(ctx context.Context, kind schema.EntityKind, name string, sample any, sourceFile string) error {
	def, err := r.store.GetCustomFieldDefinition(ctx, kind.String(), name)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Another job may create the row between the lookup and here; the
		// insert upserts in that case.
		return r.store.CreateCustomFieldDefinition(ctx, db.CreateCustomFieldDefinitionParams{
			ID:         ToPgUUID(uuid.New()),
			EntityType: kind.String(),
			FieldName:  name,
			FieldLabel: schema.Label(name),
			DataType:   InferDataType(sample),
			SourceFile: sourceFile,
		})
	case err != nil:
		return err
	}

	return r.store.UpdateCustomFieldUsage(ctx, db.UpdateCustomFieldUsageParams{
		ID:         def.ID,
		SourceFile: sourceFile,
	})
}

// InferDataType returns DataTypeNumber when sample reads as a number.
func InferDataType(sample any) string {
	if isNumeric(sample) {
		return DataTypeNumber
	}
	return DataTypeString
}
