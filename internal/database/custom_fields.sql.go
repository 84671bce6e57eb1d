package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getCustomFieldDefinition = `
SELECT id, entity_type, field_name, field_label, data_type, source_files,
       usage_count, created_at, updated_at
FROM custom_field_definitions
WHERE entity_type = $1 AND field_name = $2
`

// GetCustomFieldDefinition returns pgx.ErrNoRows when the field has never been seen.
func (q *Queries) GetCustomFieldDefinition(ctx context.Context, entityType, fieldName string) (CustomFieldDefinition, error) {
	row := q.db.QueryRow(ctx, getCustomFieldDefinition, entityType, fieldName)
	var i CustomFieldDefinition
	err := row.Scan(
		&i.ID,
		&i.EntityType,
		&i.FieldName,
		&i.FieldLabel,
		&i.DataType,
		&i.SourceFiles,
		&i.UsageCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// A concurrent job may create the same definition between our lookup and
// this insert; the conflict arm then applies the same update the lookup
// would have.
const createCustomFieldDefinition = `
INSERT INTO custom_field_definitions
    (id, entity_type, field_name, field_label, data_type, source_files, usage_count)
VALUES ($1, $2, $3, $4, $5, ARRAY[$6::text], 1)
ON CONFLICT (entity_type, field_name) DO UPDATE
SET usage_count = custom_field_definitions.usage_count + 1,
    source_files = CASE
        WHEN $6::text = ANY(custom_field_definitions.source_files) THEN custom_field_definitions.source_files
        ELSE array_append(custom_field_definitions.source_files, $6::text)
    END,
    updated_at = now()
`

type CreateCustomFieldDefinitionParams struct {
	ID         pgtype.UUID
	EntityType string
	FieldName  string
	FieldLabel string
	DataType   string
	SourceFile string
}

func (q *Queries) CreateCustomFieldDefinition(ctx context.Context, arg CreateCustomFieldDefinitionParams) error {
	_, err := q.db.Exec(ctx, createCustomFieldDefinition,
		arg.ID,
		arg.EntityType,
		arg.FieldName,
		arg.FieldLabel,
		arg.DataType,
		arg.SourceFile,
	)
	return err
}

// The provenance append happens in the statement so concurrent jobs never
// overwrite each other's file names.
const updateCustomFieldUsage = `
UPDATE custom_field_definitions
SET usage_count = usage_count + 1,
    source_files = CASE
        WHEN $2::text = ANY(source_files) THEN source_files
        ELSE array_append(source_files, $2::text)
    END,
    updated_at = now()
WHERE id = $1
`

type UpdateCustomFieldUsageParams struct {
	ID         pgtype.UUID
	SourceFile string
}

func (q *Queries) UpdateCustomFieldUsage(ctx context.Context, arg UpdateCustomFieldUsageParams) error {
	_, err := q.db.Exec(ctx, updateCustomFieldUsage, arg.ID, arg.SourceFile)
	return err
}

const listCustomFieldDefinitions = `
SELECT id, entity_type, field_name, field_label, data_type, source_files,
       usage_count, created_at, updated_at
FROM custom_field_definitions
WHERE $1::text = '' OR entity_type = $1
ORDER BY entity_type, usage_count DESC, field_name
`

// ListCustomFieldDefinitions lists definitions for one kind, or all kinds when entityType is empty.
func (q *Queries) ListCustomFieldDefinitions(ctx context.Context, entityType string) ([]CustomFieldDefinition, error) {
	rows, err := q.db.Query(ctx, listCustomFieldDefinitions, entityType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CustomFieldDefinition
	for rows.Next() {
		var i CustomFieldDefinition
		if err := rows.Scan(
			&i.ID,
			&i.EntityType,
			&i.FieldName,
			&i.FieldLabel,
			&i.DataType,
			&i.SourceFiles,
			&i.UsageCount,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
