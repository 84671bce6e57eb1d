// Package coretest provides an in-memory store for exercising the import
// pipeline without Postgres.
package coretest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	db "github.com/JonMunkholm/estatecrm/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Entity is one stored row of an entity table.
type Entity struct {
	ID           pgtype.UUID
	Columns      map[string]any
	CustomFields []byte
	DataHash     string
	ImportJobID  pgtype.UUID
	IsDeleted    bool
	CreatedAt    time.Time
}

// MemStore mimics the Postgres schema closely enough for the import path,
// including the unique index on live data_hash values.
type MemStore struct {
	mu       sync.Mutex
	clock    time.Time
	jobs     []*db.ImportJob
	defs     map[string]*db.CustomFieldDefinition
	entities map[string][]*Entity

	// InsertErr, when set, is consulted before every entity insert.
	InsertErr func(table string, arg db.InsertEntityParams) error
	// Fail makes every method named in it return the mapped error.
	Fail map[string]error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		defs:     make(map[string]*db.CustomFieldDefinition),
		entities: make(map[string][]*Entity),
		Fail:     make(map[string]error),
	}
}

// tick returns strictly increasing timestamps so creation order is stable.
func (m *MemStore) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func defKey(entityType, fieldName string) string {
	return entityType + "\x00" + fieldName
}

func newID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

// SeedEntity stores a live row with a raw custom_fields document (nil for
// NULL) and returns its id.
func (m *MemStore) SeedEntity(table string, customFields []byte, dataHash string) pgtype.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &Entity{
		ID:           newID(),
		Columns:      map[string]any{},
		CustomFields: customFields,
		DataHash:     dataHash,
		CreatedAt:    m.tick(),
	}
	m.entities[table] = append(m.entities[table], e)
	return e.ID
}

// Entities returns a copy of every row of table, deleted ones included.
func (m *MemStore) Entities(table string) []Entity {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entity, len(m.entities[table]))
	for i, e := range m.entities[table] {
		out[i] = *e
	}
	return out
}

// LiveCount returns the number of non-deleted rows of table.
func (m *MemStore) LiveCount(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entities[table] {
		if !e.IsDeleted {
			n++
		}
	}
	return n
}

// Job returns the job with the given id.
func (m *MemStore) Job(id string) (db.ImportJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range m.jobs {
		if uuid.UUID(j.ID.Bytes).String() == id {
			return *j, true
		}
	}
	return db.ImportJob{}, false
}

// JobCount returns how many jobs were created.
func (m *MemStore) JobCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *MemStore) fail(method string) error {
	if err, ok := m.Fail[method]; ok {
		return err
	}
	return nil
}

func (m *MemStore) ListLiveHashes(_ context.Context, table string, hashes []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListLiveHashes"); err != nil {
		return nil, err
	}

	found := make(map[string]bool)
	for _, e := range m.entities[table] {
		if !e.IsDeleted && slices.Contains(hashes, e.DataHash) {
			found[e.DataHash] = true
		}
	}

	out := make([]string, 0, len(found))
	for h := range found {
		out = append(out, h)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) InsertEntity(_ context.Context, table string, arg db.InsertEntityParams) error {
	if m.InsertErr != nil {
		if err := m.InsertErr(table, arg); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(arg.Columns) != len(arg.Values) {
		return fmt.Errorf("insert %s: %d columns but %d values", table, len(arg.Columns), len(arg.Values))
	}

	for _, e := range m.entities[table] {
		if !e.IsDeleted && e.DataHash == arg.DataHash {
			return &pgconn.PgError{
				Code:           "23505",
				Message:        "duplicate key value violates unique constraint",
				ConstraintName: "uq_" + table + "_live_hash",
			}
		}
	}

	custom := arg.CustomFields
	if custom == nil {
		custom = map[string]any{}
	}
	blob, err := json.Marshal(custom)
	if err != nil {
		return err
	}

	cols := make(map[string]any, len(arg.Columns))
	for i, c := range arg.Columns {
		cols[c] = arg.Values[i]
	}

	m.entities[table] = append(m.entities[table], &Entity{
		ID:           arg.ID,
		Columns:      cols,
		CustomFields: blob,
		DataHash:     arg.DataHash,
		ImportJobID:  arg.ImportJobID,
		CreatedAt:    m.tick(),
	})
	return nil
}

func (m *MemStore) ListLiveCustomFields(_ context.Context, table string) ([]db.EntityCustomFields, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListLiveCustomFields"); err != nil {
		return nil, err
	}

	var out []db.EntityCustomFields
	for _, e := range m.entities[table] {
		if e.IsDeleted {
			continue
		}
		out = append(out, db.EntityCustomFields{ID: e.ID, CustomFields: e.CustomFields, CreatedAt: e.CreatedAt})
	}
	return out, nil
}

func (m *MemStore) SoftDeleteEntities(_ context.Context, table string, ids []pgtype.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SoftDeleteEntities"); err != nil {
		return 0, err
	}

	var n int64
	for _, e := range m.entities[table] {
		if !e.IsDeleted && slices.Contains(ids, e.ID) {
			e.IsDeleted = true
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CreateImportJob(_ context.Context, arg db.CreateImportJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateImportJob"); err != nil {
		return err
	}

	m.jobs = append(m.jobs, &db.ImportJob{
		ID:         arg.ID,
		FileName:   arg.FileName,
		FileType:   arg.FileType,
		FileSize:   arg.FileSize,
		EntityType: arg.EntityType,
		StoredPath: arg.StoredPath,
		Status:     db.JobStatusProcessing,
		CreatedAt:  m.tick(),
	})
	return nil
}

func (m *MemStore) CompleteImportJob(_ context.Context, arg db.CompleteImportJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CompleteImportJob"); err != nil {
		return err
	}

	for _, j := range m.jobs {
		if j.ID == arg.ID {
			j.Status = db.JobStatusCompleted
			j.TotalRows = arg.TotalRows
			j.ImportedRows = arg.ImportedRows
			j.DuplicateRows = arg.DuplicateRows
			j.ErrorRows = arg.ErrorRows
			j.ProgressPercent = 100
			j.CompletedAt = pgtype.Timestamptz{Time: m.tick(), Valid: true}
			return nil
		}
	}
	return nil
}

func (m *MemStore) ListImportJobs(_ context.Context, limit int32) ([]db.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListImportJobs"); err != nil {
		return nil, err
	}

	var out []db.ImportJob
	for i := len(m.jobs) - 1; i >= 0 && int32(len(out)) < limit; i-- {
		out = append(out, *m.jobs[i])
	}
	return out, nil
}

func (m *MemStore) GetCustomFieldDefinition(_ context.Context, entityType, fieldName string) (db.CustomFieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetCustomFieldDefinition"); err != nil {
		return db.CustomFieldDefinition{}, err
	}

	d, ok := m.defs[defKey(entityType, fieldName)]
	if !ok {
		return db.CustomFieldDefinition{}, pgx.ErrNoRows
	}
	out := *d
	out.SourceFiles = slices.Clone(d.SourceFiles)
	return out, nil
}

func (m *MemStore) CreateCustomFieldDefinition(_ context.Context, arg db.CreateCustomFieldDefinitionParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateCustomFieldDefinition"); err != nil {
		return err
	}

	key := defKey(arg.EntityType, arg.FieldName)
	now := m.tick()
	if d, ok := m.defs[key]; ok {
		d.UsageCount++
		if !slices.Contains(d.SourceFiles, arg.SourceFile) {
			d.SourceFiles = append(d.SourceFiles, arg.SourceFile)
		}
		d.UpdatedAt = now
		return nil
	}

	m.defs[key] = &db.CustomFieldDefinition{
		ID:          arg.ID,
		EntityType:  arg.EntityType,
		FieldName:   arg.FieldName,
		FieldLabel:  arg.FieldLabel,
		DataType:    arg.DataType,
		SourceFiles: []string{arg.SourceFile},
		UsageCount:  1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (m *MemStore) UpdateCustomFieldUsage(_ context.Context, arg db.UpdateCustomFieldUsageParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateCustomFieldUsage"); err != nil {
		return err
	}

	for _, d := range m.defs {
		if d.ID == arg.ID {
			d.UsageCount++
			if !slices.Contains(d.SourceFiles, arg.SourceFile) {
				d.SourceFiles = append(slices.Clone(d.SourceFiles), arg.SourceFile)
			}
			d.UpdatedAt = m.tick()
			return nil
		}
	}
	return errors.New("custom field definition not found")
}

func (m *MemStore) ListCustomFieldDefinitions(_ context.Context, entityType string) ([]db.CustomFieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListCustomFieldDefinitions"); err != nil {
		return nil, err
	}

	var out []db.CustomFieldDefinition
	for _, d := range m.defs {
		if entityType == "" || d.EntityType == entityType {
			c := *d
			c.SourceFiles = slices.Clone(d.SourceFiles)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityType != out[j].EntityType {
			return out[i].EntityType < out[j].EntityType
		}
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].FieldName < out[j].FieldName
	})
	return out, nil
}
