package core

import (
	"context"
	"errors"
	"time"

	db "github.com/JonMunkholm/estatecrm/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
)

// Request-level failures. Anything wrapping one of these aborts the whole
// import; per-row problems never surface as errors.
var (
	ErrNoFile            = errors.New("no file provided")
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnreadableFile    = errors.New("unreadable file")
	ErrUnknownEntityKind = errors.New("unknown entity kind")
	ErrFileTooLarge      = errors.New("file too large")
)

// Cell is one column of a parsed row.
type Cell struct {
	Column string
	Value  any
}

// RawRecord is a parsed row in source column order. Column names are the
// untouched header strings; values are strings, numbers or nil.
type RawRecord []Cell

// Fields maps normalized field names to values.
type Fields map[string]any

// Stats are the terminal counters of an import job.
type Stats struct {
	Total      int `json:"total"`
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// JobResult is what a finished import reports back to the caller.
type JobResult struct {
	JobID      string        `json:"jobId"`
	EntityKind string        `json:"entityKind"`
	FileName   string        `json:"fileName"`
	Stats      Stats         `json:"stats"`
	Duration   time.Duration `json:"-"`
}

// SweepResult is the outcome of one duplicate sweep.
type SweepResult struct {
	EntityKind   string `json:"entityKind"`
	Scanned      int    `json:"scanned"`
	Skipped      int    `json:"skipped"`
	DeletedCount int64  `json:"deletedCount"`
}

// ImportRequest describes one uploaded file.
type ImportRequest struct {
	Data       []byte
	FileName   string `validate:"required,max=255"`
	FileType   string `validate:"omitempty,oneof=csv xlsx xls"`
	EntityKind string `validate:"required,oneof=contact property organization lead"`
}

// EntityStore reads and writes the per-kind entity tables.
type EntityStore interface {
	ListLiveHashes(ctx context.Context, table string, hashes []string) ([]string, error)
	InsertEntity(ctx context.Context, table string, arg db.InsertEntityParams) error
}

// JobStore persists import job rows.
type JobStore interface {
	CreateImportJob(ctx context.Context, arg db.CreateImportJobParams) error
	CompleteImportJob(ctx context.Context, arg db.CompleteImportJobParams) error
}

// FieldDefinitionStore is the custom field catalog.
type FieldDefinitionStore interface {
	GetCustomFieldDefinition(ctx context.Context, entityType, fieldName string) (db.CustomFieldDefinition, error)
	CreateCustomFieldDefinition(ctx context.Context, arg db.CreateCustomFieldDefinitionParams) error
	UpdateCustomFieldUsage(ctx context.Context, arg db.UpdateCustomFieldUsageParams) error
}

// SweepStore is what the duplicate sweep needs from storage.
type SweepStore interface {
	ListLiveCustomFields(ctx context.Context, table string) ([]db.EntityCustomFields, error)
	SoftDeleteEntities(ctx context.Context, table string, ids []pgtype.UUID) (int64, error)
}

// Store is the full storage surface of the service.
type Store interface {
	EntityStore
	JobStore
	FieldDefinitionStore
	SweepStore
	ListImportJobs(ctx context.Context, limit int32) ([]db.ImportJob, error)
	ListCustomFieldDefinitions(ctx context.Context, entityType string) ([]db.CustomFieldDefinition, error)
}

// FileArchiver keeps a copy of each uploaded file and returns where it went.
type FileArchiver interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
}

// ImportEvent is published after a job completes.
type ImportEvent struct {
	JobID      string    `json:"jobId"`
	EntityKind string    `json:"entityKind"`
	FileName   string    `json:"fileName"`
	Stats      Stats     `json:"stats"`
	FinishedAt time.Time `json:"finishedAt"`
}

// SweepEvent is published after a sweep soft-deletes at least one row.
type SweepEvent struct {
	EntityKind   string    `json:"entityKind"`
	DeletedCount int64     `json:"deletedCount"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// EventPublisher announces finished work to other services.
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, ev ImportEvent) error
	PublishSweepCompleted(ctx context.Context, ev SweepEvent) error
}

type nopArchiver struct{}

func (nopArchiver) Save(context.Context, string, []byte) (string, error) { return "", nil }

type nopPublisher struct{}

func (nopPublisher) PublishImportCompleted(context.Context, ImportEvent) error { return nil }
func (nopPublisher) PublishSweepCompleted(context.Context, SweepEvent) error   { return nil }
