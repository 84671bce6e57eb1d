package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Import job statuses. Only the two below are reachable.
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
)

type ImportJob struct {
	ID              pgtype.UUID        `json:"id"`
	FileName        string             `json:"file_name"`
	FileType        string             `json:"file_type"`
	FileSize        int64              `json:"file_size"`
	EntityType      string             `json:"entity_type"`
	StoredPath      pgtype.Text        `json:"stored_path"`
	Status          string             `json:"status"`
	TotalRows       int32              `json:"total_rows"`
	ImportedRows    int32              `json:"imported_rows"`
	DuplicateRows   int32              `json:"duplicate_rows"`
	ErrorRows       int32              `json:"error_rows"`
	ProgressPercent int32              `json:"progress_percent"`
	CreatedAt       time.Time          `json:"created_at"`
	CompletedAt     pgtype.Timestamptz `json:"completed_at"`
}

type CustomFieldDefinition struct {
	ID          pgtype.UUID `json:"id"`
	EntityType  string      `json:"entity_type"`
	FieldName   string      `json:"field_name"`
	FieldLabel  string      `json:"field_label"`
	DataType    string      `json:"data_type"`
	SourceFiles []string    `json:"source_files"`
	UsageCount  int32       `json:"usage_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EntityCustomFields is the slice of an entity row the duplicate sweep reads.
// CustomFields is the raw JSON document, nil when the column is NULL.
type EntityCustomFields struct {
	ID           pgtype.UUID
	CustomFields []byte
	CreatedAt    time.Time
}
