package core

import (
	"context"
	"fmt"
	"time"

	db "github.com/JonMunkholm/estatecrm/internal/database"
)

// HistoryEntry is one import job as shown in the import history.
type HistoryEntry struct {
	JobID           string     `json:"id"`
	FileName        string     `json:"file_name"`
	FileType        string     `json:"file_type"`
	FileSize        int64      `json:"file_size"`
	EntityKind      string     `json:"entity_type"`
	StoredPath      string     `json:"stored_path,omitempty"`
	Status          string     `json:"status"`
	TotalRows       int32      `json:"total_rows"`
	ImportedRows    int32      `json:"imported_rows"`
	DuplicateRows   int32      `json:"duplicate_rows"`
	ErrorRows       int32      `json:"error_rows"`
	ProgressPercent int32      `json:"progress_percent"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// ImportHistory returns the most recent jobs, newest first.
func (s *Service) ImportHistory(ctx context.Context) ([]HistoryEntry, error) {
	jobs, err := s.store.ListImportJobs(ctx, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list import jobs: %w", err)
	}

	entries := make([]HistoryEntry, len(jobs))
	for i, j := range jobs {
		entries[i] = historyEntry(j)
	}
	return entries, nil
}

func historyEntry(j db.ImportJob) HistoryEntry {
	e := HistoryEntry{
		JobID:           PgUUIDToString(j.ID),
		FileName:        j.FileName,
		FileType:        j.FileType,
		FileSize:        j.FileSize,
		EntityKind:      j.EntityType,
		StoredPath:      j.StoredPath.String,
		Status:          j.Status,
		TotalRows:       j.TotalRows,
		ImportedRows:    j.ImportedRows,
		DuplicateRows:   j.DuplicateRows,
		ErrorRows:       j.ErrorRows,
		ProgressPercent: j.ProgressPercent,
		CreatedAt:       j.CreatedAt,
	}
	if j.CompletedAt.Valid {
		t := j.CompletedAt.Time
		e.CompletedAt = &t
	}
	return e
}
