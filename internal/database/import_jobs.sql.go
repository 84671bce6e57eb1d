package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createImportJob = `
INSERT INTO import_jobs (id, file_name, file_type, file_size, entity_type, stored_path, status)
VALUES ($1, $2, $3, $4, $5, $6, 'processing')
`

type CreateImportJobParams struct {
	ID         pgtype.UUID
	FileName   string
	FileType   string
	FileSize   int64
	EntityType string
	StoredPath pgtype.Text
}

func (q *Queries) CreateImportJob(ctx context.Context, arg CreateImportJobParams) error {
	_, err := q.db.Exec(ctx, createImportJob,
		arg.ID,
		arg.FileName,
		arg.FileType,
		arg.FileSize,
		arg.EntityType,
		arg.StoredPath,
	)
	return err
}

const completeImportJob = `
UPDATE import_jobs
SET total_rows = $2, imported_rows = $3, duplicate_rows = $4, error_rows = $5,
    status = 'completed', completed_at = now(), progress_percent = 100
WHERE id = $1
`

type CompleteImportJobParams struct {
	ID            pgtype.UUID
	TotalRows     int32
	ImportedRows  int32
	DuplicateRows int32
	ErrorRows     int32
}

func (q *Queries) CompleteImportJob(ctx context.Context, arg CompleteImportJobParams) error {
	_, err := q.db.Exec(ctx, completeImportJob,
		arg.ID,
		arg.TotalRows,
		arg.ImportedRows,
		arg.DuplicateRows,
		arg.ErrorRows,
	)
	return err
}

const listImportJobs = `
SELECT id, file_name, file_type, file_size, entity_type, stored_path, status,
       total_rows, imported_rows, duplicate_rows, error_rows, progress_percent,
       created_at, completed_at
FROM import_jobs
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListImportJobs(ctx context.Context, limit int32) ([]ImportJob, error) {
	rows, err := q.db.Query(ctx, listImportJobs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ImportJob
	for rows.Next() {
		var i ImportJob
		if err := rows.Scan(
			&i.ID,
			&i.FileName,
			&i.FileType,
			&i.FileSize,
			&i.EntityType,
			&i.StoredPath,
			&i.Status,
			&i.TotalRows,
			&i.ImportedRows,
			&i.DuplicateRows,
			&i.ErrorRows,
			&i.ProgressPercent,
			&i.CreatedAt,
			&i.CompletedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
