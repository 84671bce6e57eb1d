package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a unique index rejecting a row.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ListLiveHashes returns which of hashes already belong to a live row of table.
func (q *Queries) ListLiveHashes(ctx context.Context, table string, hashes []string) ([]string, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT data_hash FROM %s WHERE NOT is_deleted AND data_hash = ANY($1)",
		quoteIdentifier(table),
	)

	rows, err := q.db.Query(ctx, query, hashes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

type InsertEntityParams struct {
	ID           pgtype.UUID
	Columns      []string // schema columns, parallel to Values
	Values       []any
	CustomFields map[string]any
	DataHash     string
	ImportJobID  pgtype.UUID
}

// InsertEntity writes one imported record into table.
func (q *Queries) InsertEntity(ctx context.Context, table string, arg InsertEntityParams) error {
	if len(arg.Columns) != len(arg.Values) {
		return fmt.Errorf("insert %s: %d columns but %d values", table, len(arg.Columns), len(arg.Values))
	}

	custom := arg.CustomFields
	if custom == nil {
		custom = map[string]any{}
	}

	cols := make([]string, 0, len(arg.Columns)+4)
	args := make([]any, 0, len(arg.Columns)+4)

	cols = append(cols, "id")
	args = append(args, arg.ID)
	for i, c := range arg.Columns {
		cols = append(cols, quoteIdentifier(c))
		args = append(args, arg.Values[i])
	}
	cols = append(cols, "custom_fields", "data_hash", "import_job_id")
	args = append(args, custom, arg.DataHash, arg.ImportJobID)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)

	_, err := q.db.Exec(ctx, query, args...)
	return err
}

// ListLiveCustomFields returns every live row of table in creation order.
func (q *Queries) ListLiveCustomFields(ctx context.Context, table string) ([]EntityCustomFields, error) {
	query := fmt.Sprintf(
		"SELECT id, custom_fields, created_at FROM %s WHERE NOT is_deleted ORDER BY created_at, id",
		quoteIdentifier(table),
	)

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EntityCustomFields
	for rows.Next() {
		var i EntityCustomFields
		if err := rows.Scan(&i.ID, &i.CustomFields, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// SoftDeleteEntities flags the given live rows as deleted and returns how many changed.
func (q *Queries) SoftDeleteEntities(ctx context.Context, table string, ids []pgtype.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		"UPDATE %s SET is_deleted = true, deleted_at = now(), updated_at = now() WHERE id = ANY($1) AND NOT is_deleted",
		quoteIdentifier(table),
	)

	tag, err := q.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
