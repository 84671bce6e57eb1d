package core

import (
	"context"
	"fmt"
	"runtime"
	"time"

	db "github.com/JonMunkholm/estatecrm/internal/database"
	"github.com/JonMunkholm/estatecrm/internal/logging"
	"github.com/JonMunkholm/estatecrm/internal/schema"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/errgroup"
)

// ImportStore is the storage an Importer writes to.
type ImportStore interface {
	EntityStore
	JobStore
	FieldDefinitionStore
}

// Importer runs import jobs. It is safe for concurrent use; jobs share
// nothing but the store.
type Importer struct {
	store    ImportStore
	registry *FieldRegistry
	archiver FileArchiver
	events   EventPublisher
	validate *validator.Validate
	workers  int
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithArchiver keeps a copy of every upload before it is processed.
func WithArchiver(a FileArchiver) ImporterOption {
	return func(im *Importer) {
		if a != nil {
			im.archiver = a
		}
	}
}

// WithEventPublisher announces finished jobs.
func WithEventPublisher(p EventPublisher) ImporterOption {
	return func(im *Importer) {
		if p != nil {
			im.events = p
		}
	}
}

// WithClassifyWorkers bounds how many records are classified at once.
// Zero or less means GOMAXPROCS.
func WithClassifyWorkers(n int) ImporterOption {
	return func(im *Importer) {
		if n > 0 {
			im.workers = n
		}
	}
}

// NewImporter returns an Importer writing to store.
func NewImporter(store ImportStore, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:    store,
		registry: NewFieldRegistry(store),
		archiver: nopArchiver{},
		events:   nopPublisher{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// classified is one record after classification and hashing.
type classified struct {
	schema Fields
	custom Fields
	hash   string
	empty  bool
}

// Run imports one file and returns its counters.
//
// Request problems (empty data, unknown kind, unsupported format) return an
// error before any job row exists. Once the job row exists, only a parse
// failure or a storage failure outside the per-row insert returns an error,
// and the job is left in the processing state. Per-row problems only move
// the counters.
func (im *Importer) Run(ctx context.Context, req ImportRequest) (JobResult, error) {
	start := time.Now()

	if len(req.Data) == 0 {
		return JobResult{}, ErrEmptyFile
	}

	kind, err := schema.ParseKind(req.EntityKind)
	if err != nil {
		return JobResult{}, fmt.Errorf("%w: %w", ErrUnknownEntityKind, err)
	}
	req.EntityKind = kind.String()

	if req.FileType == "" {
		if req.FileType, err = DetectFileType(req.FileName, req.Data); err != nil {
			return JobResult{}, fmt.Errorf("detect format of %q: %w", req.FileName, err)
		}
	}

	if err := im.validate.Struct(req); err != nil {
		return JobResult{}, fmt.Errorf("invalid import request: %w", err)
	}

	jobID := uuid.New()
	logger := logging.WithFields(ctx,
		"job_id", jobID.String(),
		"entity_kind", kind.String(),
		"file_name", req.FileName,
	)
	if ip := ClientIPFromContext(ctx); ip != "" {
		logger = logger.With("client_ip", ip)
	}

	storedPath, err := im.archiver.Save(ctx, req.FileName, req.Data)
	if err != nil {
		logger.Warn("archive upload failed", "error", err)
		storedPath = ""
	}

	if err := im.store.CreateImportJob(ctx, db.CreateImportJobParams{
		ID:         ToPgUUID(jobID),
		FileName:   req.FileName,
		FileType:   req.FileType,
		FileSize:   int64(len(req.Data)),
		EntityType: kind.String(),
		StoredPath: ToPgText(storedPath),
	}); err != nil {
		return JobResult{}, fmt.Errorf("create import job: %w", err)
	}
	logger.Info("import started", "file_type", req.FileType, "file_size", len(req.Data))

	records, err := ParseFile(req.Data, req.FileType)
	if err != nil {
		logger.Warn("import aborted", "error", err)
		return JobResult{}, fmt.Errorf("parse %s: %w", req.FileType, err)
	}

	rows := im.classifyAll(records, kind)
	stats := Stats{Total: len(rows)}

	samples := make(map[string]any)
	hashes := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.empty {
			stats.Errors++
			continue
		}
		for name, v := range r.custom {
			if _, ok := samples[name]; !ok {
				samples[name] = v
			}
		}
		hashes = append(hashes, r.hash)
	}

	if len(samples) > 0 {
		if err := im.registry.Register(ctx, kind, samples, req.FileName); err != nil {
			logger.Warn("custom field registry update failed", "error", err)
		}
	}

	existing, err := im.store.ListLiveHashes(ctx, kind.Table(), dedupe(hashes))
	if err != nil {
		return JobResult{}, fmt.Errorf("check duplicates: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	for _, h := range existing {
		seen[h] = true
	}

	jobPgID := ToPgUUID(jobID)
	for i, r := range rows {
		if r.empty {
			continue
		}
		if seen[r.hash] {
			stats.Duplicates++
			continue
		}

		err := im.store.InsertEntity(ctx, kind.Table(), insertParams(kind, r, jobPgID))
		switch {
		case err == nil:
			stats.Imported++
			seen[r.hash] = true
		case db.IsUniqueViolation(err):
			// Another job inserted the same content after our duplicate check.
			stats.Duplicates++
			seen[r.hash] = true
		default:
			stats.Errors++
			logger.Warn("insert failed", "row", i+2, "error", err)
		}
	}

	if err := im.store.CompleteImportJob(ctx, db.CompleteImportJobParams{
		ID:            jobPgID,
		TotalRows:     int32(stats.Total),
		ImportedRows:  int32(stats.Imported),
		DuplicateRows: int32(stats.Duplicates),
		ErrorRows:     int32(stats.Errors),
	}); err != nil {
		return JobResult{}, fmt.Errorf("complete import job: %w", err)
	}

	result := JobResult{
		JobID:      jobID.String(),
		EntityKind: kind.String(),
		FileName:   req.FileName,
		Stats:      stats,
		Duration:   time.Since(start),
	}

	logger.Info("import completed",
		"total", stats.Total,
		"imported", stats.Imported,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
		"duration", result.Duration,
	)

	if err := im.events.PublishImportCompleted(ctx, ImportEvent{
		JobID:      result.JobID,
		EntityKind: result.EntityKind,
		FileName:   result.FileName,
		Stats:      stats,
		FinishedAt: time.Now().UTC(),
	}); err != nil {
		logger.Warn("publish import event failed", "error", err)
	}

	return result, nil
}

// classifyAll classifies and hashes every record, at most im.workers at a
// time. Output order matches input order.
func (im *Importer) classifyAll(records []RawRecord, kind schema.EntityKind) []classified {
	out := make([]classified, len(records))

	var g errgroup.Group
	g.SetLimit(im.workers)
	for i, rec := range records {
		g.Go(func() error {
			s, c := Classify(rec, kind)
			if len(s) == 0 && len(c) == 0 {
				out[i] = classified{empty: true}
				return nil
			}
			out[i] = classified{schema: s, custom: c, hash: Hash(s, c)}
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	return out
}

// insertParams lays out a classified record for InsertEntity. Columns follow
// the kind's schema column order so identical field sets produce identical
// statements.
func insertParams(kind schema.EntityKind, r classified, jobID pgtype.UUID) db.InsertEntityParams {
	cols := make([]string, 0, len(r.schema))
	for _, name := range kind.Fields() {
		if _, ok := r.schema[name]; ok {
			cols = append(cols, name)
		}
	}

	vals := make([]any, len(cols))
	for i, name := range cols {
		v := r.schema[name]
		if f, ok := v.(float64); ok && kind.IsNumericField(name) {
			vals[i] = f
			continue
		}
		vals[i] = stringify(v)
	}

	return db.InsertEntityParams{
		ID:           ToPgUUID(uuid.New()),
		Columns:      cols,
		Values:       vals,
		CustomFields: r.custom,
		DataHash:     r.hash,
		ImportJobID:  jobID,
	}
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
