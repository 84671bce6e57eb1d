package core

import (
	"context"
	"fmt"
	"time"

	db "github.com/JonMunkholm/estatecrm/internal/database"
	"github.com/JonMunkholm/estatecrm/internal/schema"
)

// HistoryLimit is how many jobs ImportHistory returns.
const HistoryLimit = 100

// DefaultMaxFileSize caps uploads when ServiceConfig leaves it unset.
const DefaultMaxFileSize int64 = 100 << 20

// ServiceConfig wires a Service.
type ServiceConfig struct {
	MaxFileSize     int64
	MaxConcurrent   int
	MaxWait         time.Duration
	ClassifyWorkers int
	Archiver        FileArchiver   // nil keeps no copies
	Events          EventPublisher // nil publishes nothing
}

// Service is the entry point the HTTP layer uses for imports, sweeps and
// the read-only views over their results.
type Service struct {
	store       Store
	importer    *Importer
	sweeper     *Sweeper
	limiter     *ImportLimiter
	maxFileSize int64
}

// NewService creates a Service over store.
func NewService(store Store, cfg ServiceConfig) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	return &Service{
		store: store,
		importer: NewImporter(store,
			WithArchiver(cfg.Archiver),
			WithEventPublisher(cfg.Events),
			WithClassifyWorkers(cfg.ClassifyWorkers),
		),
		sweeper:     NewSweeper(store, cfg.Events),
		limiter:     NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		maxFileSize: cfg.MaxFileSize,
	}
}

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Import runs one import job once a slot is free. ctx only bounds the wait
// for a slot: a started job runs to completion even if the caller goes away.
func (s *Service) Import(ctx context.Context, req ImportRequest) (JobResult, error) {
	if int64(len(req.Data)) > s.maxFileSize {
		return JobResult{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Data), s.maxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return JobResult{}, err
	}
	defer s.limiter.Release()

	return s.importer.Run(context.WithoutCancel(ctx), req)
}

// SweepDuplicates runs the duplicate sweep over kind.
func (s *Service) SweepDuplicates(ctx context.Context, kind schema.EntityKind) (SweepResult, error) {
	return s.sweeper.Sweep(ctx, kind)
}

// CustomFields lists the custom field catalog for kind, or for every kind
// when kind is empty.
func (s *Service) CustomFields(ctx context.Context, kind string) ([]db.CustomFieldDefinition, error) {
	if kind != "" {
		k, err := schema.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnknownEntityKind, err)
		}
		kind = k.String()
	}

	defs, err := s.store.ListCustomFieldDefinitions(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	return defs, nil
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
