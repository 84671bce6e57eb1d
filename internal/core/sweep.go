package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/estatecrm/internal/logging"
	"github.com/JonMunkholm/estatecrm/internal/schema"
	"github.com/jackc/pgx/v5/pgtype"
)

// Sweeper soft-deletes live rows whose custom_fields document repeats one
// seen earlier in creation order. Schema columns are not compared.
type Sweeper struct {
	store  SweepStore
	events EventPublisher
}

// NewSweeper returns a Sweeper over store. A nil publisher disables events.
func NewSweeper(store SweepStore, events EventPublisher) *Sweeper {
	if events == nil {
		events = nopPublisher{}
	}
	return &Sweeper{store: store, events: events}
}

// Sweep runs one pass over kind's live rows. Running it again without new
// rows in between deletes nothing.
func (s *Sweeper) Sweep(ctx context.Context, kind schema.EntityKind) (SweepResult, error) {
	if !kind.Valid() {
		return SweepResult{}, fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}

	logger := logging.WithFields(ctx, "entity_kind", kind.String())

	rows, err := s.store.ListLiveCustomFields(ctx, kind.Table())
	if err != nil {
		return SweepResult{}, fmt.Errorf("list %s: %w", kind.Table(), err)
	}

	result := SweepResult{EntityKind: kind.String(), Scanned: len(rows)}

	kept := make(map[string]bool)
	var doomed []pgtype.UUID
	for _, row := range rows {
		sig, ok := Signature(row.CustomFields)
		if !ok {
			result.Skipped++
			continue
		}
		if kept[sig] {
			doomed = append(doomed, row.ID)
			continue
		}
		kept[sig] = true
	}

	if len(doomed) > 0 {
		n, err := s.store.SoftDeleteEntities(ctx, kind.Table(), doomed)
		if err != nil {
			return SweepResult{}, fmt.Errorf("soft delete %s duplicates: %w", kind.Table(), err)
		}
		result.DeletedCount = n
	}

	logger.Info("duplicate sweep completed",
		"scanned", result.Scanned,
		"skipped", result.Skipped,
		"deleted", result.DeletedCount,
	)

	if result.DeletedCount > 0 {
		if err := s.events.PublishSweepCompleted(ctx, SweepEvent{
			EntityKind:   result.EntityKind,
			DeletedCount: result.DeletedCount,
			FinishedAt:   time.Now().UTC(),
		}); err != nil {
			logger.Warn("publish sweep event failed", "error", err)
		}
	}

	return result, nil
}

// Signature canonicalizes a custom_fields document: the object re-encoded
// with sorted keys. ok is false for NULL, empty, non-object or unparsable
// documents and for the empty object, which never match anything.
func Signature(blob []byte) (sig string, ok bool) {
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 || bytes.Equal(blob, []byte("null")) {
		return "", false
	}

	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil || len(m) == 0 {
		return "", false
	}
	// Anything after the object makes the document unparsable.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", false
	}

	// encoding/json writes map keys in sorted order.
	out, err := json.Marshal(m)
	if err != nil {
		return "", false
	}
	return string(out), true
}
