package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/estatecrm/internal/core"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []message
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, message{subject, data})
	return nil
}

var (
	_ core.EventPublisher = (*Publisher)(nil)
	_ core.EventPublisher = Nop{}
)

func TestPublisher_ImportCompleted(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")

	ev := core.ImportEvent{
		JobID:      "7f1c",
		EntityKind: "property",
		FileName:   "listings.csv",
		Stats:      core.Stats{Total: 3, Imported: 2, Duplicates: 1},
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishImportCompleted(context.Background(), ev))

	require.Len(t, fc.msgs, 1)
	assert.Equal(t, "crm.import.completed", fc.msgs[0].subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &got))
	assert.Equal(t, "7f1c", got["jobId"])
	assert.Equal(t, map[string]any{"total": 3.0, "imported": 2.0, "duplicates": 1.0, "errors": 0.0}, got["stats"])
}

func TestPublisher_SweepSubject(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "estate.")

	require.NoError(t, p.PublishSweepCompleted(context.Background(), core.SweepEvent{EntityKind: "property", DeletedCount: 4}))
	assert.Equal(t, "estate.properties.deduplicated", fc.msgs[0].subject)
	assert.Equal(t, "estate.contacts.deduplicated", p.SweepSubject("contact"))
}

func TestPublisher_Error(t *testing.T) {
	p := newPublisher(&fakeConn{err: errors.New("nats: connection closed")}, "crm")
	err := p.PublishImportCompleted(context.Background(), core.ImportEvent{})
	assert.ErrorContains(t, err, "crm.import.completed")
}

func TestPublisher_CloseWithoutConnection(t *testing.T) {
	assert.NoError(t, newPublisher(&fakeConn{}, "").Close())
}
