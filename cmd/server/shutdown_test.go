package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/estatecrm/internal/core"
)

type steps struct {
	mu   sync.Mutex
	seen []string
}

func (s *steps) add(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, name)
}

func (s *steps) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

type fakeServer struct {
	steps    *steps
	startErr error
}

func (f *fakeServer) Start() error { return f.startErr }

func (f *fakeServer) Shutdown(context.Context) error {
	f.steps.add("server")
	return nil
}

type fakeImports struct {
	steps  *steps
	active int
}

func (f *fakeImports) LimiterStatus() core.LimiterStatus {
	return core.LimiterStatus{Active: f.active}
}

func (f *fakeImports) WaitForImports(context.Context) error {
	f.steps.add("imports")
	return nil
}

type fakeEvents struct{ steps *steps }

func (f *fakeEvents) Close() error {
	f.steps.add("events")
	return nil
}

func TestServe_WaitsForDrain(t *testing.T) {
	st := &steps{}
	srv := &fakeServer{steps: st, startErr: http.ErrServerClosed}
	done := make(chan struct{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		drain(context.Background(), srv, &fakeImports{steps: st, active: 1}, &fakeEvents{steps: st})
		close(done)
	}()

	require.NoError(t, serve(srv, done))
	st.add("exit")

	assert.Equal(t, []string{"server", "imports", "events", "exit"}, st.list())
}

func TestServe_StartFailureReturnsImmediately(t *testing.T) {
	boom := errors.New("address in use")
	srv := &fakeServer{steps: &steps{}, startErr: boom}

	err := serve(srv, make(chan struct{}))
	assert.ErrorIs(t, err, boom)
}

func TestDrain_SkipsIdleImportsAndNilEvents(t *testing.T) {
	st := &steps{}
	srv := &fakeServer{steps: st}

	drain(context.Background(), srv, &fakeImports{steps: st}, nil)

	assert.Equal(t, []string{"server"}, st.list())
}
