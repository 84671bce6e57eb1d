package core

import (
	"context"
	"sync"
)

type fakeArchiver struct {
	path  string
	err   error
	saved []string
}

func (a *fakeArchiver) Save(_ context.Context, fileName string, _ []byte) (string, error) {
	a.saved = append(a.saved, fileName)
	if a.err != nil {
		return "", a.err
	}
	return a.path, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	imports []ImportEvent
	sweeps  []SweepEvent
	err     error
}

func (p *fakePublisher) PublishImportCompleted(_ context.Context, ev ImportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imports = append(p.imports, ev)
	return p.err
}

func (p *fakePublisher) PublishSweepCompleted(_ context.Context, ev SweepEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweeps = append(p.sweeps, ev)
	return p.err
}
