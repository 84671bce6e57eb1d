// Package events announces finished imports and duplicate sweeps on NATS.
//
// Subjects are "<prefix>.import.completed" and "<prefix>.<table>.deduplicated"
// with JSON payloads. Publishing is best-effort: callers log failures and
// carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/JonMunkholm/estatecrm/internal/core"
	"github.com/JonMunkholm/estatecrm/internal/schema"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
const DefaultSubjectPrefix = "crm"

// Config configures the NATS connection.
type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	DrainTimeout  time.Duration
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements core.EventPublisher over a NATS connection.
type Publisher struct {
	nc           *nats.Conn
	pub          conn
	prefix       string
	drainTimeout time.Duration
}

// Connect dials NATS with reconnect handling and returns a Publisher.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Name == "" {
		cfg.Name = "estatecrm"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			} else {
				slog.Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			if err := nc.LastError(); err != nil {
				slog.Error("nats connection closed", "error", err)
			} else {
				slog.Info("nats connection closed")
			}
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			if sub != nil {
				slog.Error("nats subscription error", "subject", sub.Subject, "error", err)
			} else {
				slog.Error("nats async error", "error", err)
			}
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", cfg.URL, err)
	}
	slog.Info("connected to nats", "url", nc.ConnectedUrl(), "server", nc.ConnectedServerName())

	p := newPublisher(nc, cfg.SubjectPrefix)
	p.nc = nc
	p.drainTimeout = cfg.DrainTimeout
	return p, nil
}

func newPublisher(c conn, prefix string) *Publisher {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{pub: c, prefix: prefix}
}

// ImportSubject is the subject import completions are published on.
func (p *Publisher) ImportSubject() string {
	return p.prefix + ".import.completed"
}

// SweepSubject is the subject sweeps over kind are published on.
func (p *Publisher) SweepSubject(kind string) string {
	table := kind
	if k, err := schema.ParseKind(kind); err == nil {
		table = k.Table()
	}
	return p.prefix + "." + table + ".deduplicated"
}

func (p *Publisher) PublishImportCompleted(_ context.Context, ev core.ImportEvent) error {
	return p.publish(p.ImportSubject(), ev)
}

func (p *Publisher) PublishSweepCompleted(_ context.Context, ev core.SweepEvent) error {
	return p.publish(p.SweepSubject(ev.EntityKind), ev)
}

func (p *Publisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection, forcing it closed after the drain timeout.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}

	timeout := p.drainTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	done := make(chan struct{})
	go func() {
		for !p.nc.IsClosed() {
			time.Sleep(50 * time.Millisecond)
		}
		close(done)
	}()

	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}

	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("nats drain timed out, forcing close")
		p.nc.Close()
	}
	return nil
}

// Nop publishes nothing.
type Nop struct{}

func (Nop) PublishImportCompleted(context.Context, core.ImportEvent) error { return nil }
func (Nop) PublishSweepCompleted(context.Context, core.SweepEvent) error   { return nil }
