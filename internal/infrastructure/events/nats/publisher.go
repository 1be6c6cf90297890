package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// Publisher emits search pipeline progress events over NATS. Events are
// strictly best-effort: the ingestion subsystem listens for them, the
// search request never waits on them.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

func New(url, subject string) (*Publisher, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("clinsearch"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

type sourceCompletedEvent struct {
	RequestID string `json:"request_id"`
	Event     string `json:"event"`
	Source    string `json:"source"`
	Count     int    `json:"count"`
	At        string `json:"at"`
}

type stageEvent struct {
	RequestID string `json:"request_id"`
	Event     string `json:"event"`
	Stage     string `json:"stage"`
	At        string `json:"at"`
}

func (p *Publisher) PublishSourceCompleted(_ context.Context, requestID string, source domain.SourceKind, count int) error {
	return p.publish(sourceCompletedEvent{
		RequestID: requestID,
		Event:     "source_completed",
		Source:    string(source),
		Count:     count,
		At:        time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (p *Publisher) PublishStage(_ context.Context, requestID string, stage domain.PipelineStage) error {
	return p.publish(stageEvent{
		RequestID: requestID,
		Event:     "stage",
		Stage:     string(stage),
		At:        time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (p *Publisher) publish(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}
