package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/logfields"
	"github.com/xamyl/wikii/internal/retry"
)

const publishTimeout = 5 * time.Second

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes build events as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	policy  retry.Policy
}

// NewNATSPublisher connects to cfg.URL. The connection retries in the
// background if the server goes away after startup.
func NewNATSPublisher(cfg config.NotifyConfig) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigError("notify.url is required for NATS notifications").
			WithContext("field", "notify.url").
			Build()
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("wikii"),
		nats.Timeout(publishTimeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", slog.String("url", c.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to connect to NATS").
			WithContext("url", cfg.URL).
			Retryable().
			Build()
	}

	slog.Info("NATS publisher initialized",
		slog.String("url", nc.ConnectedUrlRedacted()),
		slog.String("subject", cfg.Subject))
	return newNATSPublisher(nc, cfg.Subject, retryPolicy(cfg)), nil
}

func newNATSPublisher(c conn, subject string, policy retry.Policy) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, policy: policy}
}

func retryPolicy(cfg config.NotifyConfig) retry.Policy {
	retries := -1
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}
	delay, _ := time.ParseDuration(cfg.RetryDelay)
	return retry.NewPolicy(cfg.Backoff, delay, 0, retries)
}

// PublishBuild publishes event and flushes so delivery failures surface to
// the caller. Publish and flush failures are retried per the retry policy.
func (p *NATSPublisher) PublishBuild(ctx context.Context, event BuildEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal build event: %w", err)
	}

	err = p.policy.Do(ctx, "publish build event", func(ctx context.Context) error {
		return p.send(ctx, data)
	})
	if err != nil {
		return err
	}

	slog.Debug("Published build event",
		logfields.BuildID(event.BuildID),
		slog.String("subject", p.subject),
		slog.String("outcome", event.Outcome))
	return nil
}

func (p *NATSPublisher) send(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to publish build event").
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to flush build event").
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// New returns a NATS publisher when cfg.URL is set and a NoopPublisher otherwise.
func New(cfg config.NotifyConfig) (Publisher, error) {
	if cfg.URL == "" {
		return NoopPublisher{}, nil
	}
	return NewNATSPublisher(cfg)
}
