// Package notify publishes build-completed events to subscribers.
package notify

import (
	"context"
	"time"
)

// BuildEvent is the message published after every pipeline run.
type BuildEvent struct {
	BuildID          string    `json:"build_id"`
	Trigger          string    `json:"trigger"`
	Outcome          string    `json:"outcome"`
	Discovered       int       `json:"discovered"`
	Rendered         int       `json:"rendered"`
	Failed           int       `json:"failed"`
	InvalidLinks     int       `json:"invalid_links"`
	IndexedDocuments int       `json:"indexed_documents"`
	DurationMS       int64     `json:"duration_ms"`
	SourceHash       string    `json:"source_hash,omitempty"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Publisher delivers build events.
type Publisher interface {
	PublishBuild(ctx context.Context, event BuildEvent) error
	Close() error
}

// NoopPublisher discards events; used when notify.url is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBuild(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }
