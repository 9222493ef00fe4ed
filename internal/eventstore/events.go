package eventstore

import (
	"encoding/json"
	"time"

	"github.com/xamyl/wikii/internal/foundation/errors"
)

// BuildStartedMeta describes what started a pipeline run.
type BuildStartedMeta struct {
	Trigger     string `json:"trigger"` // cli, watch, schedule, startup
	Source      string `json:"source"`
	Output      string `json:"output"`
	Concurrency int    `json:"concurrency"`
}

// BuildCompletedMeta is the persisted form of a build report.
type BuildCompletedMeta struct {
	Outcome       string            `json:"outcome"`
	Discovered    int               `json:"discovered"`
	Rendered      int               `json:"rendered"`
	Failed        int               `json:"failed"`
	InvalidLinks  int               `json:"invalid_links"`
	MissingAssets int               `json:"missing_assets"`
	DurationMS    int64             `json:"duration_ms"`
	SourceHash    string            `json:"source_hash"`
	Fingerprints  map[string]string `json:"fingerprints,omitempty"`
}

// BuildStarted is emitted when a pipeline run begins.
type BuildStarted struct {
	BaseEvent
	Meta BuildStartedMeta
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, meta BuildStartedMeta) (*BuildStarted, error) {
	payload, err := marshalPayload(buildID, TypeBuildStarted, meta)
	if err != nil {
		return nil, err
	}
	return &BuildStarted{BaseEvent: newBase(buildID, TypeBuildStarted, payload), Meta: meta}, nil
}

// DocumentFailed is emitted for each document that did not produce a page.
type DocumentFailed struct {
	BaseEvent
	Document string
	Stage    string
	Message  string
}

// NewDocumentFailed creates a DocumentFailed event.
func NewDocumentFailed(buildID, document, stage, message string) (*DocumentFailed, error) {
	payload, err := marshalPayload(buildID, TypeDocumentFailed, map[string]string{
		"document": document,
		"stage":    stage,
		"message":  message,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentFailed{
		BaseEvent: newBase(buildID, TypeDocumentFailed, payload),
		Document:  document,
		Stage:     stage,
		Message:   message,
	}, nil
}

// BuildCompleted is emitted when the build stage finishes with a report,
// including builds whose outcome is failed because some documents failed.
type BuildCompleted struct {
	BaseEvent
	Meta BuildCompletedMeta
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, meta BuildCompletedMeta) (*BuildCompleted, error) {
	payload, err := marshalPayload(buildID, TypeBuildCompleted, meta)
	if err != nil {
		return nil, err
	}
	return &BuildCompleted{BaseEvent: newBase(buildID, TypeBuildCompleted, payload), Meta: meta}, nil
}

// BuildFailed is emitted when a run aborts before producing a report or index.
type BuildFailed struct {
	BaseEvent
	Stage string
	Error string
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID, stage, errMsg string) (*BuildFailed, error) {
	payload, err := marshalPayload(buildID, TypeBuildFailed, map[string]string{
		"stage": stage,
		"error": errMsg,
	})
	if err != nil {
		return nil, err
	}
	return &BuildFailed{BaseEvent: newBase(buildID, TypeBuildFailed, payload), Stage: stage, Error: errMsg}, nil
}

// IndexWritten is emitted when the search index artifact has been written.
type IndexWritten struct {
	BaseEvent
	Documents  int
	Path       string
	DurationMS int64
}

// NewIndexWritten creates an IndexWritten event.
func NewIndexWritten(buildID, path string, documents int, duration time.Duration) (*IndexWritten, error) {
	payload, err := marshalPayload(buildID, TypeIndexWritten, map[string]any{
		"documents":   documents,
		"path":        path,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &IndexWritten{
		BaseEvent:  newBase(buildID, TypeIndexWritten, payload),
		Documents:  documents,
		Path:       path,
		DurationMS: duration.Milliseconds(),
	}, nil
}

func newBase(buildID, eventType string, payload []byte) BaseEvent {
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}
}

func marshalPayload(buildID, eventType string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to marshal event payload").
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return payload, nil
}
