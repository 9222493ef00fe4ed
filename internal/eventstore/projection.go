// Package eventstore records pipeline runs as an append-only SQLite event log
// and projects them into a build history.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is a read model summarizing one pipeline run.
type BuildSummary struct {
	BuildID          string        `json:"build_id"`
	Trigger          string        `json:"trigger,omitempty"`
	Status           string        `json:"status"`
	Outcome          string        `json:"outcome,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	Duration         time.Duration `json:"duration,omitempty"`
	Discovered       int           `json:"discovered"`
	Rendered         int           `json:"rendered"`
	FailedDocuments  []string      `json:"failed_documents,omitempty"`
	InvalidLinks     int           `json:"invalid_links"`
	IndexedDocuments int           `json:"indexed_documents"`
	SourceHash       string        `json:"source_hash,omitempty"`
	ErrorStage       string        `json:"error_stage,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history
// reconstructed from the events in a Store.
type BuildHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	builds   map[string]*BuildSummary
	history  []*BuildSummary // newest first
	maxSize  int
	lastSync time.Time
}

// NewBuildHistoryProjection creates a projection backed by store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		history: make([]*BuildSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.builds = make(map[string]*BuildSummary)
	p.history = make([]*BuildSummary, 0, p.maxSize)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneBuildsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event as it is emitted.
func (p *BuildHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *BuildHistoryProjection) applyEventLocked(event Event) {
	buildID := event.BuildID()
	if buildID == "" {
		return
	}

	summary, exists := p.builds[buildID]
	if !exists {
		summary = &BuildSummary{
			BuildID:   buildID,
			Status:    StatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.builds[buildID] = summary
	}

	switch event.Type() {
	case TypeBuildStarted:
		summary.StartedAt = event.Timestamp()
		summary.Status = StatusRunning
		var meta BuildStartedMeta
		if err := json.Unmarshal(event.Payload(), &meta); err == nil {
			summary.Trigger = meta.Trigger
		}

	case TypeDocumentFailed:
		var payload struct {
			Document string `json:"document"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.FailedDocuments = append(summary.FailedDocuments, payload.Document)
		}

	case TypeBuildCompleted:
		var meta BuildCompletedMeta
		if err := json.Unmarshal(event.Payload(), &meta); err == nil {
			summary.Outcome = meta.Outcome
			summary.Discovered = meta.Discovered
			summary.Rendered = meta.Rendered
			summary.InvalidLinks = meta.InvalidLinks
			summary.SourceHash = meta.SourceHash
		}
		p.completeLocked(summary, event.Timestamp(), StatusCompleted)

	case TypeIndexWritten:
		var payload struct {
			Documents int `json:"documents"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.IndexedDocuments = payload.Documents
		}

	case TypeBuildFailed:
		var payload struct {
			Stage string `json:"stage"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
		}
		summary.Outcome = StatusFailed
		p.completeLocked(summary, event.Timestamp(), StatusFailed)
	}
}

func (p *BuildHistoryProjection) completeLocked(summary *BuildSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status

	for _, h := range p.history {
		if h.BuildID == summary.BuildID {
			return
		}
	}
	p.history = append([]*BuildSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneBuildsLocked()
}

// pruneBuildsLocked drops finished builds that fell out of the bounded history.
func (p *BuildHistoryProjection) pruneBuildsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.BuildID] = struct{}{}
	}
	for id, summary := range p.builds {
		if summary.Status == StatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// GetHistory returns copies of the finished builds, newest first.
func (p *BuildHistoryProjection) GetHistory() []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]BuildSummary, len(p.history))
	for i, h := range p.history {
		result[i] = *h
	}
	return result
}

// GetBuild returns the summary for a specific build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.builds[buildID]
	if !exists {
		return BuildSummary{}, false
	}
	return *summary, true
}

// GetLastCompletedBuild returns the most recently finished build.
func (p *BuildHistoryProjection) GetLastCompletedBuild() (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return BuildSummary{}, false
	}
	return *p.history[0], true
}

// LastSyncTime returns when the projection was last rebuilt from the store.
func (p *BuildHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
