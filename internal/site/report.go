package site

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/xamyl/wikii/internal/foundation/errors"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// Stage names a step in the per-document pipeline.
type Stage string

const (
	StageDiscover   Stage = "discover"
	StageSnapshot   Stage = "snapshot"
	StageStylesheet Stage = "stylesheet"
	StageRead       Stage = "read"
	StageRender     Stage = "render"
	StageAssemble   Stage = "assemble"
	StageWrite      Stage = "write"
)

// Failure records one document that did not produce a page.
type Failure struct {
	Document string `json:"document"`
	Stage    Stage  `json:"stage"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// Report captures the result of a build run.
type Report struct {
	Start         time.Time         `json:"start"`
	End           time.Time         `json:"end"`
	Concurrency   int               `json:"concurrency"`
	Discovered    int               `json:"discovered"`
	Rendered      int               `json:"rendered"`
	Failures      []Failure         `json:"failures"`
	InvalidLinks  int               `json:"invalid_links"`
	MissingAssets int               `json:"missing_assets"`
	Collisions    []string          `json:"collisions,omitempty"`
	Pages         []string          `json:"pages"`
	Fingerprints  map[string]string `json:"fingerprints"`
	SourceHash    string            `json:"source_hash"`
	Outcome       Outcome           `json:"outcome"`

	mu sync.Mutex
}

func newReport() *Report {
	return &Report{
		Start:        time.Now(),
		Failures:     []Failure{},
		Pages:        []string{},
		Fingerprints: map[string]string{},
	}
}

// Failed is the number of documents that did not produce a page.
func (r *Report) Failed() int {
	return len(lo.Uniq(lo.Map(r.Failures, func(f Failure, _ int) string { return f.Document })))
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("discovered=%d rendered=%d failed=%d invalid_links=%d missing_assets=%d duration=%s outcome=%s",
		r.Discovered, r.Rendered, r.Failed(), r.InvalidLinks, r.MissingAssets,
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

func (r *Report) recordFailure(document string, stage Stage, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := err.Error()
	if ce, ok := errors.AsClassified(err); ok {
		msg = ce.Message()
		if cause := ce.Cause(); cause != nil {
			msg += ": " + cause.Error()
		}
	}
	r.Failures = append(r.Failures, Failure{Document: document, Stage: stage, Message: msg, Err: err})
}

func (r *Report) recordPage(document, pageName, fingerprint string, invalidLinks, missingAssets int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rendered++
	r.Pages = append(r.Pages, pageName)
	r.Fingerprints[document] = fingerprint
	r.InvalidLinks += invalidLinks
	r.MissingAssets += missingAssets
}

func (r *Report) finish() {
	r.End = time.Now()
	sort.Strings(r.Pages)
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Document < r.Failures[j].Document })

	switch {
	case len(r.Failures) > 0:
		r.Outcome = OutcomeFailed
	case r.InvalidLinks > 0 || r.MissingAssets > 0 || len(r.Collisions) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}
