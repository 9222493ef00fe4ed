package eventstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBuildID = "0b8f0c1e-6a7d-4c44-9a36-1f7f3bb0e001"

type stampable interface {
	Event
	stamp(time.Time)
}

func (e *BaseEvent) stamp(at time.Time) { e.EventTimestamp = at }

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	started, err := NewBuildStarted(testBuildID, BuildStartedMeta{Trigger: "cli", Source: "docs", Output: "dist", Concurrency: 4})
	require.NoError(t, err)
	started.EventMetadata = map[string]string{"host": "ci"}
	require.NoError(t, store.Append(ctx, started))

	failed, err := NewDocumentFailed(testBuildID, "bad.md", "read", "permission denied")
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, failed))

	other, err := NewBuildStarted("other", BuildStartedMeta{Trigger: "watch"})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, other))

	events, err := store.GetByBuildID(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, TypeBuildStarted, events[0].Type())
	assert.Equal(t, testBuildID, events[0].BuildID())
	assert.NotZero(t, events[0].ID())
	assert.JSONEq(t, `{"trigger":"cli","source":"docs","output":"dist","concurrency":4}`, string(events[0].Payload()))
	assert.Equal(t, map[string]string{"host": "ci"}, events[0].Metadata())

	assert.Equal(t, TypeDocumentFailed, events[1].Type())
	assert.Nil(t, events[1].Metadata())
	assert.Greater(t, events[1].ID(), events[0].ID())
}

func TestEventStoreGetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	now := time.Now()

	old := &BaseEvent{EventBuildID: "old", EventType: TypeBuildStarted, EventTimestamp: now.Add(-48 * time.Hour)}
	recent := &BaseEvent{EventBuildID: "recent", EventType: TypeBuildStarted, EventTimestamp: now}
	require.NoError(t, store.Append(ctx, old))
	require.NoError(t, store.Append(ctx, recent))

	events, err := store.GetRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "recent", events[0].BuildID())
	assert.Equal(t, []byte("{}"), events[0].Payload())

	all, err := store.GetRange(ctx, time.Time{}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEventStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	ev, err := NewIndexWritten(testBuildID, "dist/search_index.json", 3, 25*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, ev))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByBuildID(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"documents":3,"path":"dist/search_index.json","duration_ms":25}`, string(events[0].Payload()))
}

func TestProjectionRebuild(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	appendAt := func(ev stampable, at time.Time) {
		ev.stamp(at)
		require.NoError(t, store.Append(ctx, ev))
	}

	s1, _ := NewBuildStarted("b1", BuildStartedMeta{Trigger: "cli"})
	appendAt(s1, base)
	f1, _ := NewDocumentFailed("b1", "bad.md", "read", "boom")
	appendAt(f1, base.Add(time.Second))
	c1, _ := NewBuildCompleted("b1", BuildCompletedMeta{Outcome: "failed", Discovered: 3, Rendered: 2, Failed: 1, InvalidLinks: 1, SourceHash: "abc"})
	appendAt(c1, base.Add(2*time.Second))
	i1, _ := NewIndexWritten("b1", "dist/search_index.json", 2, time.Millisecond)
	appendAt(i1, base.Add(3*time.Second))

	s2, _ := NewBuildStarted("b2", BuildStartedMeta{Trigger: "watch"})
	appendAt(s2, base.Add(10*time.Second))
	x2, _ := NewBuildFailed("b2", "discover", "source directory not found")
	appendAt(x2, base.Add(11*time.Second))

	s3, _ := NewBuildStarted("b3", BuildStartedMeta{Trigger: "schedule"})
	appendAt(s3, base.Add(20*time.Second))

	p := NewBuildHistoryProjection(store, 10)
	require.NoError(t, p.Rebuild(ctx))

	history := p.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "b2", history[0].BuildID)
	assert.Equal(t, StatusFailed, history[0].Status)
	assert.Equal(t, "discover", history[0].ErrorStage)

	b1 := history[1]
	assert.Equal(t, "cli", b1.Trigger)
	assert.Equal(t, StatusCompleted, b1.Status)
	assert.Equal(t, "failed", b1.Outcome)
	assert.Equal(t, 3, b1.Discovered)
	assert.Equal(t, 2, b1.Rendered)
	assert.Equal(t, []string{"bad.md"}, b1.FailedDocuments)
	assert.Equal(t, 2, b1.IndexedDocuments)
	assert.Equal(t, 2*time.Second, b1.Duration)

	running, ok := p.GetBuild("b3")
	require.True(t, ok)
	assert.Equal(t, StatusRunning, running.Status)

	last, ok := p.GetLastCompletedBuild()
	require.True(t, ok)
	assert.Equal(t, "b2", last.BuildID)
	assert.False(t, p.LastSyncTime().IsZero())
}

func TestProjectionBoundedHistory(t *testing.T) {
	p := NewBuildHistoryProjection(newMemoryStore(t), 2)
	for _, id := range []string{"a", "b", "c"} {
		started, _ := NewBuildStarted(id, BuildStartedMeta{})
		p.Apply(started)
		done, _ := NewBuildCompleted(id, BuildCompletedMeta{Outcome: "success"})
		p.Apply(done)
	}

	history := p.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].BuildID)
	assert.Equal(t, "b", history[1].BuildID)
	_, ok := p.GetBuild("a")
	assert.False(t, ok)
}
