package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Tracker
// ---------------------------------------------------------------------------

func TestTracker_MarkSeenOnce(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.HasSeen("login-anomaly"))
	assert.True(t, tr.MarkSeen("login-anomaly"))
	assert.True(t, tr.HasSeen("login-anomaly"))
	assert.False(t, tr.MarkSeen("login-anomaly"))
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_Independent(t *testing.T) {
	a, b := NewTracker(), NewTracker()
	a.MarkSeen("x")
	assert.False(t, b.HasSeen("x"), "trackers must not share state")
}

func TestTracker_ConcurrentMarkSeenHasOneWinner(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.MarkSeen("net-flow-iforest") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

// ---------------------------------------------------------------------------
// Debouncer
// ---------------------------------------------------------------------------

type emitted struct {
	query string
	count int
}

func newRecordingDebouncer(delay time.Duration) (*Debouncer, <-chan emitted) {
	ch := make(chan emitted, 10)
	d := NewDebouncer(delay, func(q string, n int) { ch <- emitted{q, n} })
	return d, ch
}

func TestDebouncer_EmitsLatestAfterQuietPeriod(t *testing.T) {
	d, ch := newRecordingDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Trigger("l", 5)
	d.Trigger("lo", 3)
	d.Trigger("log", 1)

	select {
	case got := <-ch:
		assert.Equal(t, emitted{"log", 1}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never emitted")
	}

	select {
	case extra := <-ch:
		t.Fatalf("unexpected second emission: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_BlankQueryCancels(t *testing.T) {
	d, ch := newRecordingDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Trigger("auth", 1)
	d.Trigger("   ", 3)
	assert.False(t, d.Pending())

	select {
	case got := <-ch:
		t.Fatalf("blank query should cancel, got %+v", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_StopCancelsAndDisables(t *testing.T) {
	d, ch := newRecordingDebouncer(30 * time.Millisecond)

	d.Trigger("auth", 1)
	assert.True(t, d.Pending())
	d.Stop()
	assert.False(t, d.Pending())

	d.Trigger("network", 1)
	assert.False(t, d.Pending(), "triggers after Stop are ignored")

	select {
	case got := <-ch:
		t.Fatalf("stopped debouncer emitted %+v", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_SeparateQuietPeriodsEmitSeparately(t *testing.T) {
	d, ch := newRecordingDebouncer(20 * time.Millisecond)
	defer d.Stop()

	for _, q := range []string{"auth", "network"} {
		d.Trigger(q, 1)
		select {
		case got := <-ch:
			assert.Equal(t, q, got.query)
		case <-time.After(2 * time.Second):
			t.Fatalf("no emission for %q", q)
		}
	}
}

func TestNewDebouncer_DefaultDelay(t *testing.T) {
	d := NewDebouncer(0, func(string, int) {})
	assert.Equal(t, DefaultSearchDebounce, d.delay)
}

// ---------------------------------------------------------------------------
// LogNotifier
// ---------------------------------------------------------------------------

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()

	n.ModelViewed(ctx, ViewEvent{Session: "s1", Slug: "login-anomaly", Name: "login-anomaly"})
	n.SearchPerformed(ctx, SearchEvent{Session: "s1", Query: "auth", ResultCount: 1})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var view, search map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &view))
	require.NoError(t, json.Unmarshal(lines[1], &search))

	assert.Equal(t, "model viewed", view["msg"])
	assert.Equal(t, "login-anomaly", view["slug"])
	assert.Equal(t, "notify", view["component"])
	assert.Equal(t, "auth", search["query"])
	assert.Equal(t, fmt.Sprint(1), fmt.Sprint(search["result_count"]))
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	n.ModelViewed(context.Background(), ViewEvent{})
	n.SearchPerformed(context.Background(), SearchEvent{})
}
