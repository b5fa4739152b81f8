// Package notify emits the hub's two user-activity notifications: a model
// detail view and a completed search. Delivery is behind the Notifier
// interface; the hub ships a structured-logging implementation.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/openuba/model-hub/internal/telemetry"
)

// ViewEvent records that a session opened a model detail page
type ViewEvent struct {
	Session string
	Slug    string
	Name    string
	At      time.Time
}

// SearchEvent records a settled search: the latest query after the user
// stopped typing and how many entries it returned.
type SearchEvent struct {
	Session     string
	Query       string
	ResultCount int
	At          time.Time
}

// Notifier delivers activity notifications
type Notifier interface {
	ModelViewed(ctx context.Context, ev ViewEvent)
	SearchPerformed(ctx context.Context, ev SearchEvent)
}

// LogNotifier writes notifications as structured log records
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier logs through logger, or the slog default when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// ModelViewed implements Notifier
func (n *LogNotifier) ModelViewed(ctx context.Context, ev ViewEvent) {
	telemetry.NotificationsTotal.WithLabelValues("view").Inc()
	n.logger.InfoContext(ctx, "model viewed",
		"session", ev.Session,
		"slug", ev.Slug,
		"model", ev.Name,
		"at", ev.At,
	)
}

// SearchPerformed implements Notifier
func (n *LogNotifier) SearchPerformed(ctx context.Context, ev SearchEvent) {
	telemetry.NotificationsTotal.WithLabelValues("search").Inc()
	n.logger.InfoContext(ctx, "model search",
		"session", ev.Session,
		"query", ev.Query,
		"result_count", ev.ResultCount,
		"at", ev.At,
	)
}

// Nop discards every notification
type Nop struct{}

func (Nop) ModelViewed(context.Context, ViewEvent)       {}
func (Nop) SearchPerformed(context.Context, SearchEvent) {}
