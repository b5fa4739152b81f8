// Package safego runs background work so that a panic is logged instead of
// taking the whole server down.
package safego

import (
	"log/slog"
	"runtime/debug"
)

// Go launches fn in a new goroutine, recovering and logging any panic under name.
func Go(name string, fn func()) {
	go Run(name, fn)
}

// Run calls fn on the current goroutine and recovers a panic. It reports
// whether fn returned normally. Timer callbacks use it directly since they
// already run on their own goroutine.
func Run(name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in background task",
				"task", name,
				"panic", r,
				"stack", string(debug.Stack()))
			ok = false
		}
	}()
	fn()
	return true
}
