// Package notify carries user-facing outcome notices out of the core.
package notify

import (
	"context"
	"log/slog"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notice is one toast-style message.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Notifier delivers notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notice)

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// LogNotifier writes notices to a slog.Logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at a level matching its kind.
func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	if l.Logger == nil {
		return
	}
	level := slog.LevelInfo
	if n.Level == LevelError {
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level, "notice", "level", string(n.Level), "title", n.Title, "message", n.Message)
}

// Discard drops every notice.
var Discard Notifier = Func(func(context.Context, Notice) {})
