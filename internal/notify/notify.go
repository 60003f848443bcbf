// Package notify carries user-facing toast notifications out of the storefront
// operations. Delivery belongs to the caller; the HTTP layer records them and
// returns them alongside the response body.
package notify

import (
	"context"
	"sync"

	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string)
}

// Recorder keeps notifications in emission order.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(_ context.Context, message string) {
	r.add(LevelSuccess, message)
}

func (r *Recorder) Failure(_ context.Context, message string) {
	r.add(LevelError, message)
}

func (r *Recorder) add(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message})
}

// Notifications returns a copy of everything recorded so far; never nil.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Logging forwards each notification to the structured logger and then to next.
type Logging struct {
	logg *logger.Logger
	next Notifier
}

func NewLogging(logg *logger.Logger, next Notifier) *Logging {
	return &Logging{logg: logg, next: next}
}

func (l *Logging) Success(ctx context.Context, message string) {
	if l.logg != nil {
		l.logg.Debug(l.logg.WithField(ctx, "notification", message), "notify.success")
	}
	if l.next != nil {
		l.next.Success(ctx, message)
	}
}

func (l *Logging) Failure(ctx context.Context, message string) {
	if l.logg != nil {
		l.logg.Info(l.logg.WithField(ctx, "notification", message), "notify.failure")
	}
	if l.next != nil {
		l.next.Failure(ctx, message)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Success(context.Context, string) {}
func (Discard) Failure(context.Context, string) {}
