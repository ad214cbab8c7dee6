// Package errtrack reports server-side failures to Sentry. A nil *Tracker
// is valid and drops everything, so callers need no DSN checks.
package errtrack

import (
	"time"

	"github.com/getsentry/sentry-go"
)

type Tracker struct {
	hub *sentry.Hub
}

// Init returns nil when dsn is empty.
func Init(dsn, environment, release string) (*Tracker, error) {
	if dsn == "" {
		return nil, nil
	}
	return New(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
}

func New(opts sentry.ClientOptions) (*Tracker, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &Tracker{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Capture sends err with tags attached to this event only.
func (t *Tracker) Capture(err error, tags map[string]string) {
	if t == nil || err == nil {
		return
	}
	hub := t.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Flush waits up to timeout for queued events to be delivered.
func (t *Tracker) Flush(timeout time.Duration) bool {
	if t == nil {
		return true
	}
	return t.hub.Flush(timeout)
}
