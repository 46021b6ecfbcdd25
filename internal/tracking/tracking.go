// Package tracking forwards unexpected errors to an error tracking service.
package tracking

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

// Reporter records an unexpected error. Implementations must not panic.
type Reporter interface {
	Report(err error)
}

// Nop discards every report
type Nop struct{}

// Report implements Reporter
func (Nop) Report(error) {}

// Sentry reports errors to Sentry
type Sentry struct {
	hub *sentry.Hub
}

// NewSentry initializes the Sentry client. An empty dsn yields a Nop reporter.
func NewSentry(dsn, environment, release string) (Reporter, error) {
	if dsn == "" {
		return Nop{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	return &Sentry{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Report implements Reporter
func (s *Sentry) Report(err error) {
	if err == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Sentry report panicked")
		}
	}()
	s.hub.CaptureException(err)
}

// Flush waits for buffered events to be sent
func (s *Sentry) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}
