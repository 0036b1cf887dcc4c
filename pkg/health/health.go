package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quayside/deckhand/pkg/log"
)

const (
	// DefaultAttempts and DefaultInterval bound the wait at one
	// minute per container.
	DefaultAttempts = 30
	DefaultInterval = 2 * time.Second

	// StatusHealthy is the runtime's terminal good state. Compared
	// exactly: "unhealthy" contains "healthy" and must not match.
	StatusHealthy = "healthy"
)

// Prober reads a container's health state and can dump its logs for
// diagnosis. *docker.Client satisfies this.
type Prober interface {
	HealthStatus(ctx context.Context, name string) string
	DumpLogs(ctx context.Context, name string)
}

// Waiter polls a Prober until a container reports healthy.
type Waiter struct {
	Attempts int
	Interval time.Duration

	prober Prober
	logger zerolog.Logger
}

// NewWaiter returns a Waiter with the default attempt count and interval.
func NewWaiter(p Prober) *Waiter {
	return &Waiter{
		Attempts: DefaultAttempts,
		Interval: DefaultInterval,
		prober:   p,
		logger:   log.WithComponent("health"),
	}
}

// Wait blocks until the named container reports healthy, polling once
// per interval. On timeout the container's logs are dumped to the
// terminal for diagnosis and an error is returned. Context
// cancellation aborts the wait without dumping logs.
func (w *Waiter) Wait(ctx context.Context, name string) error {
	logger := w.logger.With().Str("container", name).Logger()
	logger.Info().Msg("waiting for container to become healthy")

	for attempt := 1; attempt <= w.Attempts; attempt++ {
		status := w.prober.HealthStatus(ctx, name)
		if status == StatusHealthy {
			logger.Info().Int("attempts", attempt).Msg("container is healthy")
			return nil
		}
		logger.Debug().Int("attempt", attempt).Str("status", status).Msg("not healthy yet")

		if attempt == w.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.Interval):
		}
	}

	logger.Error().Msg("container did not become healthy in time")
	w.prober.DumpLogs(ctx, name)
	return fmt.Errorf("%s did not become healthy within %d attempts", name, w.Attempts)
}

// WaitAll waits for each container in order, stopping at the first
// failure.
func (w *Waiter) WaitAll(ctx context.Context, names []string) error {
	for _, name := range names {
		if err := w.Wait(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
