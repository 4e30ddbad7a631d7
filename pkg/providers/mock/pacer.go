package mock

import (
	"context"
	"time"
)

// Pacer sleeps between emitted text units
type Pacer interface {
	// Pause waits for d or until ctx is done, returning ctx.Err() in the latter case
	Pause(ctx context.Context, d time.Duration) error
}

// RealtimePacer waits the full step delay
type RealtimePacer struct{}

func (RealtimePacer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelayPacer never waits. It still reports cancellation.
type NoDelayPacer struct{}

func (NoDelayPacer) Pause(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// ScaledPacer waits the step delay multiplied by its value, e.g. ScaledPacer(0.1)
type ScaledPacer float64

func (s ScaledPacer) Pause(ctx context.Context, d time.Duration) error {
	return RealtimePacer{}.Pause(ctx, time.Duration(float64(d)*float64(s)))
}
