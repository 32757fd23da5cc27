package utils

import (
	"context"
	"time"
)

// Default pacing keeps lookups under TMDB's published quota
const (
	DefaultPaceEvery = 15
	DefaultPauseFor  = 10 * time.Second
)

// Pacer inserts a fixed pause once every fixed number of processed items.
// It is a modulo check over the item index, not a sliding window.
type Pacer struct {
	Every int
	Pause time.Duration

	sleep   func(ctx context.Context, d time.Duration) error
	onPause func()
}

// NewPacer creates a pacer; non-positive values fall back to the defaults
func NewPacer(every int, pause time.Duration) *Pacer {
	if every <= 0 {
		every = DefaultPaceEvery
	}
	if pause < 0 {
		pause = DefaultPauseFor
	}
	return &Pacer{
		Every: every,
		Pause: pause,
		sleep: sleepContext,
	}
}

// OnPause registers a callback invoked every time the pacer pauses
func (p *Pacer) OnPause(fn func()) {
	p.onPause = fn
}

// ShouldPause reports whether a pause is due after processed items
func (p *Pacer) ShouldPause(processed int) bool {
	return processed > 0 && processed%p.Every == 0
}

// Pace blocks for the pause duration when a pause is due.
// It returns early with the context error when ctx is cancelled.
func (p *Pacer) Pace(ctx context.Context, processed int) error {
	if !p.ShouldPause(processed) {
		return nil
	}
	if p.onPause != nil {
		p.onPause()
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, p.Pause)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
