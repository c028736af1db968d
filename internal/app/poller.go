package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// Refresher is a periodic query against the backend, such as a performance
// sample or a bot status check.
type Refresher func(ctx context.Context) error

// StartPoller runs every refresher on a fixed cadence in a background
// goroutine and returns immediately. Consecutive failures stretch the
// interval up to maxBackoff; one clean round resets it.
func StartPoller(ctx context.Context, log *logrus.Entry, interval time.Duration, refreshers ...Refresher) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	go func() {
		failures := 0
		for {
			if err := poll(ctx, refreshers); err != nil {
				failures++
				log.WithError(err).WithField("failures", failures).Debug("poll failed")
			} else {
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func poll(ctx context.Context, refreshers []Refresher) error {
	var first error
	for _, refresh := range refreshers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := refresh(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
