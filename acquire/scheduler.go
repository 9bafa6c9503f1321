package acquire

import (
	"context"
	"log"
	"sync"
	"time"

	"aircorr/config"
)

var schedOnce sync.Once

// StartScheduler runs one acquisition immediately and then every top of the
// hour plus offset, Israel time. Call it once from main.
func StartScheduler(ctx context.Context, run func(ctx context.Context) error) {
	schedOnce.Do(func() {
		go runScheduler(ctx, run)
	})
}

func runScheduler(parent context.Context, run func(ctx context.Context) error) {
	runWithTimeout(parent, run, config.AcquireTimeout)

	// Station uploads lag the hour; query at :10 past.
	const offset = 10 * time.Minute
	for {
		wait := untilNextTopOfHourPlus(offset)
		select {
		case <-time.After(wait):
			runWithTimeout(parent, run, config.AcquireTimeout)
		case <-parent.Done():
			return
		}
	}
}

func runWithTimeout(parent context.Context, run func(ctx context.Context) error, d time.Duration) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	if err := run(ctx); err != nil {
		log.Printf("[Scheduler] acquisition run failed: %v", err)
	} else {
		log.Printf("[Scheduler] acquisition run complete")
	}
}

func untilNextTopOfHourPlus(offset time.Duration) time.Duration {
	now := time.Now().In(israelTZ())
	next := now.Truncate(time.Hour).Add(time.Hour).Add(offset)
	return next.Sub(now)
}
