package workers

import (
	"context"
	"sync"
	"time"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/sanitizer"
)

// sanitizerJob runs the integrity sanitizer on a ticker. The job is idle
// until Run is called.
type sanitizerJob struct {
	sanitizer *sanitizer.Sanitizer

	interval time.Duration
	startup  bool

	logger *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSanitizerJob creates a [Worker] that calls the sanitizer every
// cfg.SanitizerInterval and, when cfg.SanitizerStartup is set, once
// immediately after Run. A non-positive interval falls back to the default
// cadence.
func NewSanitizerJob(sanitizer *sanitizer.Sanitizer, cfg config.Workers, logger *logger.Logger) Worker {
	interval := cfg.SanitizerInterval
	if interval <= 0 {
		interval = config.DefaultSanitizerInterval
	}

	return &sanitizerJob{
		sanitizer: sanitizer,
		interval:  interval,
		startup:   cfg.SanitizerStartup,
		logger:    logger,
	}
}

// Run implements [Worker]. It stops any previously running loop, then
// launches a background goroutine that sanitizes every interval. The
// goroutine exits when ctx is cancelled or Stop is called.
func (j *sanitizerJob) Run(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	jobCtx = j.logger.WithContext(jobCtx)

	go func() {
		defer j.wg.Done()

		if j.startup {
			j.sanitize(jobCtx)
		}

		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.sanitize(jobCtx)
			}
		}
	}()
}

// Stop implements [Worker]. It cancels the background goroutine's context
// and blocks until the goroutine has fully exited. Safe to call when the
// job is not running.
func (j *sanitizerJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *sanitizerJob) sanitize(ctx context.Context) {
	if _, err := j.sanitizer.Sanitize(ctx); err != nil {
		j.logger.Err(err).Str("func", "sanitizerJob.sanitize").Msg("sanity pass aborted")
	}
}
