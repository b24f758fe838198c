// Package watch implements the real-time driver: an unbounded polling loop
// that runs one fresh conversation per cycle for a fixed subject, renders the
// transcript as it grows and sleeps a fixed interval between cycles. Each
// cycle is fully independent; only the subject and agent roster persist.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/stockmesh/console"
	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/logging"
	"github.com/hupe1980/stockmesh/team"
)

// Options configure a Watcher.
type Options struct {
	// Interval is the sleep between cycles. Defaults to 60s.
	Interval time.Duration
	// Console receives rendered output. May be nil to disable rendering.
	Console *console.Console
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Watcher re-runs the analysis team for one subject on a fixed cadence. A
// failed run is logged and absorbed; the polling interval doubles as the
// backoff, so there is never an immediate retry storm.
type Watcher struct {
	team     *team.RoundRobin
	subject  string
	task     string
	interval time.Duration
	console  *console.Console
	logger   logging.Logger
}

// New constructs a Watcher for the given team and subject.
func New(t *team.RoundRobin, subject string, optFns ...func(o *Options)) *Watcher {
	opts := Options{
		Interval: 60 * time.Second,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Watcher{
		team:     t,
		subject:  subject,
		task: fmt.Sprintf(
			"Analyze trends, real-time prices, and latest news for %s. Then make an investment decision.",
			subject,
		),
		interval: opts.Interval,
		console:  opts.Console,
		logger:   opts.Logger,
	}
}

// Run loops until ctx is cancelled, which is the only way it returns. A clean
// interrupt yields nil; the loop itself never terminates on its own.
func (w *Watcher) Run(ctx context.Context) error {
	for cycle := 1; ; cycle++ {
		if w.console != nil {
			w.console.Cycle(cycle, w.subject, time.Now())
		}

		w.runCycle(ctx, cycle)

		if err := ctx.Err(); err != nil {
			w.logger.Info("watch.stopped", "cycles", cycle)
			return nil
		}

		if w.console != nil {
			w.console.Waiting(w.interval)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("watch.stopped", "cycles", cycle)
			return nil
		case <-time.After(w.interval):
		}
	}
}

// runCycle executes one independent conversation run, streaming messages to
// the console as they are produced. Run failures are contained here.
func (w *Watcher) runCycle(ctx context.Context, cycle int) {
	start := time.Now()

	messages, errs, results := w.team.RunStream(ctx, w.subject, w.task)

	for messages != nil || errs != nil {
		select {
		case msg, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			w.render(msg)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				w.logger.Error("watch.run_failed", "cycle", cycle, "error", err.Error())
				if w.console != nil {
					w.console.RunFailed(err)
				}
			}
		}
	}

	if result := <-results; result != nil {
		w.logger.Info("watch.cycle.complete",
			"cycle", cycle,
			"run_id", result.RunID,
			"messages", len(result.Transcript),
			"stop_reason", result.StopReason,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (w *Watcher) render(msg core.Message) {
	if w.console != nil {
		w.console.Message(msg)
	}
}
