// Package team implements the group conversation scheduler: a fixed-order
// round-robin over agents with pluggable termination logic. Turns are
// strictly sequential; each produced message is appended to the transcript
// and streamed to the caller before the termination condition is consulted.
package team

import (
	"context"
	"fmt"

	"github.com/hupe1980/stockmesh/condition"
	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/logging"
)

// State tracks the lifecycle of one conversation run.
type State int

const (
	// StateIdle means the run has not started yet.
	StateIdle State = iota
	// StateRunning means turns are being taken.
	StateRunning
	// StateTerminated means the termination condition fired and the
	// transcript is complete.
	StateTerminated
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RunError reports a turn-level failure that aborted a conversation run. The
// partial transcript is retained for diagnostics only; callers must not treat
// it as a completed conversation.
type RunError struct {
	Agent      string
	Turn       int
	Transcript core.Transcript
	Err        error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed at turn %d (agent %s): %v", e.Turn, e.Agent, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *RunError) Unwrap() error { return e.Err }

// Result is the outcome of a completed conversation run.
type Result struct {
	RunID      string
	Subject    string
	Transcript core.Transcript
	StopReason string
}

// Options configures a RoundRobin team.
type Options struct {
	// Condition decides when the conversation stops. Defaults to a safety
	// cap of 15 messages.
	Condition condition.Condition
	// Observer receives tool sub-steps for live rendering. May be nil.
	Observer core.ToolObserver
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// BufferSize sets the streaming channel buffer.
	BufferSize int
}

// RoundRobin drives a fixed cyclic sequence of agents: turn k is always taken
// by agents[k mod N], for any run length. A RoundRobin value holds no per-run
// state and may execute any number of independent runs.
type RoundRobin struct {
	agents   []core.Agent
	cond     condition.Condition
	observer core.ToolObserver
	logger   logging.Logger
	bufSize  int
}

// NewRoundRobin constructs a scheduler over the given agents. Agent order is
// the turn order. Names must be unique within the team.
func NewRoundRobin(agents []core.Agent, optFns ...func(o *Options)) (*RoundRobin, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("round robin requires at least one agent")
	}

	seen := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		if _, dup := seen[a.Name()]; dup {
			return nil, fmt.Errorf("duplicate agent name %q", a.Name())
		}
		seen[a.Name()] = struct{}{}
	}

	opts := Options{
		Condition:  condition.MaxMessages(15),
		Logger:     logging.NoOpLogger{},
		BufferSize: 16,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &RoundRobin{
		agents:   agents,
		cond:     opts.Condition,
		observer: opts.Observer,
		logger:   opts.Logger,
		bufSize:  opts.BufferSize,
	}, nil
}

// Agents returns the roster in turn order.
func (t *RoundRobin) Agents() []core.Agent {
	out := make([]core.Agent, len(t.agents))
	copy(out, t.agents)
	return out
}

// Run executes one conversation to termination, blocking until done. It is a
// convenience wrapper draining RunStream.
func (t *RoundRobin) Run(ctx context.Context, subject, task string) (*Result, error) {
	messages, errs, result := t.RunStream(ctx, subject, task)

	for messages != nil || errs != nil {
		select {
		case _, ok := <-messages:
			if !ok {
				messages = nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	return <-result, nil
}

// RunStream executes one conversation asynchronously. Each message is sent on
// the returned channel as soon as it is appended, so callers observe the
// transcript turn-by-turn. The message channel closes when the run ends; on
// failure the error channel carries a *RunError and no result is delivered.
func (t *RoundRobin) RunStream(ctx context.Context, subject, task string) (<-chan core.Message, <-chan error, <-chan *Result) {
	messages := make(chan core.Message, t.bufSize)
	errs := make(chan error, 1)
	results := make(chan *Result, 1)

	go func() {
		defer close(messages)
		defer close(errs)
		defer close(results)

		result, err := t.run(ctx, subject, task, messages)
		if err != nil {
			errs <- err
			return
		}
		results <- result
	}()

	return messages, errs, results
}

// run is the scheduler state machine: Idle -> Running -> Terminated.
func (t *RoundRobin) run(ctx context.Context, subject, task string, messages chan<- core.Message) (*Result, error) {
	runID := core.NewID()
	transcript := core.Transcript{}

	state := StateRunning
	t.logger.Info("team.run.start",
		"run_id", runID, "subject", subject,
		"from", StateIdle.String(), "to", state.String(), "agents", len(t.agents))

	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, &RunError{Turn: turn, Transcript: transcript, Err: err}
		}

		ag := t.agents[turn%len(t.agents)]

		turnCtx := core.NewTurnContext(ctx, runID, subject, task, turn, transcript, t.observer, t.logger)

		msg, err := ag.TakeTurn(turnCtx)
		if err != nil {
			t.logger.Error("team.turn.failed", "run_id", runID, "turn", turn, "agent", ag.Name(), "error", err.Error())
			return nil, &RunError{Agent: ag.Name(), Turn: turn, Transcript: transcript, Err: err}
		}

		transcript = transcript.Append(msg)

		t.logger.Debug("team.turn.complete", "run_id", runID, "turn", turn, "agent", ag.Name(), "messages", len(transcript))

		select {
		case messages <- msg:
		case <-ctx.Done():
			return nil, &RunError{Agent: ag.Name(), Turn: turn, Transcript: transcript, Err: ctx.Err()}
		}

		if t.cond.ShouldStop(transcript) {
			state = StateTerminated
			t.logger.Info("team.run.terminated",
				"run_id", runID, "state", state.String(), "messages", len(transcript), "condition", t.cond.String())

			return &Result{
				RunID:      runID,
				Subject:    subject,
				Transcript: transcript,
				StopReason: t.cond.String(),
			}, nil
		}
	}
}
