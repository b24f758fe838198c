package core

import (
	"context"

	"github.com/hupe1980/stockmesh/logging"
)

// TurnContext carries the execution scope for a single agent turn. It bundles
// the ambient cancellation context, run identifiers, the subject under
// analysis, the seed task, an immutable transcript snapshot and the observer
// used to surface tool sub-steps. A fresh TurnContext is built by the
// scheduler for every turn so agents never see a transcript that is still
// growing.
type TurnContext struct {
	Context    context.Context
	RunID      string
	Subject    string
	Task       string
	TurnIndex  int
	Transcript Transcript

	observer ToolObserver
	logger   logging.Logger
}

// NewTurnContext constructs the context for one turn. observer and logger may
// be nil; accessors fall back to no-ops.
func NewTurnContext(
	ctx context.Context,
	runID, subject, task string,
	turnIndex int,
	transcript Transcript,
	observer ToolObserver,
	logger logging.Logger,
) *TurnContext {
	return &TurnContext{
		Context:    ctx,
		RunID:      runID,
		Subject:    subject,
		Task:       task,
		TurnIndex:  turnIndex,
		Transcript: transcript,
		observer:   observer,
		logger:     logger,
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error, if any, from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// Logger returns the turn logger, never nil.
func (tc *TurnContext) Logger() logging.Logger {
	if tc.logger == nil {
		return logging.NoOpLogger{}
	}
	return tc.logger
}

// NotifyToolStep forwards a completed tool step to the observer, if any.
func (tc *TurnContext) NotifyToolStep(step ToolStep) {
	if tc.observer != nil {
		tc.observer.OnToolStep(step)
	}
}
