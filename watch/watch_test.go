package watch

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stockmesh/condition"
	"github.com/hupe1980/stockmesh/console"
	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/team"
)

// countingAgent replies once per turn and counts how often it is asked.
type countingAgent struct {
	name  string
	turns atomic.Int64
	fail  bool
}

func (a *countingAgent) Name() string { return a.name }

func (a *countingAgent) Description() string { return a.name }

func (a *countingAgent) TakeTurn(turnCtx *core.TurnContext) (core.Message, error) {
	a.turns.Add(1)
	if a.fail {
		return core.Message{}, fmt.Errorf("simulated outage: %w", core.ErrBackendUnavailable)
	}
	return core.NewMessage(a.name, "Decision Made: hold.", turnCtx.TurnIndex), nil
}

func newTeam(t *testing.T, a core.Agent) *team.RoundRobin {
	t.Helper()
	rr, err := team.NewRoundRobin([]core.Agent{a}, func(o *team.Options) {
		o.Condition = condition.TextMention("Decision Made")
	})
	require.NoError(t, err)
	return rr
}

func TestWatcherRunsCyclesUntilCancelled(t *testing.T) {
	ag := &countingAgent{name: "analyst"}

	var buf bytes.Buffer
	w := New(newTeam(t, ag), "ICICIBANK.NS", func(o *Options) {
		o.Interval = 5 * time.Millisecond
		o.Console = console.New(&buf)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Let a few cycles complete, then interrupt.
	require.Eventually(t, func() bool { return ag.turns.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}

	out := buf.String()
	assert.Contains(t, out, "cycle 1: analyzing ICICIBANK.NS")
	assert.Contains(t, out, "cycle 2: analyzing ICICIBANK.NS")
	assert.Contains(t, out, "Decision Made: hold.")
	assert.Contains(t, out, "waiting 5ms before next update...")
}

func TestWatcherAbsorbsFailedRuns(t *testing.T) {
	ag := &countingAgent{name: "analyst", fail: true}

	var buf bytes.Buffer
	w := New(newTeam(t, ag), "ICICIBANK.NS", func(o *Options) {
		o.Interval = 5 * time.Millisecond
		o.Console = console.New(&buf)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// The loop must keep polling through consecutive failures.
	require.Eventually(t, func() bool { return ag.turns.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}

	assert.Contains(t, buf.String(), "!! run failed:")
}

func TestWatcherStopsPromptlyDuringSleep(t *testing.T) {
	ag := &countingAgent{name: "analyst"}

	w := New(newTeam(t, ag), "ICICIBANK.NS", func(o *Options) {
		o.Interval = time.Hour
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return ag.turns.Load() >= 1 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher kept sleeping after cancellation")
	}

	assert.EqualValues(t, 1, ag.turns.Load())
}

func TestWatcherTaskNamesSubject(t *testing.T) {
	var seenTask string
	probe := &taskProbe{onTurn: func(turnCtx *core.TurnContext) { seenTask = turnCtx.Task }}

	w := New(newTeam(t, probe), "HDFCBANK.NS", func(o *Options) {
		o.Interval = time.Hour
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return probe.turns.Load() >= 1 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t,
		"Analyze trends, real-time prices, and latest news for HDFCBANK.NS. Then make an investment decision.",
		seenTask)
}

type taskProbe struct {
	turns  atomic.Int64
	onTurn func(turnCtx *core.TurnContext)
}

func (p *taskProbe) Name() string { return "probe" }

func (p *taskProbe) Description() string { return "probe" }

func (p *taskProbe) TakeTurn(turnCtx *core.TurnContext) (core.Message, error) {
	p.onTurn(turnCtx)
	p.turns.Add(1)
	return core.NewMessage("probe", "Decision Made.", turnCtx.TurnIndex), nil
}
