package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage("analyst", "looks bullish", 3)

	assert.NotEmpty(t, msg.ID)
	assert.Len(t, msg.ID, 36) // UUID length
	assert.Equal(t, "analyst", msg.Sender)
	assert.Equal(t, "looks bullish", msg.Content)
	assert.Equal(t, 3, msg.TurnIndex)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestTranscriptAppendDoesNotMutateReceiver(t *testing.T) {
	base := Transcript{}.
		Append(NewMessage("a", "first", 0)).
		Append(NewMessage("b", "second", 1))

	snapshot := base

	grown := base.Append(NewMessage("c", "third", 2))

	require.Len(t, grown, 3)
	assert.Len(t, snapshot, 2)
	assert.Equal(t, "second", snapshot[1].Content)

	// Two divergent appends from the same snapshot must not clobber each other.
	other := base.Append(NewMessage("d", "fourth", 2))
	assert.Equal(t, "third", grown[2].Content)
	assert.Equal(t, "fourth", other[2].Content)
}

func TestTranscriptContains(t *testing.T) {
	tr := Transcript{}.
		Append(NewMessage("a", "still gathering data", 0)).
		Append(NewMessage("b", "Decision Made: hold", 1))

	assert.True(t, tr.Contains("Decision Made"))
	assert.True(t, tr.Contains("gathering"))
	assert.False(t, tr.Contains("sell everything"))
	assert.False(t, Transcript{}.Contains("anything"))
}

func TestTranscriptLast(t *testing.T) {
	_, ok := Transcript{}.Last()
	assert.False(t, ok)

	tr := Transcript{}.
		Append(NewMessage("a", "first", 0)).
		Append(NewMessage("b", "second", 1))

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Sender)
	assert.Equal(t, "second", last.Content)
}

func TestTurnContextDefaults(t *testing.T) {
	tc := NewTurnContext(context.Background(), "run-1", "ICICIBANK.NS", "analyze", 0, Transcript{}, nil, nil)

	assert.NotNil(t, tc.Logger())
	assert.NoError(t, tc.Err())

	// A nil observer is silently ignored.
	tc.NotifyToolStep(ToolStep{Agent: "a", Tool: "t"})
}

func TestTurnContextNotifiesObserver(t *testing.T) {
	var seen []ToolStep
	observer := ToolObserverFunc(func(step ToolStep) { seen = append(seen, step) })

	tc := NewTurnContext(context.Background(), "run-1", "ICICIBANK.NS", "analyze", 2, Transcript{}, observer, nil)

	tc.NotifyToolStep(ToolStep{Agent: "analyst", Tool: "realtime_stock_price", TurnIndex: 2})

	require.Len(t, seen, 1)
	assert.Equal(t, "analyst", seen[0].Agent)
	assert.Equal(t, 2, seen[0].TurnIndex)
}

func TestTurnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tc := NewTurnContext(ctx, "run-1", "ICICIBANK.NS", "analyze", 0, Transcript{}, nil, nil)

	assert.NoError(t, tc.Err())
	cancel()
	assert.Error(t, tc.Err())

	select {
	case <-tc.Done():
	default:
		t.Fatal("Done channel should be closed after cancel")
	}
}
