package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/stockmesh/core"
)

func TestConsoleMessage(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.Message(core.Message{Sender: "trend_agent", Content: "Trend is up.", TurnIndex: 2})

	out := buf.String()
	assert.Contains(t, out, "---------- 2. trend_agent ----------")
	assert.Contains(t, out, "Trend is up.")
}

func TestConsoleCycle(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	at := time.Date(2024, 8, 28, 10, 30, 0, 0, time.UTC)
	c.Cycle(3, "ICICIBANK.NS", at)

	out := buf.String()
	assert.Contains(t, out, "[10:30:00] cycle 3: analyzing ICICIBANK.NS")
}

func TestConsoleOnToolStep(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.OnToolStep(core.ToolStep{
		Agent:  "price_agent",
		Tool:   "realtime_stock_price",
		Result: "As of now the price is 1402.46 INR.",
	})

	out := buf.String()
	assert.Contains(t, out, "[tool] price_agent -> realtime_stock_price:")
	assert.Contains(t, out, "1402.46 INR")
}

func TestConsoleToolStepPreviewTruncatesAndFlattens(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	long := strings.Repeat("n", 200) + "\ntail"
	c.OnToolStep(core.ToolStep{Agent: "a", Tool: "t", Result: long})

	out := buf.String()
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, strings.Repeat("n", 200))
	// Newlines in tool output must not break the single-line rendering.
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestConsoleToolStepPreviewKeepsRuneBoundaries(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	// A three-byte rune straddles the preview cut.
	long := strings.Repeat("x", toolResultPreview-1) + "₹1402 and trailing text past the cut"
	c.OnToolStep(core.ToolStep{Agent: "a", Tool: "t", Result: long})

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "₹", "the straddling rune must be dropped whole, not torn")
}

func TestConsoleRunFailed(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.RunFailed(errors.New("backend unavailable"))

	assert.Contains(t, buf.String(), "!! run failed: backend unavailable")
}

func TestConsoleWaiting(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.Waiting(60 * time.Second)

	assert.Contains(t, buf.String(), "waiting 1m0s before next update...")
}

func TestConsoleNilWriterDefaultsToStdout(t *testing.T) {
	assert.NotNil(t, New(nil))
}
