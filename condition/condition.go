// Package condition implements composable termination predicates over a
// conversation transcript. Conditions are stateless: every evaluation
// re-derives its answer from the transcript alone, which makes all built-in
// conditions monotonic on an append-only transcript (once true, never false
// again within the same run).
package condition

import (
	"fmt"
	"strings"

	"github.com/hupe1980/stockmesh/core"
)

// Condition decides when a running conversation must stop. Implementations
// must be side-effect free; the scheduler evaluates the condition after every
// appended message, never mid-turn.
type Condition interface {
	// ShouldStop reports whether the conversation should terminate given the
	// transcript produced so far.
	ShouldStop(transcript core.Transcript) bool

	// String describes the condition for logging and stop-reason reporting.
	String() string
}

// textMention fires when any message content contains a fixed marker phrase.
type textMention struct {
	marker string
}

// TextMention returns a condition that fires as soon as any message in the
// transcript contains the marker phrase.
func TextMention(marker string) Condition {
	return &textMention{marker: marker}
}

func (c *textMention) ShouldStop(transcript core.Transcript) bool {
	return transcript.Contains(c.marker)
}

func (c *textMention) String() string {
	return fmt.Sprintf("mention(%q)", c.marker)
}

// maxMessages fires once the transcript holds at least n messages.
type maxMessages struct {
	n int
}

// MaxMessages returns a condition that fires once the transcript length
// reaches n. It counts top-level agent messages only; tool exchanges inside a
// turn are not transcript messages.
func MaxMessages(n int) Condition {
	return &maxMessages{n: n}
}

func (c *maxMessages) ShouldStop(transcript core.Transcript) bool {
	return len(transcript) >= c.n
}

func (c *maxMessages) String() string {
	return fmt.Sprintf("max_messages(%d)", c.n)
}

// anyOf is the logical OR over child conditions.
type anyOf struct {
	children []Condition
}

// Or combines conditions so the conversation stops as soon as any child
// fires. This is the combinator used by the default policy
// (terminal phrase OR safety cap).
func Or(children ...Condition) Condition {
	return &anyOf{children: children}
}

func (c *anyOf) ShouldStop(transcript core.Transcript) bool {
	for _, child := range c.children {
		if child.ShouldStop(transcript) {
			return true
		}
	}
	return false
}

func (c *anyOf) String() string { return describe("or", c.children) }

// allOf is the logical AND over child conditions.
type allOf struct {
	children []Condition
}

// And combines conditions so the conversation stops only when every child
// fires. With zero children it stops immediately, matching the identity of
// logical AND.
func And(children ...Condition) Condition {
	return &allOf{children: children}
}

func (c *allOf) ShouldStop(transcript core.Transcript) bool {
	for _, child := range c.children {
		if !child.ShouldStop(transcript) {
			return false
		}
	}
	return true
}

func (c *allOf) String() string { return describe("and", c.children) }

func describe(op string, children []Condition) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = child.String()
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(parts, ", "))
}
