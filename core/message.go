package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one agent's contribution to a conversation. After construction
// it must be treated as immutable; transcripts only ever append.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	TurnIndex int       `json:"turn_index"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage constructs a message authored by sender for the given turn.
func NewMessage(sender, content string, turnIndex int) Message {
	return Message{
		ID:        NewID(),
		Sender:    sender,
		Content:   content,
		TurnIndex: turnIndex,
		Timestamp: time.Now().UTC(),
	}
}

// Transcript is the ordered sequence of messages produced so far in one run.
// Insertion order is semantically significant: it is the shared context every
// subsequent agent reads.
type Transcript []Message

// Append returns a new transcript with msg added. The receiver is never
// mutated, so snapshots handed to agents stay stable while the run grows.
func (t Transcript) Append(msg Message) Transcript {
	out := make(Transcript, len(t), len(t)+1)
	copy(out, t)
	return append(out, msg)
}

// Contains reports whether any message content contains the marker phrase.
func (t Transcript) Contains(marker string) bool {
	for _, m := range t {
		if strings.Contains(m.Content, marker) {
			return true
		}
	}
	return false
}

// Last returns the most recent message and true, or a zero message and false
// for an empty transcript.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// NewID generates a unique identifier for messages and tool steps.
func NewID() string { return uuid.NewString() }
