package core

// Agent is a named conversational participant. Implementations produce exactly
// one message per turn, optionally after calling tools, and must respect
// cancellation of the turn context. Agents are created once at process start
// and reused across every run; all per-run state lives in the transcript.
type Agent interface {
	// Name returns the identifier unique within a team.
	Name() string

	// Description returns a short human-readable purpose statement.
	Description() string

	// TakeTurn produces the agent's next message given the conversation so
	// far. A backend failure is returned as an error wrapping
	// ErrBackendUnavailable; the agent never fabricates a reply.
	TakeTurn(turnCtx *TurnContext) (Message, error)
}

// ToolStep records a single tool invocation made during an agent turn. It is
// ephemeral: folded into the turn's resulting message and surfaced only to
// observers for rendering.
type ToolStep struct {
	Agent     string `json:"agent"`
	Tool      string `json:"tool"`
	Input     string `json:"input"`
	Result    string `json:"result"`
	TurnIndex int    `json:"turn_index"`
}

// ToolObserver receives tool steps as they complete so a console or log sink
// can render sub-turn progress live.
type ToolObserver interface {
	OnToolStep(step ToolStep)
}

// ToolObserverFunc adapts a plain function to the ToolObserver interface.
type ToolObserverFunc func(step ToolStep)

// OnToolStep implements ToolObserver.
func (f ToolObserverFunc) OnToolStep(step ToolStep) { f(step) }
