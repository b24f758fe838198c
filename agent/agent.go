// Package agent implements the model-backed conversational participant. A
// ChatAgent is bound to a language-model backend, a fixed instruction and an
// optional set of tools; it produces exactly one transcript message per turn,
// executing any tool calls the backend requests along the way.
package agent

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/logging"
	"github.com/hupe1980/stockmesh/model"
	"github.com/hupe1980/stockmesh/tool"
)

// ChatAgentOptions configures a ChatAgent instance. Use functional options
// with NewChatAgent to override defaults.
type ChatAgentOptions struct {
	Instruction string
	Description string
	Tools       []tool.Tool

	// MaxToolRounds bounds backend round-trips within one turn so a
	// misbehaving backend cannot loop on tool calls forever.
	MaxToolRounds int

	Logger logging.Logger
}

// ChatAgent integrates with a language model to take conversation turns.
// Created once at process start and reused across every run; all per-run
// state lives in the transcript it is handed.
type ChatAgent struct {
	name          string
	description   string
	llm           model.Model
	instruction   string
	tools         map[string]tool.Tool
	toolOrder     []string
	maxToolRounds int
	logger        logging.Logger
}

// NewChatAgent creates a model-backed agent with sensible defaults.
func NewChatAgent(name string, llm model.Model, optFns ...func(o *ChatAgentOptions)) *ChatAgent {
	opts := ChatAgentOptions{
		Instruction:   fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		Description:   fmt.Sprintf("Agent %s", name),
		MaxToolRounds: 8,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ChatAgent{
		name:          name,
		description:   opts.Description,
		llm:           llm,
		instruction:   opts.Instruction,
		tools:         make(map[string]tool.Tool),
		maxToolRounds: opts.MaxToolRounds,
		logger:        opts.Logger,
	}

	for _, t := range opts.Tools {
		a.RegisterTool(t)
	}

	return a
}

// Name implements core.Agent.
func (a *ChatAgent) Name() string { return a.name }

// Description implements core.Agent.
func (a *ChatAgent) Description() string { return a.description }

// RegisterTool adds a tool to the agent's bound set. Registration order is
// preserved so tool descriptors are deterministic across runs.
func (a *ChatAgent) RegisterTool(t tool.Tool) {
	if _, exists := a.tools[t.Name()]; !exists {
		a.toolOrder = append(a.toolOrder, t.Name())
	}
	a.tools[t.Name()] = t
}

// ToolNames returns the names of all bound tools in registration order.
func (a *ChatAgent) ToolNames() []string {
	out := make([]string, len(a.toolOrder))
	copy(out, a.toolOrder)
	return out
}

// TakeTurn implements core.Agent. The backend is invoked with the agent's
// instruction, the seed task, the full transcript and descriptors for the
// bound tools. Requested tool calls are executed sequentially and their
// results fed back until the backend produces a plain text reply.
func (a *ChatAgent) TakeTurn(turnCtx *core.TurnContext) (core.Message, error) {
	messages := a.buildHistory(turnCtx)

	for round := 0; round < a.maxToolRounds; round++ {
		resp, err := a.llm.Generate(turnCtx.Context, model.Request{
			Instructions: a.instruction,
			Messages:     messages,
			Tools:        a.toolDefinitions(),
		})
		if err != nil {
			return core.Message{}, fmt.Errorf("agent %s turn %d: %w", a.name, turnCtx.TurnIndex, err)
		}

		if len(resp.ToolCalls) == 0 {
			if resp.Text == "" {
				return core.Message{}, fmt.Errorf("agent %s turn %d: backend returned empty reply: %w",
					a.name, turnCtx.TurnIndex, core.ErrBackendUnavailable)
			}
			return core.NewMessage(a.name, resp.Text, turnCtx.TurnIndex), nil
		}

		messages = append(messages, model.ChatMessage{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result, err := a.executeTool(turnCtx, call)
			if err != nil {
				return core.Message{}, fmt.Errorf("agent %s turn %d: %w", a.name, turnCtx.TurnIndex, err)
			}

			messages = append(messages, model.ChatMessage{
				Role: model.RoleTool,
				ToolResponse: &model.ToolResponse{
					ID:     call.ID,
					Name:   call.Name,
					Result: result,
				},
			})
		}
	}

	return core.Message{}, fmt.Errorf("agent %s turn %d: tool round limit (%d) exceeded",
		a.name, turnCtx.TurnIndex, a.maxToolRounds)
}

// executeTool dispatches one requested call through the bound tool table.
// Names outside the bound set are an error, never interpreted as code.
func (a *ChatAgent) executeTool(turnCtx *core.TurnContext, call model.ToolCall) (string, error) {
	impl, ok := a.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("tool %s not bound to agent %s", call.Name, a.name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("unmarshal args for tool %s: %w", call.Name, err)
		}
	}

	result, err := impl.Call(turnCtx, args)
	if err != nil {
		return "", err
	}

	a.logger.Info("agent.tool.executed", "agent", a.name, "tool", call.Name, "turn", turnCtx.TurnIndex)

	turnCtx.NotifyToolStep(core.ToolStep{
		Agent:     a.name,
		Tool:      call.Name,
		Input:     call.Arguments,
		Result:    result,
		TurnIndex: turnCtx.TurnIndex,
	})

	return result, nil
}

// buildHistory converts the seed task and transcript snapshot into the
// normalized chat history. The agent's own prior messages become assistant
// entries; every other participant's messages arrive as labeled user entries.
func (a *ChatAgent) buildHistory(turnCtx *core.TurnContext) []model.ChatMessage {
	messages := make([]model.ChatMessage, 0, len(turnCtx.Transcript)+1)

	if turnCtx.Task != "" {
		messages = append(messages, model.ChatMessage{Role: model.RoleUser, Text: turnCtx.Task})
	}

	for _, msg := range turnCtx.Transcript {
		if msg.Sender == a.name {
			messages = append(messages, model.ChatMessage{Role: model.RoleAssistant, Text: msg.Content})
			continue
		}
		messages = append(messages, model.ChatMessage{
			Role: model.RoleUser,
			Text: fmt.Sprintf("%s: %s", msg.Sender, msg.Content),
		})
	}

	return messages
}

// toolDefinitions builds descriptors for the bound tools in registration order.
func (a *ChatAgent) toolDefinitions() []model.ToolDefinition {
	if len(a.toolOrder) == 0 {
		return nil
	}

	defs := make([]model.ToolDefinition, 0, len(a.toolOrder))
	for _, name := range a.toolOrder {
		t := a.tools[name]
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	return defs
}
