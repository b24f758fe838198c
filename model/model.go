// Package model defines the normalized language-model boundary used by
// agents. Provider adapters (openai, anthropic) translate Request/Response
// into their vendor SDK calls; agents never see provider types. The package
// also ships a scripted in-memory model for deterministic tests.
package model

import (
	"context"
	"fmt"
	"sync"
)

// Role values carried by chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a function call request surfaced by a model provider,
// unified across vendors so downstream logic needs no per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON payload of arguments
}

// ToolResponse carries the textual outcome of a previously requested call.
type ToolResponse struct {
	ID     string `json:"id"` // matches the originating ToolCall ID
	Name   string `json:"name"`
	Result string `json:"result"`
}

// ChatMessage is one entry of the provider-agnostic conversation given to a
// model. Exactly one of Text, ToolCalls or ToolResponse is meaningful for a
// given role: assistant entries may carry ToolCalls, tool entries carry a
// ToolResponse, everything else carries Text.
type ChatMessage struct {
	Role         string        `json:"role"`
	Text         string        `json:"text,omitempty"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	ToolResponse *ToolResponse `json:"tool_response,omitempty"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by an agent turn.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []ChatMessage    `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Response is the completed model output for one request. Either Text is the
// final reply, or ToolCalls lists the functions the model elected to invoke
// before it can answer.
type Response struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Generate
// blocks until the provider returns a completed response and must honor ctx
// cancellation at the transport level.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptedModel is a deterministic in-memory Model for tests. Responses are
// consumed in FIFO order; an exhausted script yields an error so tests fail
// loudly instead of looping. It records every request it receives.
type ScriptedModel struct {
	mu       sync.Mutex
	info     Info
	script   []scriptStep
	requests []Request
}

type scriptStep struct {
	resp Response
	err  error
}

// NewScriptedModel constructs an empty scripted model.
func NewScriptedModel(name string) *ScriptedModel {
	return &ScriptedModel{
		info: Info{Name: name, Provider: "scripted", SupportsTools: true},
	}
}

// Reply queues a plain text completion.
func (m *ScriptedModel) Reply(text string) *ScriptedModel {
	return m.push(scriptStep{resp: Response{Text: text, FinishReason: "stop"}})
}

// ReplyWith queues an arbitrary response, e.g. one carrying tool calls.
func (m *ScriptedModel) ReplyWith(resp Response) *ScriptedModel {
	return m.push(scriptStep{resp: resp})
}

// Fail queues an error, simulating an unreachable or erroring backend.
func (m *ScriptedModel) Fail(err error) *ScriptedModel {
	return m.push(scriptStep{err: err})
}

func (m *ScriptedModel) push(step scriptStep) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, step)
	return m
}

// Generate implements Model by consuming the next scripted step.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return nil, fmt.Errorf("scripted model %s: script exhausted after %d requests", m.info.Name, len(m.requests))
	}

	step := m.script[0]
	m.script = m.script[1:]

	if step.err != nil {
		return nil, step.err
	}

	resp := step.resp
	return &resp, nil
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// Requests returns a copy of all requests seen so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}
