// Package openai implements model.Model on the OpenAI Chat Completions API,
// including Azure OpenAI deployments and function/tool calling. It adapts
// stockmesh's normalized Request/Response structures into the SDK's message
// format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"

	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/model"
)

// Options configure the OpenAI model adapter. Fields mirror a minimal subset
// of Chat Completion parameters; extend via functional options without
// breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind model.Model.
type Model struct {
	client   *openai.Client
	provider string
	opts     Options
}

// NewModel creates a model using the default client (OPENAI_API_KEY from the
// environment).
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, "openai", optFns...)
}

// NewAzureModel creates a model targeting an Azure OpenAI deployment. The
// deployment name doubles as the model identifier, per Azure convention.
func NewAzureModel(endpoint, apiVersion, apiKey, deployment string, optFns ...func(o *Options)) *Model {
	client := openai.NewClient(
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
	)

	fns := append([]func(o *Options){func(o *Options) { o.Model = deployment }}, optFns...)

	return NewModelFromClient(&client, "azure-openai", fns...)
}

// NewModelFromClient creates a model from an existing client, e.g. one with
// custom request options.
func NewModelFromClient(client *openai.Client, provider string, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4o,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, provider: provider, opts: opts}
}

// Generate implements model.Model. Transport or API failures are wrapped with
// core.ErrBackendUnavailable so the turn they abort is reported as a backend
// outage rather than an internal fault.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w: %w", core.ErrBackendUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned: %w", core.ErrBackendUnavailable)
	}

	choice := resp.Choices[0]

	out := &model.Response{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}

	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return out, nil
}

// buildParams assembles the Chat Completion parameters including tool
// definitions and the full normalized message history.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, msg := range req.Messages {
		messages = append(messages, buildMessage(msg)...)
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// buildMessage converts one normalized chat message into SDK message params.
func buildMessage(msg model.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	switch msg.Role {
	case model.RoleSystem:
		return []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(msg.Text)}
	case model.RoleAssistant:
		if len(msg.ToolCalls) == 0 {
			return []openai.ChatCompletionMessageParamUnion{openai.AssistantMessage(msg.Text)}
		}

		toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
				ID:   tc.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			}
		}

		return []openai.ChatCompletionMessageParamUnion{{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			},
		}}
	case model.RoleTool:
		if msg.ToolResponse == nil {
			return nil
		}
		return []openai.ChatCompletionMessageParamUnion{
			openai.ToolMessage(msg.ToolResponse.Result, msg.ToolResponse.ID),
		}
	default:
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(msg.Text)}
	}
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      m.provider,
		SupportsTools: true,
	}
}
