package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/stockmesh/core"
)

// Fetcher is the uniform data adapter signature: fetch a named piece of
// external information for a subject and return it as plain text. A fetcher
// must return a sentinel string (nil error) when no data exists for the
// subject; errors are reserved for unreachable or misbehaving backends.
type Fetcher func(ctx context.Context, subject string) (string, error)

// FetchTool adapts a Fetcher to the Tool interface with a fixed single
// "symbol" argument. When the model omits the argument the turn's subject is
// used, so a terse backend still fetches data for the right instrument.
type FetchTool struct {
	name        string
	description string
	fetch       Fetcher
}

// NewFetchTool constructs a FetchTool. name should be snake_case; the
// description is shown verbatim to models.
func NewFetchTool(name, description string, fetch Fetcher) *FetchTool {
	return &FetchTool{name: name, description: description, fetch: fetch}
}

// Name returns the unique tool name used in function call declarations.
func (t *FetchTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FetchTool) Description() string { return t.description }

// Parameters returns the JSON schema for the single symbol argument.
func (t *FetchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol": map[string]any{
				"type":        "string",
				"description": "Instrument symbol to fetch data for",
			},
		},
		"required": []string{"symbol"},
	}
}

// Call resolves the subject argument and invokes the fetcher.
func (t *FetchTool) Call(turnCtx *core.TurnContext, args map[string]any) (string, error) {
	subject := turnCtx.Subject
	if raw, ok := args["symbol"]; ok {
		s, ok := raw.(string)
		if !ok {
			return "", NewToolError(t.name, fmt.Sprintf("symbol must be a string, got %T", raw), "VALIDATION_ERROR")
		}
		if s != "" {
			subject = s
		}
	}

	turnCtx.Logger().Debug("tool.fetch.start", "tool", t.name, "subject", subject)

	result, err := t.fetch(turnCtx.Context, subject)
	if err != nil {
		turnCtx.Logger().Error("tool.fetch.error", "tool", t.name, "subject", subject, "error", err.Error())
		return "", fmt.Errorf("tool %s: %w", t.name, err)
	}

	return result, nil
}
