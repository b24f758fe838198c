// Package tool implements the function calling subsystem that lets agents
// pull in external market data mid-conversation. Every tool follows the data
// adapter contract: given a subject it returns plain text, and "no data" is
// reported as a human-readable sentinel string rather than an error so the
// conversation can proceed without special-casing tool failure.
package tool

import (
	"fmt"

	"github.com/hupe1980/stockmesh/core"
)

// Tool defines the interface for extending agent capabilities with external
// data functions. Implementations must be stateless and safe for repeated
// and concurrent use across subjects.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns the natural language description given to models
	// so they understand when to call the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool. Transport failures are returned as errors
	// wrapping core.ErrBackendUnavailable and abort the calling turn;
	// missing data is returned as sentinel text with a nil error.
	Call(turnCtx *core.TurnContext, args map[string]any) (string, error)
}

// ToolError represents a failure during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
