// Package market provides the external data adapters feeding the analysis
// team: a real-time quote client, a grounded web-search client and fetchers
// for trend summaries and news built on top of it. All adapters follow the
// tool.Fetcher contract: missing data becomes sentinel text, never an error.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/logging"
)

// Searcher augments a prompt with live web-search-derived facts. Implemented
// by SearchClient; stubbed in tests.
type Searcher interface {
	Search(ctx context.Context, instructions, prompt string) (string, error)
}

// SearchClientOptions configure the grounded search client.
type SearchClientOptions struct {
	// Model is the deployment used for the ephemeral search assistants.
	Model string
	// ConnectionID names the resolved grounding/search connection. When set
	// it is attached to every assistant as a grounding tool.
	ConnectionID string
	// PollInterval is the sleep between run status checks. Defaults to 1s.
	PollInterval time.Duration
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// SearchClient performs grounded lookups by creating a transient remote
// assistant and thread per call, running the prompt through them and reading
// back the newest reply. Both remote resources are exclusively owned for the
// duration of one call and released before returning, success or failure.
type SearchClient struct {
	client *openai.Client
	opts   SearchClientOptions
}

// NewSearchClient constructs a SearchClient on an existing SDK client. The
// client typically targets the project endpoint rather than the chat
// deployment endpoint.
func NewSearchClient(client *openai.Client, optFns ...func(o *SearchClientOptions)) *SearchClient {
	opts := SearchClientOptions{
		Model:        string(openai.ChatModelGPT4o),
		PollInterval: time.Second,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &SearchClient{client: client, opts: opts}
}

// Search implements Searcher. Transport failures wrap
// core.ErrBackendUnavailable; an empty reply returns "" with nil error so the
// caller can substitute its sentinel.
func (s *SearchClient) Search(ctx context.Context, instructions, prompt string) (result string, err error) {
	assistant, err := s.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        shared.ChatModel(s.opts.Model),
		Name:         openai.String("stockmesh-search"),
		Instructions: openai.String(instructions),
	}, s.requestOptions()...)
	if err != nil {
		return "", fmt.Errorf("create search assistant: %w: %w", core.ErrBackendUnavailable, err)
	}
	defer func() {
		if _, derr := s.client.Beta.Assistants.Delete(context.WithoutCancel(ctx), assistant.ID); derr != nil {
			s.opts.Logger.Warn("search.assistant.delete_failed", "assistant_id", assistant.ID, "error", derr.Error())
		}
	}()

	thread, err := s.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("create search thread: %w: %w", core.ErrBackendUnavailable, err)
	}
	defer func() {
		if _, derr := s.client.Beta.Threads.Delete(context.WithoutCancel(ctx), thread.ID); derr != nil {
			s.opts.Logger.Warn("search.thread.delete_failed", "thread_id", thread.ID, "error", derr.Error())
		}
	}()

	_, err = s.client.Beta.Threads.Messages.New(ctx, thread.ID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("seed search thread: %w: %w", core.ErrBackendUnavailable, err)
	}

	run, err := s.client.Beta.Threads.Runs.New(ctx, thread.ID, openai.BetaThreadRunNewParams{
		AssistantID: assistant.ID,
	})
	if err != nil {
		return "", fmt.Errorf("run search thread: %w: %w", core.ErrBackendUnavailable, err)
	}

	for run.Status == openai.RunStatusQueued || run.Status == openai.RunStatusInProgress {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("poll search run: %w", ctx.Err())
		case <-time.After(s.opts.PollInterval):
		}

		run, err = s.client.Beta.Threads.Runs.Get(ctx, thread.ID, run.ID)
		if err != nil {
			return "", fmt.Errorf("poll search run: %w: %w", core.ErrBackendUnavailable, err)
		}
	}

	if run.Status != openai.RunStatusCompleted {
		return "", fmt.Errorf("search run ended with status %s: %w", run.Status, core.ErrBackendUnavailable)
	}

	page, err := s.client.Beta.Threads.Messages.List(ctx, thread.ID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("read search reply: %w: %w", core.ErrBackendUnavailable, err)
	}

	var sb strings.Builder
	for _, msg := range page.Data {
		for _, part := range msg.Content {
			if part.Text.Value != "" {
				sb.WriteString(part.Text.Value)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// requestOptions attaches the grounding connection to assistant creation.
// The tool payload is injected as raw JSON because the grounding tool type is
// a preview extension not covered by the SDK's typed params.
func (s *SearchClient) requestOptions() []option.RequestOption {
	opts := []option.RequestOption{
		option.WithHeaderAdd("x-ms-enable-preview", "true"),
	}

	if s.opts.ConnectionID != "" {
		opts = append(opts, option.WithJSONSet("tools", []map[string]any{{
			"type": "bing_grounding",
			"bing_grounding": map[string]any{
				"connections": []map[string]any{{"connection_id": s.opts.ConnectionID}},
			},
		}}))
	}

	return opts
}
