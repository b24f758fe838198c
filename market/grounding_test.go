package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stockmesh/core"
)

// searchBackend fakes the assistants surface: create assistant/thread, seed a
// message, poll a run to a final status, read the reply, delete everything.
type searchBackend struct {
	mu          sync.Mutex
	calls       []string
	polls       int
	finalStatus string
	answer      string
}

func (b *searchBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, r.Method+" "+r.URL.Path)
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/assistants":
			fmt.Fprint(w, `{"id":"asst_1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			fmt.Fprint(w, `{"id":"thread_1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/messages":
			fmt.Fprint(w, `{"id":"msg_1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/runs":
			fmt.Fprint(w, `{"id":"run_1","status":"queued"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/runs/run_1":
			b.mu.Lock()
			b.polls++
			status := "in_progress"
			if b.polls >= 2 {
				status = b.finalStatus
			}
			b.mu.Unlock()
			fmt.Fprintf(w, `{"id":"run_1","status":"%s"}`, status)
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/messages":
			fmt.Fprintf(w,
				`{"object":"list","data":[{"id":"msg_2","content":[{"type":"text","text":{"value":"%s","annotations":[]}}]}]}`,
				b.answer)
		case r.Method == http.MethodDelete && r.URL.Path == "/assistants/asst_1":
			fmt.Fprint(w, `{"id":"asst_1","deleted":true}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/threads/thread_1":
			fmt.Fprint(w, `{"id":"thread_1","deleted":true}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (b *searchBackend) pollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}

func (b *searchBackend) sawCall(call string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == call {
			return true
		}
	}
	return false
}

func newSearchClient(t *testing.T, backend *searchBackend) *SearchClient {
	t.Helper()
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	sdk := openai.NewClient(option.WithBaseURL(srv.URL+"/"), option.WithAPIKey("test"))
	return NewSearchClient(&sdk, func(o *SearchClientOptions) {
		o.Model = "gpt-4o"
		o.PollInterval = time.Millisecond
	})
}

func TestSearchClientPollsRunToCompletion(t *testing.T) {
	backend := &searchBackend{
		finalStatus: "completed",
		answer:      "ICICIBANK.NS trended upward this week.",
	}
	search := newSearchClient(t, backend)

	out, err := search.Search(context.Background(), "Summarize trends.", "Get trends for ICICIBANK.NS.")

	require.NoError(t, err)
	assert.Equal(t, "ICICIBANK.NS trended upward this week.", out)
	assert.GreaterOrEqual(t, backend.pollCount(), 2)
}

func TestSearchClientReleasesEphemeralResources(t *testing.T) {
	backend := &searchBackend{finalStatus: "completed", answer: "ok"}
	search := newSearchClient(t, backend)

	_, err := search.Search(context.Background(), "instructions", "prompt")
	require.NoError(t, err)

	assert.True(t, backend.sawCall("DELETE /assistants/asst_1"), "assistant not deleted")
	assert.True(t, backend.sawCall("DELETE /threads/thread_1"), "thread not deleted")
}

func TestSearchClientFailedRunIsBackendUnavailable(t *testing.T) {
	backend := &searchBackend{finalStatus: "failed", answer: "unused"}
	search := newSearchClient(t, backend)

	_, err := search.Search(context.Background(), "instructions", "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "failed")

	// Cleanup must run on the failure path too.
	assert.True(t, backend.sawCall("DELETE /assistants/asst_1"), "assistant not deleted")
	assert.True(t, backend.sawCall("DELETE /threads/thread_1"), "thread not deleted")
}

func TestSearchClientHonorsCancellationWhilePolling(t *testing.T) {
	backend := &searchBackend{finalStatus: "in_progress", answer: "unused"}
	search := newSearchClient(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := search.Search(ctx, "instructions", "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
