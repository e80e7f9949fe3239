package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/buffer"
	"github.com/spetersoncode/fresco/engine"
)

// recorder collects callback invocations; callbacks fire on the feed
// goroutine during Connect, so access is locked.
type recorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, fmt.Sprintf(format, args...))
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

func feed(t *testing.T, c *Client, payloads ...string) {
	t.Helper()
	for _, p := range payloads {
		require.NoError(t, c.FeedRaw([]byte(p)))
	}
}

func TestTextStreamingCallbacks(t *testing.T) {
	rec := &recorder{}
	c := New(Config{
		OnTextStart:    func(id, role string) { rec.add("start %s %s", id, role) },
		OnTextChunk:    func(id, content, delta string) { rec.add("chunk %s %q %q", id, content, delta) },
		OnTextComplete: func(id, content string) { rec.add("complete %s %q", id, content) },
	})

	feed(t, c,
		`{"type":"TEXT_MESSAGE_START","messageId":"m1","role":"assistant"}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"Hel"}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"lo"}`,
		`{"type":"TEXT_MESSAGE_END","messageId":"m1"}`,
	)

	assert.Equal(t, []string{
		"start m1 assistant",
		`chunk m1 "Hel" "Hel"`,
		`chunk m1 "Hello" "lo"`,
		`complete m1 "Hello"`,
	}, rec.all())
}

func TestToolCallStreamingCallbacks(t *testing.T) {
	rec := &recorder{}
	var final buffer.ToolCall
	c := New(Config{
		OnToolStart:  func(msgID, callID, name string) { rec.add("start %s %s %s", msgID, callID, name) },
		OnToolArgs:   func(msgID, callID, args, delta string) { rec.add("args %s %s %s", msgID, callID, args) },
		OnToolResult: func(msgID, callID, result string) { rec.add("result %s %s %s", msgID, callID, result) },
		OnToolEnd: func(msgID, callID string, call buffer.ToolCall) {
			rec.add("end %s %s", msgID, callID)
			final = call
		},
	})

	feed(t, c,
		`{"type":"TOOL_CALL_START","toolCallId":"c1","toolCallName":"search","parentMessageId":"m1"}`,
		`{"type":"TOOL_CALL_ARGS","toolCallId":"c1","delta":"{\"q\":"}`,
		`{"type":"TOOL_CALL_ARGS","toolCallId":"c1","delta":"\"go\"}"}`,
		`{"type":"TOOL_CALL_RESULT","messageId":"m1","toolCallId":"c1","content":"3 hits"}`,
		`{"type":"TOOL_CALL_END","toolCallId":"c1"}`,
	)

	assert.Equal(t, []string{
		"start m1 c1 search",
		`args m1 c1 {"q":`,
		`args m1 c1 {"q":"go"}`,
		"result m1 c1 3 hits",
		"end m1 c1",
	}, rec.all())
	assert.Equal(t, "search", final.Name)
	assert.Equal(t, `{"q":"go"}`, final.Args)
	assert.Equal(t, "3 hits", final.Result)
	assert.Equal(t, buffer.StatusDone, final.Status)
}

func TestStateSnapshot(t *testing.T) {
	var got map[string]any
	c := New(Config{OnStateChange: func(state map[string]any) { got = state }})

	feed(t, c, `{"type":"STATE_SNAPSHOT","snapshot":{"user":{"name":"Ada"}}}`)

	want := map[string]any{"user": map[string]any{"name": "Ada"}}
	assert.Equal(t, want, got)
	assert.Equal(t, want, c.State())
}

func TestStateDeltaAppliesPatch(t *testing.T) {
	c := New(Config{})

	feed(t, c,
		`{"type":"STATE_SNAPSHOT","snapshot":{"count":1}}`,
		`{"type":"STATE_DELTA","delta":[{"op":"replace","path":"/count","value":2},{"op":"add","path":"/items","value":["a"]}]}`,
	)

	assert.Equal(t, map[string]any{
		"count": float64(2),
		"items": []any{"a"},
	}, c.State())
}

func TestStateDeltaReportsFailedOps(t *testing.T) {
	var errs []string
	c := New(Config{OnError: func(err error, context string) {
		errs = append(errs, context+": "+err.Error())
	}})

	feed(t, c,
		`{"type":"STATE_SNAPSHOT","snapshot":{"count":1}}`,
		`{"type":"STATE_DELTA","delta":[{"op":"remove","path":"/missing"},{"op":"replace","path":"/count","value":2}]}`,
	)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "state: ")
	assert.Contains(t, errs[0], "/missing")

	// The failed op did not stop the rest of the delta.
	assert.Equal(t, float64(2), c.State()["count"])
}

func TestStateIsDeepCopied(t *testing.T) {
	c := New(Config{})
	feed(t, c, `{"type":"STATE_SNAPSHOT","snapshot":{"user":{"name":"Ada"}}}`)

	got := c.State()
	got["user"].(map[string]any)["name"] = "Eve"

	assert.Equal(t, "Ada", c.State()["user"].(map[string]any)["name"])
}

func TestMessagesSnapshot(t *testing.T) {
	c := New(Config{})

	feed(t, c, `{"type":"MESSAGES_SNAPSHOT","messages":[{"id":"m1","role":"user","content":"hi"},{"id":"m2","role":"assistant","content":"hello"}]}`)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, fresco.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[1].Content)

	// A later snapshot replaces the log instead of appending.
	feed(t, c, `{"type":"MESSAGES_SNAPSHOT","messages":[{"id":"m3","role":"user","content":"again"}]}`)
	msgs = c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "m3", msgs[0].ID)
}

func TestRunLifecycleCallbacks(t *testing.T) {
	rec := &recorder{}
	c := New(Config{
		OnRunStarted:  func(threadID, runID string) { rec.add("started %s %s", threadID, runID) },
		OnRunFinished: func(threadID, runID string) { rec.add("finished %s %s", threadID, runID) },
		OnRunError:    func(message, code string) { rec.add("error %s %s", message, code) },
	})

	feed(t, c,
		`{"type":"RUN_STARTED","threadId":"t1","runId":"r1"}`,
		`{"type":"RUN_ERROR","message":"model overloaded","code":"OVERLOADED"}`,
		`{"type":"RUN_FINISHED","threadId":"t1","runId":"r1"}`,
	)

	assert.Equal(t, []string{
		"started t1 r1",
		"error model overloaded OVERLOADED",
		"finished t1 r1",
	}, rec.all())
}

func TestSurfaceRenderFlow(t *testing.T) {
	rec := &recorder{}
	var last *engine.RenderNode
	c := New(Config{OnRenderTree: func(surfaceID string, tree *engine.RenderNode) {
		rec.add("render %s", surfaceID)
		last = tree
	}})

	feed(t, c, `{"type":"CUSTOM","name":"surfaceMessage","value":{"surfaceUpdate":{"components":[{"id":"root","component":{"Text":{"text":"hello"}}}]}}}`)
	assert.Empty(t, rec.all(), "no render before beginRendering")

	feed(t, c, `{"type":"CUSTOM","name":"surfaceMessage","value":{"beginRendering":{"root":"root"}}}`)

	require.NotEmpty(t, rec.all())
	assert.Equal(t, "render default", rec.all()[0])
	require.NotNil(t, last)
	assert.Equal(t, "Text", last.Type)
	assert.Equal(t, "hello", last.Props["text"])

	assert.Equal(t, last, c.RenderTree(""))
}

func TestSurfaceDataModelBinding(t *testing.T) {
	var last *engine.RenderNode
	c := New(Config{OnRenderTree: func(_ string, tree *engine.RenderNode) { last = tree }})

	feed(t, c,
		`{"type":"CUSTOM","name":"surfaceMessage","value":{"surfaceUpdate":{"components":[{"id":"root","component":{"Text":{"text":{"path":"/title"}}}}]}}}`,
		`{"type":"CUSTOM","name":"surfaceMessage","value":{"dataModelUpdate":{"contents":[{"key":"title","valueString":"First"}]}}}`,
		`{"type":"CUSTOM","name":"surfaceMessage","value":{"beginRendering":{"root":"root"}}}`,
	)
	require.NotNil(t, last)
	assert.Equal(t, "First", last.Props["text"])

	// A data change while rendering rebuilds the tree.
	feed(t, c, `{"type":"CUSTOM","name":"surfaceMessage","value":{"dataModelUpdate":{"contents":[{"key":"title","valueString":"Second"}]}}}`)
	require.NotNil(t, last)
	assert.Equal(t, "Second", last.Props["text"])
}

func TestSurfaceDeletedCallback(t *testing.T) {
	var deleted []string
	c := New(Config{OnSurfaceDeleted: func(id string) { deleted = append(deleted, id) }})

	feed(t, c,
		`{"type":"CUSTOM","name":"surfaceMessage","value":{"surfaceUpdate":{"components":[{"id":"root","component":{"Text":{"text":"x"}}}]}}}`,
		`{"type":"CUSTOM","name":"surfaceMessage","value":{"deleteSurface":{}}}`,
	)

	assert.Equal(t, []string{"default"}, deleted)
	assert.False(t, c.Engine().HasSurface("default"))
}

func TestFeedRawParseError(t *testing.T) {
	c := New(Config{})

	err := c.FeedRaw([]byte(`{"type":"NOPE"}`))
	require.Error(t, err)
	assert.True(t, fresco.IsParse(err))

	err = c.FeedRaw([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, fresco.IsParse(err))
}

func TestFeedNilIsIgnored(t *testing.T) {
	c := New(Config{})
	assert.NotPanics(t, func() { c.Feed(nil) })
}

func TestRouterExtension(t *testing.T) {
	c := New(Config{})

	var steps []string
	c.Router().On(fresco.EventTypeStepStarted, func(ev fresco.Event) error {
		if e, ok := ev.(*fresco.StepStartedEvent); ok {
			steps = append(steps, e.StepName)
		}
		return nil
	})

	feed(t, c, `{"type":"STEP_STARTED","stepName":"plan"}`)
	assert.Equal(t, []string{"plan"}, steps)
}

func TestReset(t *testing.T) {
	c := New(Config{})

	feed(t, c,
		`{"type":"STATE_SNAPSHOT","snapshot":{"count":1}}`,
		`{"type":"MESSAGES_SNAPSHOT","messages":[{"id":"m1","role":"user","content":"hi"}]}`,
		`{"type":"CUSTOM","name":"surfaceMessage","value":{"surfaceUpdate":{"components":[{"id":"root","component":{"Text":{"text":"x"}}}]}}}`,
		`{"type":"CUSTOM","name":"surfaceMessage","value":{"beginRendering":{"root":"root"}}}`,
	)
	require.NotNil(t, c.RenderTree(""))

	c.Reset()

	assert.Empty(t, c.State())
	assert.Empty(t, c.Messages())
	assert.Nil(t, c.RenderTree(""))
	assert.False(t, c.Engine().HasSurface("default"))
}

func TestConnectStreamsEvents(t *testing.T) {
	payloads := []string{
		`{"type":"RUN_STARTED","threadId":"t1","runId":"r1"}`,
		`{"type":"TEXT_MESSAGE_START","messageId":"m1","role":"assistant"}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"hi"}`,
		`{"type":"TEXT_MESSAGE_END","messageId":"m1"}`,
		`{"type":"RUN_FINISHED","threadId":"t1","runId":"r1"}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(Config{
		Endpoint:       srv.URL,
		OnRunStarted:   func(threadID, runID string) { rec.add("started %s", runID) },
		OnTextComplete: func(id, content string) { rec.add("complete %s %s", id, content) },
		OnRunFinished:  func(threadID, runID string) { rec.add("finished %s", runID) },
	})
	require.NoError(t, c.Connect(context.Background()))

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream end")
	}

	assert.Equal(t, []string{"started r1", "complete m1 hi", "finished r1"}, rec.all())
}

func TestConnectSendsConfiguredRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer srv.Close()

	c := New(Config{
		Endpoint: srv.URL,
		Body:     []byte(`{"input":"hi"}`),
		Header:   map[string]string{"Authorization": "Bearer token"},
	})
	require.NoError(t, c.Connect(context.Background()))

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream end")
	}
}

func TestConnectRequiresEndpoint(t *testing.T) {
	c := New(Config{})

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, fresco.IsContract(err))
}

func TestConnectTwice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL})
	require.NoError(t, c.Connect(context.Background()))

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already connected")

	c.Close()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func TestConnectAfterClose(t *testing.T) {
	c := New(Config{Endpoint: "http://example.invalid"})
	c.Close()

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
