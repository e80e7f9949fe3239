package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/retry"
)

func fastRetry(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func recvFrame(t *testing.T, ch <-chan Frame) (Frame, bool) {
	t.Helper()
	select {
	case f, ok := <-ch:
		return f, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}, false
	}
}

func requireClosed(t *testing.T, ch <-chan Frame) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected closed channel")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

// errorRecorder collects reported errors behind a mutex, since the
// reader goroutine reports concurrently with test assertions.
type errorRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *errorRecorder) handler() fresco.ErrorHandler {
	return func(err error, _ string) {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	}
}

func (r *errorRecorder) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func TestStreamFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, ": heartbeat comment\n")
		io.WriteString(w, "event: message\n")
		io.WriteString(w, "data: {\"type\":\"RUN_STARTED\"}\n")
		io.WriteString(w, "\n")
		io.WriteString(w, "data: line one\n")
		io.WriteString(w, "data: line two\n")
		io.WriteString(w, "\n")
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(retry.Disabled()))
	require.NoError(t, s.Connect(context.Background()))

	first, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	assert.Equal(t, "message", first.Event)
	assert.Equal(t, `{"type":"RUN_STARTED"}`, first.Data)

	second, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	assert.Empty(t, second.Event)
	assert.Equal(t, "line one\nline two", second.Data)

	// Server finished; the channel closes without an error.
	requireClosed(t, s.Frames())
}

func TestFrameFieldParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "id: 42\n")
		io.WriteString(w, "event:tight\n")   // no space after colon
		io.WriteString(w, "data:  padded\n") // one space stripped, rest kept
		io.WriteString(w, "\n")
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(retry.Disabled()))
	require.NoError(t, s.Connect(context.Background()))

	f, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	assert.Equal(t, "42", f.ID)
	assert.Equal(t, "tight", f.Event)
	assert.Equal(t, " padded", f.Data)

	requireClosed(t, s.Frames())
}

func TestReconnectResumesWithLastEventID(t *testing.T) {
	var attempt atomic.Int32
	var resumeID atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempt.Add(1)
		if n == 1 {
			assert.Empty(t, r.Header.Get("Last-Event-ID"))
			// Declare more bytes than we send so the client sees the
			// stream cut mid-flight and reconnects.
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Content-Length", "4096")
			io.WriteString(w, "id: 1\ndata: first\n\n")
			return
		}
		resumeID.Store(r.Header.Get("Last-Event-ID"))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "id: 2\ndata: second\n\n")
	}))
	defer srv.Close()

	rec := &errorRecorder{}
	s := New(srv.URL, WithRetry(fastRetry(5)), WithErrorHandler(rec.handler()))
	require.NoError(t, s.Connect(context.Background()))

	first, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	assert.Equal(t, "first", first.Data)

	second, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	assert.Equal(t, "second", second.Data)

	requireClosed(t, s.Frames())

	assert.Equal(t, "1", resumeID.Load())
	require.NotEmpty(t, rec.all(), "the drop should have been reported")
	assert.ErrorContains(t, rec.all()[0], "reconnecting")
}

func TestConnectRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such agent", http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(fastRetry(5)))
	err := s.Connect(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, statusErr.Body, "no such agent")

	requireClosed(t, s.Frames())
}

func TestConnectRetriesServerErrors(t *testing.T) {
	var attempt atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempt.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: ready\n\n")
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(fastRetry(5)))
	require.NoError(t, s.Connect(context.Background()))

	f, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	assert.Equal(t, "ready", f.Data)
	assert.Equal(t, int32(2), attempt.Load())
}

func TestConnectRejectsWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "{}")
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(retry.Disabled()))
	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}

func TestConnectContractViolations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(retry.Disabled()))
	require.NoError(t, s.Connect(context.Background()))

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, fresco.IsContract(err))

	s.Close()

	err = s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, fresco.IsContract(err))
}

func TestPostBody(t *testing.T) {
	payload := []byte(`{"input":"hello"}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, payload, body)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: ack\n\n")
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(retry.Disabled()), WithBody(payload))
	require.NoError(t, s.Connect(context.Background()))

	f, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	assert.Equal(t, "ack", f.Data)
}

func TestRequestHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: ok\n\n")
	}))
	defer srv.Close()

	s := New(srv.URL,
		WithRetry(retry.Disabled()),
		WithHeader("Authorization", "Bearer token-1"),
	)
	require.NoError(t, s.Connect(context.Background()))

	_, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	requireClosed(t, s.Frames())
}

func TestCloseStopsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 0; ; i++ {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
			fmt.Fprintf(w, "data: tick %d\n\n", i)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	s := New(srv.URL, WithRetry(retry.Disabled()))
	require.NoError(t, s.Connect(context.Background()))

	_, ok := recvFrame(t, s.Frames())
	require.True(t, ok)

	s.Close()
	requireClosed(t, s.Frames())

	// Closing again is harmless.
	s.Close()
}

func TestCloseBeforeConnect(t *testing.T) {
	s := New("http://127.0.0.1:0")
	s.Close()
	requireClosed(t, s.Frames())

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, fresco.IsContract(err))
}

func TestNonTransientStreamErrorStops(t *testing.T) {
	// A permanent failure during reconnect must not spin forever.
	var attempt atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempt.Add(1) == 1 {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Content-Length", "4096")
			io.WriteString(w, "data: first\n\n")
			return
		}
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	rec := &errorRecorder{}
	s := New(srv.URL, WithRetry(fastRetry(5)), WithErrorHandler(rec.handler()))
	require.NoError(t, s.Connect(context.Background()))

	_, ok := recvFrame(t, s.Frames())
	require.True(t, ok)
	requireClosed(t, s.Frames())

	var statusErr *StatusError
	found := false
	for _, err := range rec.all() {
		if errors.As(err, &statusErr) {
			found = true
		}
	}
	assert.True(t, found, "reconnect rejection should be reported")
	assert.Equal(t, int32(2), attempt.Load())
}
