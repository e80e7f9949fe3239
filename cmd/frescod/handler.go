package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/internal/narrate"
)

// runInput is the accepted request body. Every field is optional; missing
// ids are generated, and a prompt steers the live narration when set.
type runInput struct {
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
	Prompt   string `json:"prompt"`
}

// AgentHandler streams the scripted demo run over SSE.
type AgentHandler struct {
	narrator narrate.Narrator
	config   *Config
}

// NewAgentHandler creates a handler narrating with n, which may be nil to
// play the canned script.
func NewAgentHandler(n narrate.Narrator, cfg *Config) *AgentHandler {
	return &AgentHandler{narrator: n, config: cfg}
}

// ServeHTTP handles POST requests by streaming the demo run via SSE.
func (h *AgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Only accept POST
	if r.Method != http.MethodPost {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse request body; an empty body is fine
	var input runInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && err != io.EOF {
		slog.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if input.ThreadID == "" {
		input.ThreadID = fresco.GenerateThreadID()
	}
	if input.RunID == "" {
		input.RunID = fresco.GenerateRunID()
	}

	// Create request-scoped logger
	log := slog.With(
		"run_id", input.RunID,
		"thread_id", input.ThreadID,
	)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if _, ok := w.(http.Flusher); !ok {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	log.Info("run started")

	script := newScript(input, h.narrator, h.config.StepDelay)
	count, err := script.Play(r.Context(), w)

	duration := time.Since(start)
	if err != nil {
		log.Error("run failed",
			"duration_ms", duration.Milliseconds(),
			"events_sent", count,
			"error", err,
		)
		return
	}
	log.Info("run completed",
		"duration_ms", duration.Milliseconds(),
		"events_sent", count,
	)
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
