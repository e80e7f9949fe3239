// Package main runs a demo agent server that drives a fresco surface over
// the AG-UI protocol.
//
// POST /api/agent streams a scripted run as Server-Sent Events: a task
// list surface is declared, populated, and mutated step by step while
// assistant text narrates the work. With a provider configured the
// narration is written live by a model; otherwise a canned script plays.
//
// Configuration is via environment variables:
//
//	FRESCO_PORT       - Server port (default: 8080)
//	FRESCO_PROVIDER   - Narration provider: anthropic, openai, google, or vertex (optional)
//	FRESCO_MODEL      - Model override (optional, uses provider default)
//	FRESCO_STEP_DELAY - Pause between scripted steps (default: 400ms)
//	ANTHROPIC_API_KEY - Anthropic API key
//	OPENAI_API_KEY    - OpenAI API key
//	GOOGLE_API_KEY    - Google API key
//	VERTEX_PROJECT    - Vertex AI project (paired with VERTEX_LOCATION)
//	VERTEX_LOCATION   - Vertex AI location
//
// Usage:
//
//	go run ./cmd/frescod
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spetersoncode/fresco/internal/narrate"
)

func main() {
	// Load configuration
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create narrator when a provider is configured
	var narrator narrate.Narrator
	if cfg.Provider != "" {
		narrator, err = narrate.New(context.Background(), cfg.Provider, narrate.Config{
			AnthropicKey:   cfg.AnthropicKey,
			OpenAIKey:      cfg.OpenAIKey,
			GoogleKey:      cfg.GoogleKey,
			VertexProject:  cfg.VertexProject,
			VertexLocation: cfg.VertexLocation,
			Model:          cfg.Model,
		})
		if err != nil {
			log.Fatalf("Failed to create narrator: %v", err)
		}
	}

	// Create HTTP handler
	handler := NewAgentHandler(narrator, cfg)

	// Setup routes
	mux := http.NewServeMux()
	mux.Handle("/api/agent", corsMiddleware(handler))
	mux.HandleFunc("/health", healthHandler)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// Start server
	if cfg.Provider != "" {
		log.Printf("Narration: %s", cfg.Provider)
	} else {
		log.Printf("Narration: canned script (set FRESCO_PROVIDER for live narration)")
	}
	log.Printf("Agent server starting on :%s", cfg.Port)
	log.Printf("Endpoint: POST http://localhost:%s/api/agent", cfg.Port)
	log.Printf("Health:   GET  http://localhost:%s/health", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}
