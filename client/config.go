package client

import (
	"net/http"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/buffer"
	"github.com/spetersoncode/fresco/engine"
	"github.com/spetersoncode/fresco/registry"
	"github.com/spetersoncode/fresco/retry"
)

// Config configures a Client. Every callback is optional; nil callbacks
// are skipped. Endpoint is required only for Connect; hosts with their
// own transport can leave it empty and drive Feed directly.
type Config struct {
	// Endpoint is the agent's event stream URL.
	Endpoint string

	// Body is an optional JSON payload. When set, the transport POSTs it
	// on every connect, including reconnects.
	Body []byte

	// Header adds request headers, such as authorization.
	Header map[string]string

	// HTTPClient overrides the transport's HTTP client.
	HTTPClient *http.Client

	// Retry overrides the transport's reconnect policy.
	Retry *retry.Config

	// DefaultSurface names the surface used when messages omit one.
	DefaultSurface string

	// Registry gates and validates component types. Nil renders every
	// type permissively.
	Registry *registry.Registry

	// Streamed assistant text.
	OnTextStart    func(messageID, role string)
	OnTextChunk    func(messageID, content, delta string)
	OnTextComplete func(messageID, content string)

	// Streamed tool activity.
	OnToolStart  func(messageID, toolCallID, name string)
	OnToolArgs   func(messageID, toolCallID, args, delta string)
	OnToolResult func(messageID, toolCallID, result string)
	OnToolEnd    func(messageID, toolCallID string, call buffer.ToolCall)

	// OnStateChange receives a deep copy of the shared state document
	// after every snapshot or delta.
	OnStateChange func(state map[string]any)

	// Surface rendering.
	OnRenderTree     func(surfaceID string, tree *engine.RenderNode)
	OnSurfaceDeleted func(surfaceID string)

	// Run lifecycle.
	OnRunStarted  func(threadID, runID string)
	OnRunFinished func(threadID, runID string)
	OnRunError    func(message, code string)

	// OnError receives every recovered failure: parse rejections, patch
	// op failures, policy violations, transport drops.
	OnError fresco.ErrorHandler
}
