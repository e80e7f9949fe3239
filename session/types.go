package session

import "time"

// Session is one conversation scope on the agent server.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Run is one agent execution within a session.
type Run struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// createSessionRequest is the body for POST /api/sessions.
type createSessionRequest struct {
	Name string `json:"name,omitempty"`
}

// startRunRequest is the body for POST /api/sessions/{id}/runs.
type startRunRequest struct {
	Input string `json:"input"`
}

// listSessionsResponse wraps the session collection.
type listSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}
