package fresco

import "github.com/google/uuid"

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// GenerateThreadID creates a unique thread identifier.
func GenerateThreadID() string {
	return "thread-" + uuid.New().String()
}

// GenerateRunID creates a unique run identifier.
func GenerateRunID() string {
	return "run-" + uuid.New().String()
}

// GenerateSurfaceID creates a unique surface identifier.
func GenerateSurfaceID() string {
	return "surface-" + uuid.New().String()
}
