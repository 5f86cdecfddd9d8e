// Package llm manages the connection to the external text-generation
// service: transport, retry with exponential backoff, and failure
// classification.
package llm

import (
	"context"
	"fmt"
)

// Client is the transport to a chat-completion generation service. It
// sends a single user prompt (the provider prepends its fixed system
// persona) and returns the first choice's message content.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-2xx reply from the generation service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation service returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether another attempt could succeed. Rate limiting
// and server-side failures are transient; any other client-side rejection
// means the request itself is bad and retrying cannot help.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
