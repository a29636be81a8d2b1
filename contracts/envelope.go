package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps every message crossing the broker. Commands carry a
// correlation id and a reply-to queue; events carry neither.
type Envelope struct {
	ID            string          `json:"id"`
	Pattern       string          `json:"pattern"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlationId,omitempty"`
	ReplyTo       string          `json:"replyTo,omitempty"`
	Body          json.RawMessage `json:"body"`
}

// NewEnvelope creates an envelope with a generated id and current timestamp.
func NewEnvelope(pattern string, payload any) (*Envelope, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %q: %w", pattern, err)
	}

	return &Envelope{
		ID:        uuid.New().String(),
		Pattern:   pattern,
		Timestamp: time.Now().UTC(),
		Body:      body,
	}, nil
}

// Decode unmarshals the envelope body into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Body) == 0 {
		return fmt.Errorf("envelope %s has empty body", e.ID)
	}
	if err := json.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("failed to unmarshal %q body: %w", e.Pattern, err)
	}
	return nil
}

// IsCommand reports whether the envelope expects a correlated reply.
func (e *Envelope) IsCommand() bool {
	return e.CorrelationID != "" && e.ReplyTo != ""
}

// Reply is the envelope sent back for a command. Exactly one of Body or
// Error is set.
type Reply struct {
	CorrelationID string          `json:"correlationId"`
	Timestamp     time.Time       `json:"timestamp"`
	Body          json.RawMessage `json:"body,omitempty"`
	Error         *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the structured error that crosses the broker boundary.
// Raw stack traces never do.
type ErrorBody struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewReply builds a success reply for the given correlation id.
func NewReply(correlationID string, payload any) (*Reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reply body: %w", err)
	}
	return &Reply{
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	}, nil
}

// NewErrorReply builds an error reply from a classified error.
func NewErrorReply(correlationID string, err error) *Reply {
	return &Reply{
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Error:         ErrorBodyOf(err),
	}
}
