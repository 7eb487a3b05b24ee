package domain

import (
	"context"
	"encoding/json"

	"bookhook/internal/models"
)

// Sink stores a record in the external sheet store and returns its raw reply.
type Sink interface {
	Forward(ctx context.Context, record models.Record) (json.RawMessage, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}
