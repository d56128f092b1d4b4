package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StoredSubscription is a websub subscription row.
type StoredSubscription struct {
	UUID       uuid.UUID
	Flow       string
	Topic      string
	Hub        string
	Secret     string
	Subscribed bool
	LeaseEnd   time.Time
}

// SubscriptionRepository persists WebSub subscription state keyed by UUID.
type SubscriptionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*StoredSubscription, error)
	ListByFlow(ctx context.Context, flow string) ([]*StoredSubscription, error)
	Create(ctx context.Context, sub *StoredSubscription) error
	Update(ctx context.Context, sub *StoredSubscription) error
	Delete(ctx context.Context, id uuid.UUID) error
}
