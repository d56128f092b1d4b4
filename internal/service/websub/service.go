// Package websub wires the websub package's subscribe-request path to
// persistent storage: a Service issues the outbound hub request and
// durably records the resulting Subscription.
package websub

import (
	"context"
	"fmt"

	"flowrunner/internal/repository"
	"flowrunner/internal/websub"

	"github.com/google/uuid"
)

// Service issues subscribe/unsubscribe requests and persists the
// resulting state via a SubscriptionRepository.
type Service struct {
	Repo       repository.SubscriptionRepository
	Requester  websub.SubscribeRequester
	LeaseSeconds int64
}

// Subscribe creates a new subscription for flow/topic/hub, issues the
// subscribe request to the hub, and persists the result regardless of
// whether the hub accepted it (Subscribed reflects the outcome).
func (s *Service) Subscribe(ctx context.Context, flow, topic, hub, secret string) (*websub.Subscription, error) {
	sub := websub.NewSubscription(flow, topic, hub, secret)

	reqErr := s.Requester.Subscribe(ctx, sub, s.LeaseSeconds)

	stored := toStored(sub)
	if err := s.Repo.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("Subscribe: %w", err)
	}
	if reqErr != nil {
		return sub, fmt.Errorf("Subscribe: hub request failed: %w", reqErr)
	}
	return sub, nil
}

// Unsubscribe issues the unsubscribe request for an existing subscription
// and persists the updated Subscribed flag.
func (s *Service) Unsubscribe(ctx context.Context, id uuid.UUID) error {
	stored, err := s.Repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("Unsubscribe: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("Unsubscribe: %w", websub.ErrSubscriptionNotFound)
	}

	sub := fromStored(stored)
	reqErr := s.Requester.Unsubscribe(ctx, sub)

	if err := s.Repo.Update(ctx, toStored(sub)); err != nil {
		return fmt.Errorf("Unsubscribe: %w", err)
	}
	return reqErr
}

func toStored(sub *websub.Subscription) *repository.StoredSubscription {
	return &repository.StoredSubscription{
		UUID:       sub.UUID,
		Flow:       sub.Flow,
		Topic:      sub.Topic,
		Hub:        sub.Hub,
		Secret:     sub.Secret,
		Subscribed: sub.Subscribed,
		LeaseEnd:   sub.LeaseEnd,
	}
}

func fromStored(s *repository.StoredSubscription) *websub.Subscription {
	return &websub.Subscription{
		UUID:       s.UUID,
		Flow:       s.Flow,
		Topic:      s.Topic,
		Hub:        s.Hub,
		Secret:     s.Secret,
		Subscribed: s.Subscribed,
		LeaseEnd:   s.LeaseEnd,
	}
}
