package websub

import (
	"context"
	"fmt"

	"flowrunner/internal/repository"
	"flowrunner/internal/websub"

	"github.com/google/uuid"
)

// RepoStore adapts a repository.SubscriptionRepository to
// websub.SubscriptionStore, the narrow interface the Receiver depends on,
// translating between the persistence-layer and domain Subscription shapes.
type RepoStore struct {
	Repo repository.SubscriptionRepository
}

func (s RepoStore) Get(ctx context.Context, id uuid.UUID) (*websub.Subscription, error) {
	stored, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("RepoStore.Get: %w", err)
	}
	if stored == nil {
		return nil, websub.ErrSubscriptionNotFound
	}
	return fromStored(stored), nil
}

func (s RepoStore) Update(ctx context.Context, sub *websub.Subscription) error {
	if err := s.Repo.Update(ctx, toStored(sub)); err != nil {
		return fmt.Errorf("RepoStore.Update: %w", err)
	}
	return nil
}

func (s RepoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("RepoStore.Delete: %w", err)
	}
	return nil
}
