// Package repository declares the narrow persistence interfaces the
// service layer depends on, following the teacher's pattern of keeping
// repository contracts beside the domain instead of inside the postgres
// adapter package.
package repository

import (
	"context"

	"github.com/google/uuid"
)

// StoredFlow is a flow as it sits in the flows table: a name, the raw
// JSON tree that built it, and the UUID assigned at build time.
type StoredFlow struct {
	UUID    uuid.UUID
	Name    string
	Content string
}

// FlowRepository persists flow definitions keyed by their unique name.
type FlowRepository interface {
	Get(ctx context.Context, name string) (*StoredFlow, error)
	List(ctx context.Context) ([]*StoredFlow, error)
	Create(ctx context.Context, flow *StoredFlow) error
	Update(ctx context.Context, flow *StoredFlow) error
	Delete(ctx context.Context, name string) error
}
