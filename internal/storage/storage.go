package storage

import (
	"context"

	"github.com/barsham/design-automation/internal/domain"
)

// Gateway captures the object-store operations the staging pipeline needs,
// scoped to one bucket. Rename and delete are assumed atomic per object;
// nothing stronger is relied on.
type Gateway interface {
	SignedURL(ctx context.Context, object string, mode domain.AccessMode) (domain.SignedURL, error)
	Upload(ctx context.Context, object string, data []byte) error
	Download(ctx context.Context, object string) ([]byte, error)
	Rename(ctx context.Context, from, to string) error
	Delete(ctx context.Context, object string) error
}

// TenantResolver maps the caller's identity to its storage bucket. May
// fail when no bucket can be resolved for the caller.
type TenantResolver interface {
	Bucket(ctx context.Context) (Gateway, error)
}

// StaticResolver always resolves to the same gateway. Used by
// single-tenant deployments where one configured bucket serves all runs.
type StaticResolver struct {
	gateway Gateway
}

func NewStaticResolver(gateway Gateway) *StaticResolver {
	return &StaticResolver{gateway: gateway}
}

func (r *StaticResolver) Bucket(ctx context.Context) (Gateway, error) {
	return r.gateway, nil
}

var _ TenantResolver = (*StaticResolver)(nil)
