package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/opencontainers/go-digest"

	"github.com/barsham/design-automation/internal/domain"
	"github.com/barsham/design-automation/internal/storage"
)

// ErrHashResolve wraps every failure mode of hash resolution: transport
// errors, non-2xx fetch status and invalid parameter content. None are
// retried here; retry policy belongs to the caller.
var ErrHashResolve = errors.New("resolve parameter hash")

// ResolveHash fetches the staged parameters object and computes the run's
// canonical content hash. Identical parameter content always yields the
// same hash; the parameters slot must already have been populated by the
// conversion backend.
func (c *Coordinator) ResolveHash(ctx context.Context, slots domain.SlotSet) (string, error) {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve bucket: %w", err)
	}
	return c.resolveHash(ctx, bucket, slots)
}

func (c *Coordinator) resolveHash(ctx context.Context, bucket storage.Gateway, slots domain.SlotSet) (string, error) {
	signed, err := bucket.SignedURL(ctx, slots.Parameters, domain.AccessRead)
	if err != nil {
		return "", fmt.Errorf("%w: sign %s: %w", ErrHashResolve, slots.Parameters, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed.Get, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashResolve, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch parameters: %w", ErrHashResolve, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: fetch parameters: unexpected status %d", ErrHashResolve, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read parameters: %w", ErrHashResolve, err)
	}

	var params domain.InventorParameters
	if err := json.Unmarshal(body, &params); err != nil {
		return "", fmt.Errorf("%w: decode parameters: %w", ErrHashResolve, err)
	}

	return HashParameters(params)
}

// HashParameters computes the deterministic content hash of a parameter
// document. The document is re-serialized before hashing so the result
// depends only on content, not on the byte layout it was staged with.
func HashParameters(params domain.InventorParameters) (string, error) {
	canonical, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("%w: serialize parameters: %w", ErrHashResolve, err)
	}
	return digest.FromBytes(canonical).Encoded(), nil
}
