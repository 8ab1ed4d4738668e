package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/barsham/design-automation/internal/domain"
	"github.com/barsham/design-automation/internal/storage"
)

// Coordinator arranges where the conversion backend's inputs and outputs
// live: it stages write targets per pipeline stage and later publishes the
// results under their canonical, hash-derived names.
//
// Signed-URL issuance within one stage fans out concurrently. The fan-out
// uses a plain errgroup (no context derivation), so a failing issuance
// does not cancel its siblings; they run to completion and only the
// aggregate result reports failure. No partial bundle is ever returned.
type Coordinator struct {
	resolver storage.TenantResolver
	client   *http.Client
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithHTTPClient overrides the HTTP client used to fetch staged parameter
// content during hash resolution.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Coordinator) {
		c.client = client
	}
}

func NewCoordinator(resolver storage.TenantResolver, opts ...Option) *Coordinator {
	c := &Coordinator{
		resolver: resolver,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StageAdoption prepares write targets for the first conversion of a newly
// uploaded document: thumbnail, model view, parameters and converted
// model, all write-only.
func (c *Coordinator) StageAdoption(ctx context.Context, slots domain.SlotSet, docURL, tla string) (*domain.AdoptionBundle, error) {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve bucket: %w", err)
	}

	bundle := &domain.AdoptionBundle{DocURL: docURL, TLA: tla}

	var g errgroup.Group
	g.Go(sign(ctx, bucket, slots.Thumbnail, domain.AccessWrite, &bundle.Thumbnail))
	g.Go(sign(ctx, bucket, slots.ModelView, domain.AccessWrite, &bundle.ModelView))
	g.Go(sign(ctx, bucket, slots.Parameters, domain.AccessWrite, &bundle.Parameters))
	g.Go(sign(ctx, bucket, slots.OutputModel, domain.AccessWrite, &bundle.OutputModel))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Str("run_id", slots.RunID).Str("doc_url", docURL).Msg("adoption staged")
	return bundle, nil
}

// StageUpdate prepares write targets for a re-conversion with changed
// parameters. The parameters payload is serialized and uploaded to the
// input-parameters slot before the bundle is returned, so the processor
// can read it immediately through the bundle's read-write URL.
func (c *Coordinator) StageUpdate(ctx context.Context, slots domain.SlotSet, docURL, tla string, params domain.InventorParameters) (*domain.UpdateBundle, error) {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve bucket: %w", err)
	}

	bundle := &domain.UpdateBundle{DocURL: docURL, TLA: tla}

	var g errgroup.Group
	g.Go(sign(ctx, bucket, slots.OutputModel, domain.AccessWrite, &bundle.OutputModel))
	g.Go(sign(ctx, bucket, slots.ModelView, domain.AccessWrite, &bundle.ModelView))
	g.Go(sign(ctx, bucket, slots.Parameters, domain.AccessWrite, &bundle.Parameters))
	g.Go(sign(ctx, bucket, slots.InputParameters, domain.AccessReadWrite, &bundle.InputParameters))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("serialize parameters: %w", err)
	}
	if err := bucket.Upload(ctx, slots.InputParameters, payload); err != nil {
		return nil, fmt.Errorf("upload input parameters: %w", err)
	}

	log.Debug().Str("run_id", slots.RunID).Int("params", len(params)).Msg("update staged")
	return bundle, nil
}

// StageSATExtraction prepares the intermediate-format extraction stage.
// The output slot is read-write because the RFA stage consumes it later.
func (c *Coordinator) StageSATExtraction(ctx context.Context, slots domain.SlotSet, docURL string) (*domain.SATBundle, error) {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve bucket: %w", err)
	}

	signed, err := bucket.SignedURL(ctx, slots.OutputSAT, domain.AccessReadWrite)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", slots.OutputSAT, err)
	}

	return &domain.SATBundle{DocURL: docURL, OutputSAT: signed}, nil
}

// StageRFAExtraction prepares the final-artifact extraction stage.
func (c *Coordinator) StageRFAExtraction(ctx context.Context, slots domain.SlotSet, docURL string) (*domain.RFABundle, error) {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve bucket: %w", err)
	}

	signed, err := bucket.SignedURL(ctx, slots.OutputRFA, domain.AccessWrite)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", slots.OutputRFA, err)
	}

	return &domain.RFABundle{DocURL: docURL, OutputRFA: signed}, nil
}

// sign returns a closure that issues one signed URL and stores it in dst.
// Each dst is written by exactly one goroutine, so no locking is needed.
func sign(ctx context.Context, bucket storage.Gateway, object string, mode domain.AccessMode, dst *domain.SignedURL) func() error {
	return func() error {
		signed, err := bucket.SignedURL(ctx, object, mode)
		if err != nil {
			return fmt.Errorf("sign %s: %w", object, err)
		}
		*dst = signed
		return nil
	}
}
