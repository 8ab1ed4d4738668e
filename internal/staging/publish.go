package staging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/barsham/design-automation/internal/domain"
	"github.com/barsham/design-automation/internal/storage"
)

// Publication relocates staged objects to their canonical, hash-derived
// names. Every batch below runs its member operations concurrently and
// fails the aggregate if any member fails; completed siblings are not
// rolled back. A half-renamed set is recoverable by a retry at a higher
// level, never silently repaired here.

// PublishAll publishes the full artifact set after a complete conversion:
// thumbnail, model view, parameters and converted model are renamed to
// their canonical names and the metadata record is written alongside them.
// Returns the run's canonical hash.
func (c *Coordinator) PublishAll(ctx context.Context, slots domain.SlotSet, namer domain.NameProvider, tla string) (string, error) {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve bucket: %w", err)
	}

	hash, err := c.resolveHash(ctx, bucket, slots)
	if err != nil {
		return "", err
	}
	names := namer(hash)

	metadata, err := json.Marshal(domain.Metadata{Hash: hash, TLA: tla})
	if err != nil {
		return "", fmt.Errorf("serialize metadata: %w", err)
	}

	var g errgroup.Group
	g.Go(rename(ctx, bucket, slots.Thumbnail, names.Thumbnail))
	g.Go(rename(ctx, bucket, slots.ModelView, names.ModelView))
	g.Go(rename(ctx, bucket, slots.Parameters, names.Parameters))
	g.Go(rename(ctx, bucket, slots.OutputModel, names.CurrentModel))
	g.Go(func() error {
		if err := bucket.Upload(ctx, names.Metadata, metadata); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("publish artifacts: %w", err)
	}

	log.Info().Str("run_id", slots.RunID).Str("hash", hash).Msg("run published")
	return hash, nil
}

// PublishViewables publishes the narrower viewables-only set: model view,
// parameters and converted model. The staged input-parameters object must
// not persist past this stage and is deleted in the same batch; the delete
// runs regardless of how the renames fare. No metadata is written.
func (c *Coordinator) PublishViewables(ctx context.Context, slots domain.SlotSet, namer domain.NameProvider) (string, error) {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve bucket: %w", err)
	}

	hash, err := c.resolveHash(ctx, bucket, slots)
	if err != nil {
		return "", err
	}
	names := namer(hash)

	var g errgroup.Group
	g.Go(rename(ctx, bucket, slots.ModelView, names.ModelView))
	g.Go(rename(ctx, bucket, slots.Parameters, names.Parameters))
	g.Go(rename(ctx, bucket, slots.OutputModel, names.CurrentModel))
	g.Go(func() error {
		if err := bucket.Delete(ctx, slots.InputParameters); err != nil {
			return fmt.Errorf("delete input parameters: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("publish viewables: %w", err)
	}

	log.Info().Str("run_id", slots.RunID).Str("hash", hash).Msg("viewables published")
	return hash, nil
}

// RelocateRFA moves the final artifact produced by the RFA-extraction
// stage to its canonical name and deletes the intermediate SAT object,
// which must not survive once the final artifact exists.
func (c *Coordinator) RelocateRFA(ctx context.Context, slots domain.SlotSet, namer domain.NameProvider, hash string) error {
	bucket, err := c.resolver.Bucket(ctx)
	if err != nil {
		return fmt.Errorf("resolve bucket: %w", err)
	}
	names := namer(hash)

	var g errgroup.Group
	g.Go(rename(ctx, bucket, slots.OutputRFA, names.RFA))
	g.Go(func() error {
		if err := bucket.Delete(ctx, slots.OutputSAT); err != nil {
			return fmt.Errorf("delete intermediate: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("relocate rfa: %w", err)
	}

	log.Info().Str("run_id", slots.RunID).Str("hash", hash).Msg("rfa relocated")
	return nil
}

func rename(ctx context.Context, bucket storage.Gateway, from, to string) func() error {
	return func() error {
		if err := bucket.Rename(ctx, from, to); err != nil {
			return fmt.Errorf("rename %s: %w", from, err)
		}
		return nil
	}
}
