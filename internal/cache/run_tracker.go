package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/barsham/design-automation/internal/config"
)

const (
	runKeyPrefix  = "run:"
	defaultRunTTL = 24 * time.Hour
)

// ErrRunNotFound is returned when no record exists for a run.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is the tracked state of one pipeline run.
type RunRecord struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Hash      string    `json:"hash,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunTracker records run state transitions so operators can see where a
// run is. Tracking is best-effort observability; the pipeline itself never
// reads it back to make decisions.
type RunTracker interface {
	MarkStaged(ctx context.Context, runID, stage string) error
	MarkPublished(ctx context.Context, runID, hash string) error
	Status(ctx context.Context, runID string) (*RunRecord, error)
}

type redisRunTracker struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRunTracker struct{}

// NewRunTracker returns a Redis-backed tracker, or a noop tracker when
// caching is disabled in config.
func NewRunTracker(cfg config.CacheConfig) (RunTracker, error) {
	if !cfg.Enabled {
		return &noopRunTracker{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.RunTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultRunTTL
	}

	return &redisRunTracker{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopRunTracker() RunTracker {
	return &noopRunTracker{}
}

func (t *redisRunTracker) MarkStaged(ctx context.Context, runID, stage string) error {
	return t.write(ctx, RunRecord{RunID: runID, Stage: stage})
}

func (t *redisRunTracker) MarkPublished(ctx context.Context, runID, hash string) error {
	return t.write(ctx, RunRecord{RunID: runID, Stage: "published", Hash: hash})
}

func (t *redisRunTracker) Status(ctx context.Context, runID string) (*RunRecord, error) {
	payload, err := t.client.Get(ctx, runKeyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var record RunRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode run record: %w", err)
	}
	return &record, nil
}

func (t *redisRunTracker) write(ctx context.Context, record RunRecord) error {
	record.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}
	if err := t.client.Set(ctx, runKeyPrefix+record.RunID, payload, t.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (t *noopRunTracker) MarkStaged(ctx context.Context, runID, stage string) error {
	return nil
}

func (t *noopRunTracker) MarkPublished(ctx context.Context, runID, hash string) error {
	return nil
}

func (t *noopRunTracker) Status(ctx context.Context, runID string) (*RunRecord, error) {
	return nil, ErrRunNotFound
}
