package staging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/barsham/design-automation/internal/domain"
	"github.com/barsham/design-automation/internal/storage"
)

// op records one gateway call for assertions.
type op struct {
	Kind   string // "sign", "upload", "rename", "delete"
	Object string
	To     string
}

// fakeGateway is an in-memory storage.Gateway with per-object fault
// injection. All methods are safe for concurrent use.
type fakeGateway struct {
	mu      sync.Mutex
	ops     []op
	uploads map[string][]byte

	// paramsURL overrides the Get URL issued for read access, so tests
	// can point hash resolution at an httptest server.
	paramsURL string

	failSign   map[string]error
	failRename map[string]error
	failDelete map[string]error
	failUpload map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		uploads:    make(map[string][]byte),
		failSign:   make(map[string]error),
		failRename: make(map[string]error),
		failDelete: make(map[string]error),
		failUpload: make(map[string]error),
	}
}

func (g *fakeGateway) record(o op) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = append(g.ops, o)
}

func (g *fakeGateway) opsOfKind(kind string) []op {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []op
	for _, o := range g.ops {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

func (g *fakeGateway) SignedURL(ctx context.Context, object string, mode domain.AccessMode) (domain.SignedURL, error) {
	g.record(op{Kind: "sign", Object: object})
	if err := g.failSign[object]; err != nil {
		return domain.SignedURL{}, err
	}

	var signed domain.SignedURL
	if mode == domain.AccessRead || mode == domain.AccessReadWrite {
		signed.Get = "https://signed.example/get/" + object
		if g.paramsURL != "" {
			signed.Get = g.paramsURL
		}
	}
	if mode == domain.AccessWrite || mode == domain.AccessReadWrite {
		signed.Put = "https://signed.example/put/" + object
	}
	return signed, nil
}

func (g *fakeGateway) Upload(ctx context.Context, object string, data []byte) error {
	g.record(op{Kind: "upload", Object: object})
	if err := g.failUpload[object]; err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploads[object] = append([]byte(nil), data...)
	return nil
}

func (g *fakeGateway) Download(ctx context.Context, object string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.uploads[object]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", object)
	}
	return data, nil
}

func (g *fakeGateway) Rename(ctx context.Context, from, to string) error {
	g.record(op{Kind: "rename", Object: from, To: to})
	if err := g.failRename[from]; err != nil {
		return err
	}
	return nil
}

func (g *fakeGateway) Delete(ctx context.Context, object string) error {
	g.record(op{Kind: "delete", Object: object})
	if err := g.failDelete[object]; err != nil {
		return err
	}
	return nil
}

var _ storage.Gateway = (*fakeGateway)(nil)

// fakeResolver resolves every caller to one gateway, or fails.
type fakeResolver struct {
	gateway storage.Gateway
	err     error
}

func (r *fakeResolver) Bucket(ctx context.Context) (storage.Gateway, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.gateway, nil
}

var errBucketUnavailable = errors.New("no bucket for caller")
