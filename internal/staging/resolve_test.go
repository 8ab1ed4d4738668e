package staging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barsham/design-automation/internal/domain"
)

func paramsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveHashDeterministic(t *testing.T) {
	srv := paramsServer(t, http.StatusOK, `{"Height":{"value":"100 mm","unit":"mm"},"Width":{"value":"50 mm","unit":"mm"}}`)

	gw := newFakeGateway()
	gw.paramsURL = srv.URL
	c := NewCoordinator(&fakeResolver{gateway: gw})

	slots := domain.NewSlotSet()
	first, err := c.ResolveHash(context.Background(), slots)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Same content, fresh run: same hash.
	second, err := c.ResolveHash(context.Background(), domain.NewSlotSet())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveHashIgnoresByteLayout(t *testing.T) {
	// Same content with different key order and whitespace.
	a := paramsServer(t, http.StatusOK, `{"Height":{"value":"100 mm"},"Width":{"value":"50 mm"}}`)
	b := paramsServer(t, http.StatusOK, `{
		"Width":  {"value": "50 mm"},
		"Height": {"value": "100 mm"}
	}`)

	gwA := newFakeGateway()
	gwA.paramsURL = a.URL
	hashA, err := NewCoordinator(&fakeResolver{gateway: gwA}).ResolveHash(context.Background(), domain.NewSlotSet())
	require.NoError(t, err)

	gwB := newFakeGateway()
	gwB.paramsURL = b.URL
	hashB, err := NewCoordinator(&fakeResolver{gateway: gwB}).ResolveHash(context.Background(), domain.NewSlotSet())
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
}

func TestResolveHashChangesWithContent(t *testing.T) {
	a := paramsServer(t, http.StatusOK, `{"Height":{"value":"100 mm"}}`)
	b := paramsServer(t, http.StatusOK, `{"Height":{"value":"101 mm"}}`)

	gwA := newFakeGateway()
	gwA.paramsURL = a.URL
	hashA, err := NewCoordinator(&fakeResolver{gateway: gwA}).ResolveHash(context.Background(), domain.NewSlotSet())
	require.NoError(t, err)

	gwB := newFakeGateway()
	gwB.paramsURL = b.URL
	hashB, err := NewCoordinator(&fakeResolver{gateway: gwB}).ResolveHash(context.Background(), domain.NewSlotSet())
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

func TestResolveHashNonSuccessStatus(t *testing.T) {
	srv := paramsServer(t, http.StatusNotFound, "not found")

	gw := newFakeGateway()
	gw.paramsURL = srv.URL
	c := NewCoordinator(&fakeResolver{gateway: gw})

	_, err := c.ResolveHash(context.Background(), domain.NewSlotSet())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHashResolve)
}

func TestResolveHashInvalidContent(t *testing.T) {
	srv := paramsServer(t, http.StatusOK, "this is not json")

	gw := newFakeGateway()
	gw.paramsURL = srv.URL
	c := NewCoordinator(&fakeResolver{gateway: gw})

	_, err := c.ResolveHash(context.Background(), domain.NewSlotSet())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHashResolve)
}

func TestResolveHashNoInternalRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	gw := newFakeGateway()
	gw.paramsURL = srv.URL
	c := NewCoordinator(&fakeResolver{gateway: gw})

	_, err := c.ResolveHash(context.Background(), domain.NewSlotSet())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHashParametersPure(t *testing.T) {
	params := domain.InventorParameters{
		"Height": {Value: "100 mm", Unit: "mm", Values: []string{"100 mm", "200 mm"}},
	}

	first, err := HashParameters(params)
	require.NoError(t, err)
	second, err := HashParameters(params)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	changed, err := HashParameters(domain.InventorParameters{
		"Height": {Value: "200 mm", Unit: "mm", Values: []string{"100 mm", "200 mm"}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
