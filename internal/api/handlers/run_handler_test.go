package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barsham/design-automation/internal/cache"
	"github.com/barsham/design-automation/internal/domain"
	"github.com/barsham/design-automation/internal/staging"
	"github.com/barsham/design-automation/internal/storage"
)

// stubGateway issues predictable URLs and accepts every mutation.
type stubGateway struct{}

func (stubGateway) SignedURL(ctx context.Context, object string, mode domain.AccessMode) (domain.SignedURL, error) {
	var signed domain.SignedURL
	if mode == domain.AccessRead || mode == domain.AccessReadWrite {
		signed.Get = "https://signed.example/get/" + object
	}
	if mode == domain.AccessWrite || mode == domain.AccessReadWrite {
		signed.Put = "https://signed.example/put/" + object
	}
	return signed, nil
}

func (stubGateway) Upload(ctx context.Context, object string, data []byte) error { return nil }

func (stubGateway) Download(ctx context.Context, object string) ([]byte, error) { return nil, nil }

func (stubGateway) Rename(ctx context.Context, from, to string) error { return nil }

func (stubGateway) Delete(ctx context.Context, object string) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	coordinator := staging.NewCoordinator(storage.NewStaticResolver(stubGateway{}))
	handler := NewRunHandler(coordinator, cache.NewNoopRunTracker(), domain.ProjectNames("wrench"))

	router := gin.New()
	runs := router.Group("/api/v1/runs")
	runs.POST("/adoptions", handler.StageAdoption)
	runs.POST("/updates", handler.StageUpdate)
	runs.POST("/:id/sat", handler.StageSAT)
	runs.GET("/:id/status", handler.Status)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStageAdoptionEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/runs/adoptions", gin.H{"doc_url": "https://x/doc.ipt"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RunID  string                `json:"run_id"`
		Bundle domain.AdoptionBundle `json:"bundle"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "https://x/doc.ipt", resp.Bundle.DocURL)
	assert.Empty(t, resp.Bundle.TLA)
	assert.NotEmpty(t, resp.Bundle.Thumbnail.Put)
	assert.NotEmpty(t, resp.Bundle.ModelView.Put)
	assert.NotEmpty(t, resp.Bundle.Parameters.Put)
	assert.NotEmpty(t, resp.Bundle.OutputModel.Put)
}

func TestStageAdoptionEndpointMissingDocURL(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/runs/adoptions", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStageUpdateEndpointRequiresParameters(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/runs/updates", gin.H{"doc_url": "https://x/doc.ipt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStageSATEndpointUnknownRun(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/runs/nope/sat", gin.H{"doc_url": "https://x/doc.ipt"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStageSATEndpointAfterAdoption(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/runs/adoptions", gin.H{"doc_url": "https://x/doc.ipt"})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(t, router, "/api/v1/runs/"+created.RunID+"/sat", gin.H{"doc_url": "https://x/doc.ipt"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Bundle domain.SATBundle `json:"bundle"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Bundle.OutputSAT.Get)
	assert.NotEmpty(t, resp.Bundle.OutputSAT.Put)
}

func TestStatusEndpointUnknownRun(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
