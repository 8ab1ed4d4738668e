package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/barsham/design-automation/internal/cache"
	"github.com/barsham/design-automation/internal/domain"
	"github.com/barsham/design-automation/internal/staging"
)

// RunHandler exposes the staging and publication operations over HTTP.
// Slot sets are immutable values created once per run; the handler keeps
// the RunID to SlotSet mapping in memory for the life of the process.
type RunHandler struct {
	coordinator *staging.Coordinator
	tracker     cache.RunTracker
	namer       domain.NameProvider

	mu   sync.RWMutex
	runs map[string]domain.SlotSet
}

func NewRunHandler(coordinator *staging.Coordinator, tracker cache.RunTracker, namer domain.NameProvider) *RunHandler {
	return &RunHandler{
		coordinator: coordinator,
		tracker:     tracker,
		namer:       namer,
		runs:        make(map[string]domain.SlotSet),
	}
}

type stageRequest struct {
	DocURL     string                    `json:"doc_url" binding:"required"`
	TLA        string                    `json:"tla"`
	Parameters domain.InventorParameters `json:"parameters"`
}

type publishRequest struct {
	TLA string `json:"tla"`
}

type relocateRequest struct {
	Hash string `json:"hash" binding:"required"`
}

// StageAdoption starts a new run and stages the adoption stage.
func (h *RunHandler) StageAdoption(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doc_url is required"})
		return
	}

	slots := domain.NewSlotSet()
	bundle, err := h.coordinator.StageAdoption(c.Request.Context(), slots, req.DocURL, req.TLA)
	if err != nil {
		log.Error().Err(err).Str("doc_url", req.DocURL).Msg("adoption staging failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.register(slots)
	h.markStaged(c, slots.RunID, "adoption")

	c.JSON(http.StatusOK, gin.H{"run_id": slots.RunID, "bundle": bundle})
}

// StageUpdate starts a new run and stages the update stage with the
// supplied parameters.
func (h *RunHandler) StageUpdate(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doc_url is required"})
		return
	}
	if len(req.Parameters) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameters are required"})
		return
	}

	slots := domain.NewSlotSet()
	bundle, err := h.coordinator.StageUpdate(c.Request.Context(), slots, req.DocURL, req.TLA, req.Parameters)
	if err != nil {
		log.Error().Err(err).Str("doc_url", req.DocURL).Msg("update staging failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.register(slots)
	h.markStaged(c, slots.RunID, "update")

	c.JSON(http.StatusOK, gin.H{"run_id": slots.RunID, "bundle": bundle})
}

// StageSAT stages intermediate-format extraction for an existing run.
func (h *RunHandler) StageSAT(c *gin.Context) {
	slots, ok := h.lookup(c)
	if !ok {
		return
	}

	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doc_url is required"})
		return
	}

	bundle, err := h.coordinator.StageSATExtraction(c.Request.Context(), slots, req.DocURL)
	if err != nil {
		log.Error().Err(err).Str("run_id", slots.RunID).Msg("sat staging failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.markStaged(c, slots.RunID, "sat")
	c.JSON(http.StatusOK, gin.H{"run_id": slots.RunID, "bundle": bundle})
}

// StageRFA stages final-artifact extraction for an existing run.
func (h *RunHandler) StageRFA(c *gin.Context) {
	slots, ok := h.lookup(c)
	if !ok {
		return
	}

	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doc_url is required"})
		return
	}

	bundle, err := h.coordinator.StageRFAExtraction(c.Request.Context(), slots, req.DocURL)
	if err != nil {
		log.Error().Err(err).Str("run_id", slots.RunID).Msg("rfa staging failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.markStaged(c, slots.RunID, "rfa")
	c.JSON(http.StatusOK, gin.H{"run_id": slots.RunID, "bundle": bundle})
}

// Publish performs full publication for a run and returns its hash.
func (h *RunHandler) Publish(c *gin.Context) {
	slots, ok := h.lookup(c)
	if !ok {
		return
	}

	var req publishRequest
	_ = c.ShouldBindJSON(&req)

	hash, err := h.coordinator.PublishAll(c.Request.Context(), slots, h.namer, req.TLA)
	if err != nil {
		log.Error().Err(err).Str("run_id", slots.RunID).Msg("publication failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if err := h.tracker.MarkPublished(c.Request.Context(), slots.RunID, hash); err != nil {
		log.Warn().Err(err).Str("run_id", slots.RunID).Msg("failed to track publication")
	}

	c.JSON(http.StatusOK, gin.H{"run_id": slots.RunID, "hash": hash})
}

// PublishViewables performs viewables-only publication for a run.
func (h *RunHandler) PublishViewables(c *gin.Context) {
	slots, ok := h.lookup(c)
	if !ok {
		return
	}

	hash, err := h.coordinator.PublishViewables(c.Request.Context(), slots, h.namer)
	if err != nil {
		log.Error().Err(err).Str("run_id", slots.RunID).Msg("viewables publication failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if err := h.tracker.MarkPublished(c.Request.Context(), slots.RunID, hash); err != nil {
		log.Warn().Err(err).Str("run_id", slots.RunID).Msg("failed to track publication")
	}

	c.JSON(http.StatusOK, gin.H{"run_id": slots.RunID, "hash": hash})
}

// RelocateRFA moves the final artifact to its canonical name.
func (h *RunHandler) RelocateRFA(c *gin.Context) {
	slots, ok := h.lookup(c)
	if !ok {
		return
	}

	var req relocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hash is required"})
		return
	}

	if err := h.coordinator.RelocateRFA(c.Request.Context(), slots, h.namer, req.Hash); err != nil {
		log.Error().Err(err).Str("run_id", slots.RunID).Msg("rfa relocation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run_id": slots.RunID, "hash": req.Hash})
}

// Status returns the tracked state of a run.
func (h *RunHandler) Status(c *gin.Context) {
	runID := c.Param("id")

	record, err := h.tracker.Status(c.Request.Context(), runID)
	if errors.Is(err, cache.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *RunHandler) register(slots domain.SlotSet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[slots.RunID] = slots
}

func (h *RunHandler) lookup(c *gin.Context) (domain.SlotSet, bool) {
	runID := c.Param("id")

	h.mu.RLock()
	slots, ok := h.runs[runID]
	h.mu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown run"})
		return domain.SlotSet{}, false
	}
	return slots, true
}

func (h *RunHandler) markStaged(c *gin.Context, runID, stage string) {
	if err := h.tracker.MarkStaged(c.Request.Context(), runID, stage); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Str("stage", stage).Msg("failed to track staging")
	}
}
