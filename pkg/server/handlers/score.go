package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/rerankd"
	"github.com/soundprediction/rerankd/pkg/server/dto"
)

// ScoreHandler handles scoring requests
type ScoreHandler struct {
	scorer rerankd.Scorer
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(s rerankd.Scorer) *ScoreHandler {
	return &ScoreHandler{scorer: s}
}

// Score handles POST /score
func (h *ScoreHandler) Score(c *gin.Context) {
	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	scores, err := h.scorer.Score(c.Request.Context(), []string{req.Query}, []string{req.Text})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "scoring_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ScoreResponse{Score: scores[0]})
}

// BatchScore handles POST /batch_score. An empty pair list short-circuits to
// an empty result without invoking the engine; a zero-row forward pass is
// nothing we want to hand the encoder.
func (h *ScoreHandler) BatchScore(c *gin.Context) {
	var req dto.BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if len(req.Pairs) == 0 {
		c.JSON(http.StatusOK, dto.BatchScoreResponse{Scores: []dto.PairScore{}})
		return
	}

	queries := make([]string, len(req.Pairs))
	texts := make([]string, len(req.Pairs))
	for i, pair := range req.Pairs {
		queries[i] = pair.Query
		texts[i] = pair.Text
	}

	scores, err := h.scorer.Score(c.Request.Context(), queries, texts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "scoring_failed",
			Message: err.Error(),
		})
		return
	}

	out := make([]dto.PairScore, len(scores))
	for i, score := range scores {
		out[i] = dto.PairScore{ID: req.Pairs[i].ID, Score: score}
	}
	c.JSON(http.StatusOK, dto.BatchScoreResponse{Scores: out})
}
