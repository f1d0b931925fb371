package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/rerankd"
	"github.com/soundprediction/rerankd/pkg/server/dto"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	scorer rerankd.Scorer
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(s rerankd.Scorer) *HealthHandler {
	return &HealthHandler{scorer: s}
}

// HealthCheck handles GET /health. It reports ok only once the model and
// tokenizer finished loading; before that the service is not healthy and
// must not be routed traffic.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.scorer == nil || !h.scorer.Ready() {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{OK: false})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		OK:     true,
		Model:  h.scorer.ModelID(),
		Device: h.scorer.Device(),
	})
}
