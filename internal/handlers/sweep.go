package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/middleware"
	"github.com/visadesk-io/visadesk/internal/sweep"
	"github.com/visadesk-io/visadesk/pkg/errors"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// SweepHandler exposes the visa sweep trigger and statistics endpoints.
type SweepHandler struct {
	engine     *sweep.Engine
	db         *gorm.DB
	cronSecret string
	now        func() time.Time
}

// NewSweepHandler constructs a SweepHandler. The cron secret authorises the
// unauthenticated GET trigger used by external schedulers.
func NewSweepHandler(engine *sweep.Engine, db *gorm.DB, cronSecret string) (*SweepHandler, error) {
	if engine == nil {
		return nil, errors.New("SWEEP_HANDLER", "sweep engine is required", http.StatusInternalServerError)
	}
	return &SweepHandler{
		engine:     engine,
		db:         db,
		cronSecret: cronSecret,
		now:        time.Now,
	}, nil
}

// RunCron triggers a sweep on behalf of an external cron caller. The bearer
// secret is checked before any data access; a mismatch performs zero reads.
func (h *SweepHandler) RunCron(c *gin.Context) {
	token := middleware.BearerToken(c)
	if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) != 1 {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	h.run(c, sweep.TriggerHTTP)
}

// RunManual triggers a sweep from an authenticated admin session.
func (h *SweepHandler) RunManual(c *gin.Context) {
	h.run(c, sweep.TriggerManual)
}

func (h *SweepHandler) run(c *gin.Context, trigger string) {
	summary, err := h.engine.Run(c.Request.Context(), trigger)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":   "visa sweep completed",
		"summary":   summary,
		"timestamp": summary.Timestamp.Format(time.RFC3339),
	})
}

// Stats returns the flag-independent expiry statistics view.
func (h *SweepHandler) Stats(c *gin.Context) {
	stats, err := sweep.ComputeStats(c.Request.Context(), h.db, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
