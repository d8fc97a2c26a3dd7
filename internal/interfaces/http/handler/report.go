package handler

import (
	"github.com/gin-gonic/gin"

	reportapp "github.com/bizledger/backend/internal/application/report"
)

// ReportHandler handles dashboard and rollup API endpoints
type ReportHandler struct {
	BaseHandler
	stats  *reportapp.StatsService
	global *reportapp.GlobalStatsService
	primer *reportapp.Primer
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(stats *reportapp.StatsService, global *reportapp.GlobalStatsService, primer *reportapp.Primer) *ReportHandler {
	return &ReportHandler{
		stats:  stats,
		global: global,
		primer: primer,
	}
}

// GetDashboard handles GET /reports/dashboard
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	stats, err := h.stats.GetDashboard(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// RefreshDashboard handles POST /reports/dashboard/refresh. It
// recomputes the view and reprimes the cache regardless of what is
// cached now.
func (h *ReportHandler) RefreshDashboard(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	stats, err := h.stats.RefreshDashboard(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// GetCounters handles GET /reports/counters
func (h *ReportHandler) GetCounters(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	snapshot, err := h.stats.GetCounters(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, snapshot)
}

// GetGlobalStats handles GET /reports/global. The rollup spans all
// active tenants and needs no tenant header.
func (h *ReportHandler) GetGlobalStats(c *gin.Context) {
	stats, err := h.global.GetGlobalStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// PrimeRequest represents a cache priming request
type PrimeRequest struct {
	BatchSize int `json:"batch_size" binding:"omitempty,min=1,max=1000"`
}

// Prime handles POST /reports/prime. It walks every active tenant and
// warms the dashboard views plus the global rollup.
func (h *ReportHandler) Prime(c *gin.Context) {
	var req PrimeRequest
	// Allow empty body
	_ = c.ShouldBindJSON(&req)

	rep, err := h.primer.PrimeAll(c.Request.Context(), req.BatchSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rep)
}
