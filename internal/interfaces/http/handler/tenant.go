package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tenantapp "github.com/bizledger/backend/internal/application/tenant"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
)

// TenantHandler handles tenant management API endpoints. These operate
// on the tenant registry itself, so they take the tenant from the URL
// rather than from the X-Tenant-ID header.
type TenantHandler struct {
	BaseHandler
	tenants *tenantapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenants *tenantapp.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// Register handles POST /tenants
func (h *TenantHandler) Register(c *gin.Context) {
	var req tenantapp.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	t, err := h.tenants.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, t)
}

// GetByID handles GET /tenants/:id
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	t, err := h.tenants.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, t)
}

// GetBySlug handles GET /tenants/slug/:slug
func (h *TenantHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		h.BadRequest(c, "Tenant slug is required")
		return
	}

	t, err := h.tenants.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, t)
}

// List handles GET /tenants
func (h *TenantHandler) List(c *gin.Context) {
	var filter tenantapp.TenantListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	tenants, total, err := h.tenants.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, tenants, total, filter.Page, filter.PageSize)
}

// Suspend handles POST /tenants/:id/suspend
func (h *TenantHandler) Suspend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	t, err := h.tenants.Suspend(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, t)
}

// Activate handles POST /tenants/:id/activate
func (h *TenantHandler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	t, err := h.tenants.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, t)
}

// IncrementCounter handles POST /tenants/:id/counters/:counter/increment
func (h *TenantHandler) IncrementCounter(c *gin.Context) {
	id, counter, ok := h.counterParams(c)
	if !ok {
		return
	}

	var req tenantapp.CounterChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.tenants.IncrementCounter(c.Request.Context(), id, counter, req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// DecrementCounter handles POST /tenants/:id/counters/:counter/decrement.
// A decrement that would cross the zero floor returns 409 and leaves
// the counter untouched.
func (h *TenantHandler) DecrementCounter(c *gin.Context) {
	id, counter, ok := h.counterParams(c)
	if !ok {
		return
	}

	var req tenantapp.CounterChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.tenants.DecrementCounter(c.Request.Context(), id, counter, req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AdjustCounters handles POST /tenants/:id/counters/adjust
func (h *TenantHandler) AdjustCounters(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req tenantapp.AdjustCountersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.tenants.AdjustCounters(c.Request.Context(), id, req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *TenantHandler) counterParams(c *gin.Context) (uuid.UUID, tenant.Counter, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return uuid.Nil, "", false
	}

	counter := tenant.Counter(c.Param("counter"))
	if !counter.Valid() {
		h.BadRequest(c, "Unknown counter: "+c.Param("counter"))
		return uuid.Nil, "", false
	}

	return id, counter, true
}
