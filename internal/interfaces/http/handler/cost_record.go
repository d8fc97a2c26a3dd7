package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jobcostapp "github.com/bizledger/backend/internal/application/jobcost"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
)

// CostRecordHandler handles job cost record API endpoints. Records are
// created by the document sync handler, never through this API.
type CostRecordHandler struct {
	BaseHandler
	records *jobcostapp.CostRecordService
}

// NewCostRecordHandler creates a new CostRecordHandler
func NewCostRecordHandler(records *jobcostapp.CostRecordService) *CostRecordHandler {
	return &CostRecordHandler{records: records}
}

// GetByID handles GET /jobcost/records/:id
func (h *CostRecordHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID format")
		return
	}

	record, err := h.records.GetByID(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// GetByDocumentNo handles GET /jobcost/records/document/:document_no.
// An optional ?type=quotation|invoice disambiguates ordinals shared
// across document types.
func (h *CostRecordHandler) GetByDocumentNo(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	documentNo, err := strconv.Atoi(c.Param("document_no"))
	if err != nil || documentNo <= 0 {
		h.BadRequest(c, "Invalid document number")
		return
	}

	linkedType := c.Query("type")
	if linkedType != "" && linkedType != "quotation" && linkedType != "invoice" {
		h.BadRequest(c, "Invalid document type")
		return
	}

	record, err := h.records.GetByDocumentNo(c.Request.Context(), tenantID, documentNo, linkedType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// List handles GET /jobcost/records
func (h *CostRecordHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter jobcostapp.CostRecordListFilter
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

	records, total, err := h.records.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// SetItemCost handles PUT /jobcost/records/:id/items/:item_id/cost
func (h *CostRecordHandler) SetItemCost(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req jobcostapp.SetItemCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	record, err := h.records.SetItemCost(c.Request.Context(), tenantID, recordID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// ReplaceExpenses handles PUT /jobcost/records/:id/expenses
func (h *CostRecordHandler) ReplaceExpenses(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID format")
		return
	}

	var req jobcostapp.ReplaceExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	record, err := h.records.ReplaceExpenses(c.Request.Context(), tenantID, recordID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Delete handles DELETE /jobcost/records/:id
func (h *CostRecordHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID format")
		return
	}

	if err := h.records.Delete(c.Request.Context(), tenantID, recordID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
