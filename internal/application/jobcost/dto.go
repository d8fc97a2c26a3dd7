package jobcost

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizledger/backend/internal/domain/jobcost"
)

// SetItemCostRequest represents an operator cost price entry
type SetItemCostRequest struct {
	CostPrice decimal.Decimal `json:"cost_price" binding:"required"`
}

// ExpenseInput represents one miscellaneous expense in requests
type ExpenseInput struct {
	Label  string          `json:"label" binding:"required,min=1,max=255"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ReplaceExpensesRequest represents a full replacement of a record's
// expense list
type ReplaceExpensesRequest struct {
	Expenses []ExpenseInput `json:"expenses"`
}

// CostRecordListFilter represents filter options for cost record lists
type CostRecordListFilter struct {
	Search     string  `form:"search"`
	LinkedType *string `form:"linked_type"`
	Page       int     `form:"page" binding:"omitempty,min=1"`
	PageSize   int     `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string  `form:"order_by"`
	OrderDir   string  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CostItemResponse represents a costed line in API responses
type CostItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Category  string          `json:"category"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	SellPrice decimal.Decimal `json:"sell_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	CostTotal decimal.Decimal `json:"cost_total"`
}

// ExpenseResponse represents a miscellaneous expense in API responses
type ExpenseResponse struct {
	ID     uuid.UUID       `json:"id"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CostRecordResponse represents a cost record in API responses
type CostRecordResponse struct {
	ID           uuid.UUID          `json:"id"`
	TenantID     uuid.UUID          `json:"tenant_id"`
	DocumentID   uuid.UUID          `json:"document_id"`
	DocumentNo   int                `json:"document_no"`
	LinkedType   string             `json:"linked_type"`
	LinkedNumber string             `json:"linked_number"`
	LinkedStatus string             `json:"linked_status"`
	CustomerName string             `json:"customer_name"`
	ProjectTitle string             `json:"project_title"`
	Items        []CostItemResponse `json:"items"`
	Expenses     []ExpenseResponse  `json:"expenses"`
	TotalSell    decimal.Decimal    `json:"total_sell"`
	TotalCost    decimal.Decimal    `json:"total_cost"`
	Profit       decimal.Decimal    `json:"profit"`
	LastSyncedAt *time.Time         `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// CostRecordListItemResponse represents a cost record row in list responses
type CostRecordListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	DocumentNo   int             `json:"document_no"`
	LinkedType   string          `json:"linked_type"`
	LinkedNumber string          `json:"linked_number"`
	LinkedStatus string          `json:"linked_status"`
	CustomerName string          `json:"customer_name"`
	ProjectTitle string          `json:"project_title"`
	TotalSell    decimal.Decimal `json:"total_sell"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Profit       decimal.Decimal `json:"profit"`
}

// ToCostRecordResponse converts a cost record aggregate to its response form
func ToCostRecordResponse(record *jobcost.CostRecord) CostRecordResponse {
	items := make([]CostItemResponse, len(record.Items))
	for i, item := range record.Items {
		items[i] = CostItemResponse{
			ID:        item.ID,
			Category:  item.Category,
			Name:      item.Name,
			Unit:      item.Unit,
			Quantity:  item.Quantity,
			SellPrice: item.SellPrice,
			CostPrice: item.CostPrice,
			CostTotal: item.CostTotal,
		}
	}
	expenses := make([]ExpenseResponse, len(record.Expenses))
	for i, e := range record.Expenses {
		expenses[i] = ExpenseResponse{ID: e.ID, Label: e.Label, Amount: e.Amount}
	}
	return CostRecordResponse{
		ID:           record.ID,
		TenantID:     record.TenantID,
		DocumentID:   record.DocumentID,
		DocumentNo:   record.DocumentNo,
		LinkedType:   record.LinkedType,
		LinkedNumber: record.LinkedNumber,
		LinkedStatus: record.LinkedStatus,
		CustomerName: record.CustomerName,
		ProjectTitle: record.ProjectTitle,
		Items:        items,
		Expenses:     expenses,
		TotalSell:    record.TotalSell,
		TotalCost:    record.TotalCost,
		Profit:       record.Profit(),
		LastSyncedAt: record.LastSyncedAt,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

// ToCostRecordListItemResponses converts records to their list row form
func ToCostRecordListItemResponses(records []jobcost.CostRecord) []CostRecordListItemResponse {
	out := make([]CostRecordListItemResponse, len(records))
	for i := range records {
		r := &records[i]
		out[i] = CostRecordListItemResponse{
			ID:           r.ID,
			DocumentNo:   r.DocumentNo,
			LinkedType:   r.LinkedType,
			LinkedNumber: r.LinkedNumber,
			LinkedStatus: r.LinkedStatus,
			CustomerName: r.CustomerName,
			ProjectTitle: r.ProjectTitle,
			TotalSell:    r.TotalSell,
			TotalCost:    r.TotalCost,
			Profit:       r.Profit(),
		}
	}
	return out
}
