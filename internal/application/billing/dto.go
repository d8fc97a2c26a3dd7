package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizledger/backend/internal/domain/billing"
)

// LineItemInput represents a line item in create and update requests
type LineItemInput struct {
	Category  string          `json:"category" binding:"max=100"`
	Name      string          `json:"name" binding:"required,min=1,max=255"`
	Unit      string          `json:"unit" binding:"max=50"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

// CreateQuotationRequest represents a request to create a quotation
type CreateQuotationRequest struct {
	CustomerName     string          `json:"customer_name" binding:"required,min=1,max=255"`
	ProjectTitle     string          `json:"project_title" binding:"max=500"`
	PaymentTermsDays int             `json:"payment_terms_days" binding:"min=0"`
	Items            []LineItemInput `json:"items"`
}

// UpdateDocumentRequest represents a request to edit a document. A nil
// Items leaves the item list untouched; an empty slice clears it.
type UpdateDocumentRequest struct {
	CustomerName     *string         `json:"customer_name"`
	ProjectTitle     *string         `json:"project_title"`
	PaymentTermsDays *int            `json:"payment_terms_days"`
	Items            []LineItemInput `json:"items"`
}

// RejectDocumentRequest represents a request to reject a document
type RejectDocumentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PaymentInput represents one payment in requests
type PaymentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"max=50"`
	Note   string          `json:"note" binding:"max=500"`
	PaidAt *time.Time      `json:"paid_at"`
}

// ConvertDocumentRequest represents a quotation-to-invoice conversion
// request. Initial payments captured at conversion time decide the
// resulting invoice status.
type ConvertDocumentRequest struct {
	DueDate         *time.Time     `json:"due_date"`
	InitialPayments []PaymentInput `json:"initial_payments"`
}

// RecordPaymentRequest represents a request to record a payment on an invoice
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"max=50"`
	Note   string          `json:"note" binding:"max=500"`
	PaidAt *time.Time      `json:"paid_at"`
}

// DocumentListFilter represents filter options for document lists
type DocumentListFilter struct {
	Search       string  `form:"search"`
	Type         *string `form:"type"`
	Status       *string `form:"status"`
	CustomerName *string `form:"customer_name"`
	Page         int     `form:"page" binding:"omitempty,min=1"`
	PageSize     int     `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string  `form:"order_by"`
	OrderDir     string  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Category  string          `json:"category"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Note   string          `json:"note"`
	PaidAt time.Time       `json:"paid_at"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID               uuid.UUID          `json:"id"`
	TenantID         uuid.UUID          `json:"tenant_id"`
	Type             string             `json:"type"`
	Status           string             `json:"status"`
	Number           string             `json:"number"`
	CustomerName     string             `json:"customer_name"`
	ProjectTitle     string             `json:"project_title"`
	PaymentTermsDays int                `json:"payment_terms_days"`
	QuoteDate        time.Time          `json:"quote_date"`
	InvoiceDate      *time.Time         `json:"invoice_date,omitempty"`
	DueDate          *time.Time         `json:"due_date,omitempty"`
	Items            []LineItemResponse `json:"items"`
	Payments         []PaymentResponse  `json:"payments"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	TotalPaid        decimal.Decimal    `json:"total_paid"`
	Outstanding      decimal.Decimal    `json:"outstanding"`
	Remark           string             `json:"remark"`
	RejectReason     string             `json:"reject_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// DocumentListItemResponse represents a document row in list responses
type DocumentListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Number       string          `json:"number"`
	CustomerName string          `json:"customer_name"`
	ProjectTitle string          `json:"project_title"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToDocumentResponse converts a document aggregate to its response form
func ToDocumentResponse(doc *billing.Document) DocumentResponse {
	items := make([]LineItemResponse, len(doc.Items))
	for i, item := range doc.Items {
		items[i] = LineItemResponse{
			ID:        item.ID,
			Category:  item.Category,
			Name:      item.Name,
			Unit:      item.Unit,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CostPrice: item.CostPrice,
			Amount:    item.Amount,
		}
	}
	payments := make([]PaymentResponse, len(doc.Payments))
	for i, p := range doc.Payments {
		payments[i] = PaymentResponse{
			ID:     p.ID,
			Amount: p.Amount,
			Method: p.Method,
			Note:   p.Note,
			PaidAt: p.PaidAt,
		}
	}
	return DocumentResponse{
		ID:               doc.ID,
		TenantID:         doc.TenantID,
		Type:             doc.Type.String(),
		Status:           doc.Status.String(),
		Number:           doc.Number,
		CustomerName:     doc.CustomerName,
		ProjectTitle:     doc.ProjectTitle,
		PaymentTermsDays: doc.PaymentTermsDays,
		QuoteDate:        doc.QuoteDate,
		InvoiceDate:      doc.InvoiceDate,
		DueDate:          doc.DueDate,
		Items:            items,
		Payments:         payments,
		Subtotal:         doc.Subtotal,
		TotalPaid:        doc.TotalPaid,
		Outstanding:      doc.Outstanding(),
		Remark:           doc.Remark,
		RejectReason:     doc.RejectReason,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

// ToDocumentListItemResponses converts documents to their list row form
func ToDocumentListItemResponses(docs []billing.Document) []DocumentListItemResponse {
	out := make([]DocumentListItemResponse, len(docs))
	for i := range docs {
		doc := &docs[i]
		out[i] = DocumentListItemResponse{
			ID:           doc.ID,
			Type:         doc.Type.String(),
			Status:       doc.Status.String(),
			Number:       doc.Number,
			CustomerName: doc.CustomerName,
			ProjectTitle: doc.ProjectTitle,
			Subtotal:     doc.Subtotal,
			TotalPaid:    doc.TotalPaid,
			CreatedAt:    doc.CreatedAt,
		}
	}
	return out
}
