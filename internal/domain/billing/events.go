package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizledger/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeDocument = "Document"

// Event type constants
const (
	EventTypeDocumentCreated   = "DocumentCreated"
	EventTypeDocumentApproved  = "DocumentApproved"
	EventTypeDocumentRejected  = "DocumentRejected"
	EventTypeDocumentConverted = "DocumentConverted"
	EventTypePaymentRecorded   = "PaymentRecorded"
)

// ItemSnapshot carries line item state inside events so event handlers
// never have to load the aggregate
type ItemSnapshot struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Category  string          `json:"category"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Amount    decimal.Decimal `json:"amount"`
}

func snapshotItems(items []LineItem) []ItemSnapshot {
	out := make([]ItemSnapshot, len(items))
	for i, item := range items {
		out[i] = ItemSnapshot{
			ItemID:    item.ID,
			Category:  item.Category,
			Name:      item.Name,
			Unit:      item.Unit,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CostPrice: item.CostPrice,
			Amount:    item.Amount,
		}
	}
	return out
}

// DocumentCreatedEvent is raised when a new quotation is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID    `json:"document_id"`
	DocumentNo   int          `json:"document_no"`
	Number       string       `json:"number"`
	Type         DocumentType `json:"doc_type"`
	CustomerName string       `json:"customer_name"`
	ProjectTitle string       `json:"project_title"`
}

// NewDocumentCreatedEvent creates a DocumentCreatedEvent
func NewDocumentCreatedEvent(doc *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, doc.ID, doc.TenantID),
		DocumentID:      doc.ID,
		DocumentNo:      doc.DocumentNo,
		Number:          doc.Number,
		Type:            doc.Type,
		CustomerName:    doc.CustomerName,
		ProjectTitle:    doc.ProjectTitle,
	}
}

// EventType returns the event type name
func (e *DocumentCreatedEvent) EventType() string { return EventTypeDocumentCreated }

// DocumentApprovedEvent is raised when a document passes review. It
// triggers job-cost synchronization.
type DocumentApprovedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID       `json:"document_id"`
	DocumentNo   int             `json:"document_no"`
	Number       string          `json:"number"`
	Type         DocumentType    `json:"doc_type"`
	Status       DocumentStatus  `json:"status"`
	CustomerName string          `json:"customer_name"`
	ProjectTitle string          `json:"project_title"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Items        []ItemSnapshot  `json:"items"`
}

// NewDocumentApprovedEvent creates a DocumentApprovedEvent
func NewDocumentApprovedEvent(doc *Document) *DocumentApprovedEvent {
	return &DocumentApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentApproved, AggregateTypeDocument, doc.ID, doc.TenantID),
		DocumentID:      doc.ID,
		DocumentNo:      doc.DocumentNo,
		Number:          doc.Number,
		Type:            doc.Type,
		Status:          doc.Status,
		CustomerName:    doc.CustomerName,
		ProjectTitle:    doc.ProjectTitle,
		Subtotal:        doc.Subtotal,
		Items:           snapshotItems(doc.Items),
	}
}

// EventType returns the event type name
func (e *DocumentApprovedEvent) EventType() string { return EventTypeDocumentApproved }

// DocumentRejectedEvent is raised when a document is rejected
type DocumentRejectedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID `json:"document_id"`
	Number     string    `json:"number"`
	Reason     string    `json:"reason"`
}

// NewDocumentRejectedEvent creates a DocumentRejectedEvent
func NewDocumentRejectedEvent(doc *Document, reason string) *DocumentRejectedEvent {
	return &DocumentRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentRejected, AggregateTypeDocument, doc.ID, doc.TenantID),
		DocumentID:      doc.ID,
		Number:          doc.Number,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *DocumentRejectedEvent) EventType() string { return EventTypeDocumentRejected }

// DocumentConvertedEvent is raised when a quotation becomes an invoice.
// It carries both numbers so downstream records can re-link.
type DocumentConvertedEvent struct {
	shared.BaseDomainEvent
	DocumentID      uuid.UUID       `json:"document_id"`
	QuotationNumber string          `json:"quotation_number"`
	InvoiceNo       int             `json:"invoice_no"`
	InvoiceNumber   string          `json:"invoice_number"`
	Status          DocumentStatus  `json:"status"`
	CustomerName    string          `json:"customer_name"`
	ProjectTitle    string          `json:"project_title"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	InvoiceDate     *time.Time      `json:"invoice_date,omitempty"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Items           []ItemSnapshot  `json:"items"`
}

// NewDocumentConvertedEvent creates a DocumentConvertedEvent
func NewDocumentConvertedEvent(doc *Document, quotationNumber string) *DocumentConvertedEvent {
	return &DocumentConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentConverted, AggregateTypeDocument, doc.ID, doc.TenantID),
		DocumentID:      doc.ID,
		QuotationNumber: quotationNumber,
		InvoiceNo:       doc.DocumentNo,
		InvoiceNumber:   doc.Number,
		Status:          doc.Status,
		CustomerName:    doc.CustomerName,
		ProjectTitle:    doc.ProjectTitle,
		Subtotal:        doc.Subtotal,
		TotalPaid:       doc.TotalPaid,
		InvoiceDate:     doc.InvoiceDate,
		DueDate:         doc.DueDate,
		Items:           snapshotItems(doc.Items),
	}
}

// EventType returns the event type name
func (e *DocumentConvertedEvent) EventType() string { return EventTypeDocumentConverted }

// PaymentRecordedEvent is raised when an invoice receives a payment
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID       `json:"document_id"`
	DocumentNo int             `json:"document_no"`
	Number     string          `json:"number"`
	PaymentID  uuid.UUID       `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	Status     DocumentStatus  `json:"status"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(doc *Document, payment *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeDocument, doc.ID, doc.TenantID),
		DocumentID:      doc.ID,
		DocumentNo:      doc.DocumentNo,
		Number:          doc.Number,
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		TotalPaid:       doc.TotalPaid,
		Status:          doc.Status,
	}
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string { return EventTypePaymentRecorded }
