package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizledger/backend/internal/domain/shared"
)

// DocumentType distinguishes quotations from invoices. A quotation becomes
// an invoice through conversion; the type never moves the other way.
type DocumentType string

const (
	DocumentTypeQuotation DocumentType = "quotation"
	DocumentTypeInvoice   DocumentType = "invoice"
)

// IsValid checks if the type is a known DocumentType
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeQuotation || t == DocumentTypeInvoice
}

// String returns the string representation
func (t DocumentType) String() string { return string(t) }

// DocumentStatus represents the lifecycle state of a document
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusApproved  DocumentStatus = "approved"
	StatusRejected  DocumentStatus = "rejected"
	StatusConverted DocumentStatus = "converted"
	StatusPartial   DocumentStatus = "partial"
	StatusPaid      DocumentStatus = "paid"
)

// IsValid checks if the status is a known DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusConverted, StatusPartial, StatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s DocumentStatus) String() string { return string(s) }

// CanTransitionTo checks if the status can move to the target status.
// Editing resets approved/rejected back to pending; conversion outcomes
// (converted, partial, paid) are reached only from approved.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusRejected || target == StatusConverted ||
			target == StatusPartial || target == StatusPaid || target == StatusPending
	case StatusRejected:
		return target == StatusPending
	case StatusPartial:
		return target == StatusPaid
	case StatusConverted:
		return target == StatusPartial || target == StatusPaid
	case StatusPaid:
		return false
	}
	return false
}

// FormatNumber renders a reserved sequence ordinal as the display number.
// Numbers are zero padded to three digits and keep growing past 999.
func FormatNumber(ordinal int) string {
	return fmt.Sprintf("%03d", ordinal)
}

// LineItem is a sellable line on a document. CostPrice is carried so that
// job costing can seed cost records, but it is optional at capture time.
type LineItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Category   string    `gorm:"size:100"`
	Name       string    `gorm:"size:255;not null"`
	Unit       string    `gorm:"size:50"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (LineItem) TableName() string { return "document_items" }

// NewLineItem creates a line item and derives its amount
func NewLineItem(documentID uuid.UUID, category, name, unit string, quantity, unitPrice, costPrice decimal.Decimal) (*LineItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Item name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unit price cannot be negative")
	}
	if costPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cost price cannot be negative")
	}

	now := time.Now()
	return &LineItem{
		ID:         uuid.New(),
		DocumentID: documentID,
		Category:   strings.TrimSpace(category),
		Name:       strings.TrimSpace(name),
		Unit:       unit,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		CostPrice:  costPrice,
		Amount:     quantity.Mul(unitPrice),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Payment records money received against an invoice
type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Method     string          `gorm:"size:50"`
	Note       string          `gorm:"size:500"`
	PaidAt     time.Time       `gorm:"not null"`
	CreatedAt  time.Time
}

// TableName returns the table name for GORM
func (Payment) TableName() string { return "document_payments" }

// NewPayment creates a payment record
func NewPayment(documentID uuid.UUID, amount decimal.Decimal, method, note string, paidAt time.Time) (*Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment amount must be positive")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return &Payment{
		ID:         uuid.New(),
		DocumentID: documentID,
		Amount:     amount,
		Method:     method,
		Note:       note,
		PaidAt:     paidAt,
		CreatedAt:  time.Now(),
	}, nil
}

// Document is the commercial document aggregate root covering both
// quotations and the invoices they become.
type Document struct {
	shared.TenantAggregateRoot
	Type             DocumentType   `gorm:"size:20;not null;index:idx_documents_tenant_type"`
	Status           DocumentStatus `gorm:"size:20;not null"`
	DocumentNo       int            `gorm:"not null"` // reserved sequence ordinal, unique per (tenant, type)
	Number           string         `gorm:"size:20;not null"` // zero-padded display form of DocumentNo
	CustomerName     string         `gorm:"size:255;not null"`
	ProjectTitle     string         `gorm:"size:500"`
	PaymentTermsDays int            `gorm:"not null;default:0"`
	QuoteDate        time.Time      `gorm:"not null"`
	InvoiceDate      *time.Time
	DueDate          *time.Time
	Items            []LineItem      `gorm:"foreignKey:DocumentID"`
	Payments         []Payment       `gorm:"foreignKey:DocumentID"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Remark           string          `gorm:"size:1000"`
	ApprovedAt       *time.Time
	RejectedAt       *time.Time
	ConvertedAt      *time.Time
	RejectReason     string `gorm:"size:500"`
}

// TableName returns the table name for GORM
func (Document) TableName() string { return "documents" }

// NewQuotation creates a pending quotation carrying a reserved document
// number ordinal.
func NewQuotation(tenantID uuid.UUID, documentNo int, customerName, projectTitle string, paymentTermsDays int) (*Document, error) {
	if documentNo <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document number must be positive")
	}
	if strings.TrimSpace(customerName) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer name cannot be empty")
	}
	if paymentTermsDays < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment terms cannot be negative")
	}

	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                DocumentTypeQuotation,
		Status:              StatusPending,
		DocumentNo:          documentNo,
		Number:              FormatNumber(documentNo),
		CustomerName:        strings.TrimSpace(customerName),
		ProjectTitle:        strings.TrimSpace(projectTitle),
		PaymentTermsDays:    paymentTermsDays,
		QuoteDate:           time.Now(),
		Subtotal:            decimal.Zero,
		TotalPaid:           decimal.Zero,
	}
	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

// AddItem appends a line item and recalculates the subtotal. Adding an
// item counts as an edit: an approved or rejected document drops back to
// pending.
func (d *Document) AddItem(category, name, unit string, quantity, unitPrice, costPrice decimal.Decimal) (*LineItem, error) {
	if !d.CanModify() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit a %s document", d.Status))
	}

	item, err := NewLineItem(d.ID, category, name, unit, quantity, unitPrice, costPrice)
	if err != nil {
		return nil, err
	}

	d.Items = append(d.Items, *item)
	d.afterEdit()
	return item, nil
}

// ReplaceItems swaps the full item list, used by document edit. The same
// pending reset applies.
func (d *Document) ReplaceItems(items []LineItem) error {
	if !d.CanModify() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit a %s document", d.Status))
	}
	for i := range items {
		items[i].DocumentID = d.ID
		items[i].Amount = items[i].Quantity.Mul(items[i].UnitPrice)
	}
	d.Items = items
	d.afterEdit()
	return nil
}

// RemoveItem deletes a line item by ID
func (d *Document) RemoveItem(itemID uuid.UUID) error {
	if !d.CanModify() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit a %s document", d.Status))
	}
	for idx, item := range d.Items {
		if item.ID == itemID {
			d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
			d.afterEdit()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Line item not found")
}

// UpdateDetails edits header fields, resetting the review state
func (d *Document) UpdateDetails(customerName, projectTitle string, paymentTermsDays int) error {
	if !d.CanModify() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit a %s document", d.Status))
	}
	if strings.TrimSpace(customerName) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Customer name cannot be empty")
	}
	if paymentTermsDays < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Payment terms cannot be negative")
	}

	d.CustomerName = strings.TrimSpace(customerName)
	d.ProjectTitle = strings.TrimSpace(projectTitle)
	d.PaymentTermsDays = paymentTermsDays
	d.afterEdit()
	return nil
}

// afterEdit recalculates totals and resets an approved or rejected
// document back to pending so it must be reviewed again.
func (d *Document) afterEdit() {
	d.recalculateTotals()
	if d.Status == StatusApproved || d.Status == StatusRejected {
		d.Status = StatusPending
		d.ApprovedAt = nil
		d.RejectedAt = nil
		d.RejectReason = ""
	}
	d.UpdatedAt = time.Now()
}

// Approve moves a pending document to approved
func (d *Document) Approve() error {
	if !d.Status.CanTransitionTo(StatusApproved) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a %s document", d.Status))
	}
	if len(d.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot approve a document without items")
	}

	now := time.Now()
	d.Status = StatusApproved
	d.ApprovedAt = &now
	d.RejectedAt = nil
	d.RejectReason = ""
	d.UpdatedAt = now
	d.AddDomainEvent(NewDocumentApprovedEvent(d))
	return nil
}

// Reject moves a pending or approved document to rejected
func (d *Document) Reject(reason string) error {
	if !d.Status.CanTransitionTo(StatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject a %s document", d.Status))
	}

	now := time.Now()
	d.Status = StatusRejected
	d.RejectedAt = &now
	d.RejectReason = reason
	d.UpdatedAt = now
	d.AddDomainEvent(NewDocumentRejectedEvent(d, reason))
	return nil
}

// ConvertToInvoice flips an approved quotation into an invoice. The new
// document number must come from the invoice sequence. Invoice date is
// now; due date derives from payment terms unless a custom one is given.
// Initial payments captured during conversion decide the resulting
// status: paid in full, partial, or plain converted.
func (d *Document) ConvertToInvoice(invoiceNo int, customDueDate *time.Time, initialPayments []Payment) error {
	if d.Type != DocumentTypeQuotation {
		return shared.NewDomainError("INVALID_STATE", "Only quotations can be converted")
	}
	if d.Status == StatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Cannot convert a rejected quotation")
	}
	if d.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot convert a %s quotation", d.Status))
	}
	if invoiceNo <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Invoice number must be positive")
	}

	now := time.Now()
	quotationNumber := d.Number

	d.Type = DocumentTypeInvoice
	d.DocumentNo = invoiceNo
	d.Number = FormatNumber(invoiceNo)
	d.InvoiceDate = &now
	if customDueDate != nil {
		due := *customDueDate
		d.DueDate = &due
	} else {
		due := now.AddDate(0, 0, d.PaymentTermsDays)
		d.DueDate = &due
	}

	for i := range initialPayments {
		initialPayments[i].DocumentID = d.ID
		d.Payments = append(d.Payments, initialPayments[i])
	}
	d.recalculateTotals()

	switch {
	case d.TotalPaid.GreaterThanOrEqual(d.Subtotal) && d.Subtotal.IsPositive():
		d.Status = StatusPaid
	case d.TotalPaid.IsPositive():
		d.Status = StatusPartial
	default:
		d.Status = StatusConverted
	}
	d.ConvertedAt = &now
	d.UpdatedAt = now

	d.AddDomainEvent(NewDocumentConvertedEvent(d, quotationNumber))
	return nil
}

// RecordPayment adds a payment to an invoice and rolls the status forward
// to partial or paid.
func (d *Document) RecordPayment(amount decimal.Decimal, method, note string, paidAt time.Time) (*Payment, error) {
	if d.Type != DocumentTypeInvoice {
		return nil, shared.NewDomainError("INVALID_STATE", "Payments can only be recorded on invoices")
	}
	if d.Status == StatusPaid {
		return nil, shared.NewDomainError("INVALID_STATE", "Invoice is already fully paid")
	}
	if d.Status == StatusRejected {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot record payment on a rejected invoice")
	}

	payment, err := NewPayment(d.ID, amount, method, note, paidAt)
	if err != nil {
		return nil, err
	}

	d.Payments = append(d.Payments, *payment)
	d.recalculateTotals()
	if d.TotalPaid.GreaterThanOrEqual(d.Subtotal) && d.Subtotal.IsPositive() {
		d.Status = StatusPaid
	} else {
		d.Status = StatusPartial
	}
	d.UpdatedAt = time.Now()
	d.AddDomainEvent(NewPaymentRecordedEvent(d, payment))
	return payment, nil
}

// recalculateTotals derives subtotal and total paid from the line items
// and payments
func (d *Document) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range d.Items {
		subtotal = subtotal.Add(item.Amount)
	}
	d.Subtotal = subtotal

	paid := decimal.Zero
	for _, p := range d.Payments {
		paid = paid.Add(p.Amount)
	}
	d.TotalPaid = paid
}

// Outstanding returns the unpaid balance
func (d *Document) Outstanding() decimal.Decimal {
	out := d.Subtotal.Sub(d.TotalPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// CanModify reports whether the document accepts edits. Once a quotation
// has been converted (or an invoice sees payments) the content is frozen.
func (d *Document) CanModify() bool {
	switch d.Status {
	case StatusConverted, StatusPartial, StatusPaid:
		return false
	}
	return true
}

// IsApproved reports whether the document is currently approved
func (d *Document) IsApproved() bool { return d.Status == StatusApproved }

// IsQuotation reports whether the document is still a quotation
func (d *Document) IsQuotation() bool { return d.Type == DocumentTypeQuotation }
