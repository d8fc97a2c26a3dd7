package jobcost

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizledger/backend/internal/domain/shared"
)

// SourceItem is a line item snapshot coming from the linked commercial
// document. The application layer maps document events into this shape so
// the job-cost context never imports the billing aggregate.
type SourceItem struct {
	Category  string
	Name      string
	Unit      string
	Quantity  decimal.Decimal
	SellPrice decimal.Decimal
	CostPrice decimal.Decimal
}

// CostItem is a costed line on a job-cost record. CostPrice starts from
// the source document and is thereafter owned by the operator: document
// re-syncs refresh everything else but leave an operator-entered cost
// price alone.
type CostItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RecordID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category  string          `gorm:"size:100"`
	Name      string          `gorm:"size:255;not null"`
	Unit      string          `gorm:"size:50"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SellPrice decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CostPrice decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CostTotal decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (CostItem) TableName() string { return "cost_record_items" }

// Expense is a miscellaneous job expense outside the document lines
type Expense struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RecordID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Label     string          `gorm:"size:255;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (Expense) TableName() string { return "cost_record_expenses" }

// NewExpense creates an expense entry
func NewExpense(recordID uuid.UUID, label string, amount decimal.Decimal) (*Expense, error) {
	if strings.TrimSpace(label) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Expense label cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Expense amount cannot be negative")
	}
	return &Expense{
		ID:        uuid.New(),
		RecordID:  recordID,
		Label:     strings.TrimSpace(label),
		Amount:    amount,
		CreatedAt: time.Now(),
	}, nil
}

// CostRecord is the job-costing aggregate mirroring one commercial
// document. DocumentID is the stable link and the per-tenant uniqueness
// key. DocumentNo follows the document through conversion; quotation and
// invoice ordinals come from independent sequences, so a record re-keyed
// to an invoice ordinal may share its number with a quotation record.
type CostRecord struct {
	shared.TenantAggregateRoot
	DocumentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentNo   int       `gorm:"not null;index"`
	LinkedType   string    `gorm:"size:20"`
	LinkedNumber string    `gorm:"size:20"`
	LinkedStatus string    `gorm:"size:20"`
	CustomerName string    `gorm:"size:255"`
	ProjectTitle string    `gorm:"size:500"`
	Items        []CostItem      `gorm:"foreignKey:RecordID"`
	Expenses     []Expense       `gorm:"foreignKey:RecordID"`
	TotalSell    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	LastSyncedAt *time.Time
}

// TableName returns the table name for GORM
func (CostRecord) TableName() string { return "cost_records" }

// NewCostRecord creates a record for a document on its first sync
func NewCostRecord(tenantID, documentID uuid.UUID, documentNo int, linkedType, linkedNumber, linkedStatus, customerName, projectTitle string) (*CostRecord, error) {
	if documentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document ID cannot be empty")
	}
	if documentNo <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document number must be positive")
	}

	return &CostRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DocumentID:          documentID,
		DocumentNo:          documentNo,
		LinkedType:          linkedType,
		LinkedNumber:        linkedNumber,
		LinkedStatus:        linkedStatus,
		CustomerName:        customerName,
		ProjectTitle:        projectTitle,
		TotalSell:           decimal.Zero,
		TotalCost:           decimal.Zero,
	}, nil
}

// MergeSourceItems replaces the item list with the document's current
// lines while carrying operator-entered cost prices forward. Matching is
// by item name: a renamed item is treated as new and loses its manual
// cost. Zero is a valid operator entry and survives like any other value.
func (r *CostRecord) MergeSourceItems(source []SourceItem) {
	existing := make(map[string]decimal.Decimal, len(r.Items))
	for _, item := range r.Items {
		existing[item.Name] = item.CostPrice
	}

	now := time.Now()
	merged := make([]CostItem, 0, len(source))
	for _, src := range source {
		costPrice := src.CostPrice
		if kept, ok := existing[src.Name]; ok {
			costPrice = kept
		}
		merged = append(merged, CostItem{
			ID:        uuid.New(),
			RecordID:  r.ID,
			Category:  src.Category,
			Name:      src.Name,
			Unit:      src.Unit,
			Quantity:  src.Quantity,
			SellPrice: src.SellPrice,
			CostPrice: costPrice,
			CostTotal: src.Quantity.Mul(costPrice),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	r.Items = merged
	r.LastSyncedAt = &now
	r.recalculateTotals()
	r.UpdatedAt = now
}

// Relink refreshes the mirrored document fields, used on conversion and
// status changes
func (r *CostRecord) Relink(documentNo int, linkedType, linkedNumber, linkedStatus string) {
	if documentNo > 0 {
		r.DocumentNo = documentNo
	}
	if linkedType != "" {
		r.LinkedType = linkedType
	}
	if linkedNumber != "" {
		r.LinkedNumber = linkedNumber
	}
	if linkedStatus != "" {
		r.LinkedStatus = linkedStatus
	}
	r.UpdatedAt = time.Now()
}

// UpdateHeader refreshes the mirrored customer and project fields
func (r *CostRecord) UpdateHeader(customerName, projectTitle string) {
	r.CustomerName = customerName
	r.ProjectTitle = projectTitle
	r.UpdatedAt = time.Now()
}

// SetItemCost records an operator-entered cost price for one item
func (r *CostRecord) SetItemCost(itemID uuid.UUID, costPrice decimal.Decimal) error {
	if costPrice.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Cost price cannot be negative")
	}
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			r.Items[idx].CostPrice = costPrice
			r.Items[idx].CostTotal = r.Items[idx].Quantity.Mul(costPrice)
			r.Items[idx].UpdatedAt = time.Now()
			r.recalculateTotals()
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Cost item not found")
}

// ReplaceExpenses swaps the miscellaneous expense list
func (r *CostRecord) ReplaceExpenses(expenses []Expense) {
	for i := range expenses {
		expenses[i].RecordID = r.ID
	}
	r.Expenses = expenses
	r.recalculateTotals()
	r.UpdatedAt = time.Now()
}

// recalculateTotals derives sell and cost totals from items and expenses
func (r *CostRecord) recalculateTotals() {
	sell := decimal.Zero
	cost := decimal.Zero
	for _, item := range r.Items {
		sell = sell.Add(item.Quantity.Mul(item.SellPrice))
		cost = cost.Add(item.CostTotal)
	}
	for _, e := range r.Expenses {
		cost = cost.Add(e.Amount)
	}
	r.TotalSell = sell
	r.TotalCost = cost
}

// Profit returns sell total minus cost total
func (r *CostRecord) Profit() decimal.Decimal {
	return r.TotalSell.Sub(r.TotalCost)
}
