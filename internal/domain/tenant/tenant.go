package tenant

import (
	"strings"

	"github.com/bizledger/backend/internal/domain/shared"
)

// Counter names a per-tenant record counter. Counters are denormalized
// totals maintained alongside writes so dashboard reads never scan
// collections.
type Counter string

const (
	CounterCategories     Counter = "categories"
	CounterItems          Counter = "items"
	CounterServices       Counter = "services"
	CounterSuppliers      Counter = "suppliers"
	CounterQuotations     Counter = "quotations"
	CounterInvoices       Counter = "invoices"
	CounterMaterialSales  Counter = "material_sales"
	CounterPurchaseOrders Counter = "purchase_orders"
	CounterJobCosts       Counter = "job_costs"
	CounterSiteVisits     Counter = "site_visits"
)

// AllCounters lists every known counter in a stable order
var AllCounters = []Counter{
	CounterCategories,
	CounterItems,
	CounterServices,
	CounterSuppliers,
	CounterQuotations,
	CounterInvoices,
	CounterMaterialSales,
	CounterPurchaseOrders,
	CounterJobCosts,
	CounterSiteVisits,
}

// Valid reports whether the counter is one of the known set. Counter
// values reach SQL column names, so unknown values must be rejected
// before they get near a query.
func (c Counter) Valid() bool {
	for _, known := range AllCounters {
		if c == known {
			return true
		}
	}
	return false
}

// TenantStatus represents the lifecycle state of a tenant account
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is a registered company. The row carries the counter columns and
// the document numbering sequences; both are mutated only through atomic
// single-statement updates in the repository, never through aggregate
// save, so concurrent writers cannot lose increments.
type Tenant struct {
	shared.BaseAggregateRoot
	Name         string       `gorm:"size:255;not null"`
	Slug         string       `gorm:"size:100;uniqueIndex;not null"`
	ContactEmail string       `gorm:"size:255"`
	Status       TenantStatus `gorm:"size:20;not null;default:'active'"`

	Categories     int `gorm:"not null;default:0"`
	Items          int `gorm:"not null;default:0"`
	Services       int `gorm:"not null;default:0"`
	Suppliers      int `gorm:"not null;default:0"`
	Quotations     int `gorm:"not null;default:0"`
	Invoices       int `gorm:"not null;default:0"`
	MaterialSales  int `gorm:"not null;default:0"`
	PurchaseOrders int `gorm:"not null;default:0"`
	JobCosts       int `gorm:"not null;default:0"`
	SiteVisits     int `gorm:"not null;default:0"`

	QuotationSeq int `gorm:"not null;default:0"`
	InvoiceSeq   int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string { return "tenants" }

// NewTenant creates an active tenant with all counters at zero
func NewTenant(name, slug, contactEmail string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(strings.ToLower(slug))
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "tenant name is required")
	}
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "tenant slug is required")
	}

	t := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		ContactEmail:      strings.TrimSpace(contactEmail),
		Status:            TenantStatusActive,
	}
	t.AddDomainEvent(NewTenantRegisteredEvent(t))
	return t, nil
}

// IsActive reports whether the tenant may transact
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Suspend blocks further activity for the tenant
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.ErrInvalidState
	}
	t.Status = TenantStatusSuspended
	return nil
}

// Activate re-enables a suspended tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.ErrInvalidState
	}
	t.Status = TenantStatusActive
	return nil
}

// CounterValue returns the current value of the named counter
func (t *Tenant) CounterValue(c Counter) int {
	switch c {
	case CounterCategories:
		return t.Categories
	case CounterItems:
		return t.Items
	case CounterServices:
		return t.Services
	case CounterSuppliers:
		return t.Suppliers
	case CounterQuotations:
		return t.Quotations
	case CounterInvoices:
		return t.Invoices
	case CounterMaterialSales:
		return t.MaterialSales
	case CounterPurchaseOrders:
		return t.PurchaseOrders
	case CounterJobCosts:
		return t.JobCosts
	case CounterSiteVisits:
		return t.SiteVisits
	}
	return 0
}

// Counters returns a snapshot of all counter values
func (t *Tenant) Counters() map[Counter]int {
	snapshot := make(map[Counter]int, len(AllCounters))
	for _, c := range AllCounters {
		snapshot[c] = t.CounterValue(c)
	}
	return snapshot
}
