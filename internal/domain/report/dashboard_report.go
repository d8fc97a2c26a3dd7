package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// TenantFinancials is a read model for one tenant's money aggregates
// computed from invoices and cost records
type TenantFinancials struct {
	Revenue     valueobject.Money `json:"revenue"`      // sum of invoice subtotals
	TotalPaid   valueobject.Money `json:"total_paid"`   // sum of invoice payments received
	Outstanding valueobject.Money `json:"outstanding"`  // revenue - total paid
	TotalCost   valueobject.Money `json:"total_cost"`   // cost record totals incl. expenses
	GrossProfit valueobject.Money `json:"gross_profit"` // revenue - total cost
}

// RecentDocument is one row of a tenant's recent activity feed
type RecentDocument struct {
	ID           uuid.UUID         `json:"id"`
	Type         string            `json:"type"`
	Number       string            `json:"number"`
	CustomerName string            `json:"customer_name"`
	Status       string            `json:"status"`
	Subtotal     valueobject.Money `json:"subtotal"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TenantRollup is one tenant's contribution to the global rollup. Every
// row is tagged with its owning tenant so the aggregation service can
// re-verify ownership independently of the SQL filter.
type TenantRollup struct {
	TenantID    uuid.UUID         `json:"tenant_id"`
	TenantName  string            `json:"tenant_name"`
	Documents   int64             `json:"documents"`
	Revenue     valueobject.Money `json:"revenue"`
	Outstanding valueobject.Money `json:"outstanding"`
}

// StatsRepository defines the interface for dashboard statistic queries
type StatsRepository interface {
	// GetTenantFinancials computes the money aggregates for one tenant
	GetTenantFinancials(ctx context.Context, tenantID uuid.UUID) (*TenantFinancials, error)

	// GetRecentDocuments returns the tenant's most recent documents,
	// newest first
	GetRecentDocuments(ctx context.Context, tenantID uuid.UUID, limit int) ([]RecentDocument, error)

	// GetTenantRollups computes per-tenant rollups restricted to the
	// given tenant IDs. The restriction is applied in SQL; callers are
	// expected to verify the tenant tag on every returned row as well.
	GetTenantRollups(ctx context.Context, tenantIDs []uuid.UUID) ([]TenantRollup, error)
}
