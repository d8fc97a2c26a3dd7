package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/report"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// GormStatsRepository implements report.StatsRepository using GORM
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository creates a new GormStatsRepository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

// GetTenantFinancials computes the money aggregates for one tenant
func (r *GormStatsRepository) GetTenantFinancials(ctx context.Context, tenantID uuid.UUID) (*report.TenantFinancials, error) {
	type invoiceResult struct {
		Revenue   valueobject.Money
		TotalPaid valueobject.Money
	}
	var inv invoiceResult
	if err := r.db.WithContext(ctx).
		Table("documents").
		Select(`
			COALESCE(SUM(subtotal), 0) as revenue,
			COALESCE(SUM(total_paid), 0) as total_paid
		`).
		Where("tenant_id = ? AND type = ?", tenantID, billing.DocumentTypeInvoice).
		Scan(&inv).Error; err != nil {
		return nil, err
	}

	type costResult struct {
		ItemCost    valueobject.Money
		ExpenseCost valueobject.Money
	}
	var cost costResult
	if err := r.db.WithContext(ctx).
		Table("cost_records cr").
		Select(`
			COALESCE(SUM(cr.total_cost), 0) as item_cost,
			COALESCE((
				SELECT SUM(e.amount)
				FROM cost_record_expenses e
				JOIN cost_records cr2 ON cr2.id = e.record_id
				WHERE cr2.tenant_id = ?
			), 0) as expense_cost
		`, tenantID).
		Where("cr.tenant_id = ?", tenantID).
		Scan(&cost).Error; err != nil {
		return nil, err
	}

	totalCost := cost.ItemCost.Add(cost.ExpenseCost)
	return &report.TenantFinancials{
		Revenue:     inv.Revenue,
		TotalPaid:   inv.TotalPaid,
		Outstanding: inv.Revenue.Subtract(inv.TotalPaid),
		TotalCost:   totalCost,
		GrossProfit: inv.Revenue.Subtract(totalCost),
	}, nil
}

// GetRecentDocuments returns the tenant's most recent documents
func (r *GormStatsRepository) GetRecentDocuments(ctx context.Context, tenantID uuid.UUID, limit int) ([]report.RecentDocument, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []report.RecentDocument
	if err := r.db.WithContext(ctx).
		Table("documents").
		Select("id, type, number, customer_name, status, subtotal, created_at").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTenantRollups computes per-tenant rollups restricted to the given
// tenant IDs. The ownership restriction lives in both the JOIN and the
// WHERE clause; the calling service re-checks each row's tenant tag on
// top of that.
func (r *GormStatsRepository) GetTenantRollups(ctx context.Context, tenantIDs []uuid.UUID) ([]report.TenantRollup, error) {
	if len(tenantIDs) == 0 {
		return nil, nil
	}
	var rows []report.TenantRollup
	if err := r.db.WithContext(ctx).
		Table("tenants t").
		Select(`
			t.id as tenant_id,
			t.name as tenant_name,
			COUNT(d.id) as documents,
			COALESCE(SUM(CASE WHEN d.type = ? THEN d.subtotal ELSE 0 END), 0) as revenue,
			COALESCE(SUM(CASE WHEN d.type = ? THEN d.subtotal - d.total_paid ELSE 0 END), 0) as outstanding
		`, billing.DocumentTypeInvoice, billing.DocumentTypeInvoice).
		Joins("LEFT JOIN documents d ON d.tenant_id = t.id AND d.tenant_id IN ?", tenantIDs).
		Where("t.id IN ?", tenantIDs).
		Group("t.id, t.name").
		Order("t.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Ensure GormStatsRepository implements report.StatsRepository
var _ report.StatsRepository = (*GormStatsRepository)(nil)
