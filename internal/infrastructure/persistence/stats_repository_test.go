package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

func seedInvoice(t *testing.T, repo *GormDocumentRepository, tenantID uuid.UUID, documentNo int, subtotal, paid int64) {
	doc, err := billing.NewQuotation(tenantID, documentNo, "Customer", "Project", 30)
	require.NoError(t, err)
	_, err = doc.AddItem("Works", "Renovation works", "job", decimal.NewFromInt(1), decimal.NewFromInt(subtotal), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, doc.Approve())
	var payments []billing.Payment
	if paid > 0 {
		p, err := billing.NewPayment(doc.ID, decimal.NewFromInt(paid), "transfer", "", time.Now())
		require.NoError(t, err)
		payments = append(payments, *p)
	}
	require.NoError(t, doc.ConvertToInvoice(documentNo, nil, payments))
	doc.ClearDomainEvents()
	require.NoError(t, repo.SaveWithEvents(context.Background(), doc, nil))
}

func TestGormStatsRepository_GetTenantFinancials(t *testing.T) {
	db := setupTestDB(t)
	docRepo := NewGormDocumentRepository(db, nil, nil)
	statsRepo := NewGormStatsRepository(db)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")

	seedInvoice(t, docRepo, tn.ID, 1, 1000, 400)
	seedInvoice(t, docRepo, tn.ID, 2, 500, 500)
	// quotations do not count towards revenue
	seedQuotation(t, docRepo, tn, 3)

	fin, err := statsRepo.GetTenantFinancials(ctx, tn.ID)
	require.NoError(t, err)
	assert.True(t, fin.Revenue.Equals(valueobject.NewMoney(decimal.NewFromInt(1500))), "revenue was %s", fin.Revenue)
	assert.True(t, fin.TotalPaid.Equals(valueobject.NewMoney(decimal.NewFromInt(900))))
	assert.True(t, fin.Outstanding.Equals(valueobject.NewMoney(decimal.NewFromInt(600))))
}

func TestGormStatsRepository_GetTenantFinancialsEmpty(t *testing.T) {
	db := setupTestDB(t)
	statsRepo := NewGormStatsRepository(db)
	tn := seedTenant(t, db, "Acme", "acme")

	fin, err := statsRepo.GetTenantFinancials(context.Background(), tn.ID)
	require.NoError(t, err)
	assert.True(t, fin.Revenue.IsZero())
	assert.True(t, fin.Outstanding.IsZero())
	assert.True(t, fin.GrossProfit.IsZero())
}

func TestGormStatsRepository_GetRecentDocuments(t *testing.T) {
	db := setupTestDB(t)
	docRepo := NewGormDocumentRepository(db, nil, nil)
	statsRepo := NewGormStatsRepository(db)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")
	other := seedTenant(t, db, "Other", "other")

	seedQuotation(t, docRepo, tn, 1)
	seedQuotation(t, docRepo, tn, 2)
	seedQuotation(t, docRepo, other, 1)

	recent, err := statsRepo.GetRecentDocuments(ctx, tn.ID, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	for _, row := range recent {
		assert.Equal(t, "quotation", row.Type)
		assert.Equal(t, "Mrs. Tan", row.CustomerName)
	}
}

func TestGormStatsRepository_GetTenantRollups(t *testing.T) {
	db := setupTestDB(t)
	docRepo := NewGormDocumentRepository(db, nil, nil)
	statsRepo := NewGormStatsRepository(db)
	ctx := context.Background()

	alpha := seedTenant(t, db, "Alpha", "alpha")
	beta := seedTenant(t, db, "Beta", "beta")
	gamma := seedTenant(t, db, "Gamma", "gamma")

	seedInvoice(t, docRepo, alpha.ID, 1, 1000, 1000)
	seedQuotation(t, docRepo, alpha, 2)
	seedInvoice(t, docRepo, beta.ID, 1, 300, 0)
	seedInvoice(t, docRepo, gamma.ID, 1, 9999, 0)

	// gamma is excluded from the requested set; its rows must not appear
	rollups, err := statsRepo.GetTenantRollups(ctx, []uuid.UUID{alpha.ID, beta.ID})
	require.NoError(t, err)
	require.Len(t, rollups, 2)

	byName := make(map[string]int, len(rollups))
	for i, row := range rollups {
		byName[row.TenantName] = i
	}

	alphaRow := rollups[byName["Alpha"]]
	assert.Equal(t, alpha.ID, alphaRow.TenantID)
	assert.Equal(t, int64(2), alphaRow.Documents)
	assert.True(t, alphaRow.Revenue.Equals(valueobject.NewMoney(decimal.NewFromInt(1000))))
	assert.True(t, alphaRow.Outstanding.IsZero())

	betaRow := rollups[byName["Beta"]]
	assert.True(t, betaRow.Outstanding.Equals(valueobject.NewMoney(decimal.NewFromInt(300))))
}

func TestGormStatsRepository_GetTenantRollupsEmptySet(t *testing.T) {
	db := setupTestDB(t)
	statsRepo := NewGormStatsRepository(db)

	rollups, err := statsRepo.GetTenantRollups(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rollups)
}
