package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
)

func seedQuotation(t *testing.T, repo *GormDocumentRepository, tn *tenant.Tenant, documentNo int) *billing.Document {
	doc, err := billing.NewQuotation(tn.ID, documentNo, "Mrs. Tan", "Kitchen renovation", 30)
	require.NoError(t, err)
	_, err = doc.AddItem("Tiles", "Floor tile", "box", decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	doc.ClearDomainEvents()
	require.NoError(t, repo.SaveWithEvents(context.Background(), doc, nil))
	return doc
}

func approve(t *testing.T, repo *GormDocumentRepository, doc *billing.Document) {
	require.NoError(t, doc.Approve())
	doc.ClearDomainEvents()
	require.NoError(t, repo.SaveWithEvents(context.Background(), doc, nil))
}

func TestGormDocumentRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")

	doc := seedQuotation(t, repo, tn, 1)

	found, err := repo.FindByIDForTenant(ctx, tn.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentTypeQuotation, found.Type)
	assert.Equal(t, "001", found.Number)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Subtotal.Equal(decimal.NewFromInt(1000)))
}

func TestGormDocumentRepository_FindScopedToTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	ctx := context.Background()
	owner := seedTenant(t, db, "Owner", "owner")
	other := seedTenant(t, db, "Other", "other")

	doc := seedQuotation(t, repo, owner, 1)

	_, err := repo.FindByIDForTenant(ctx, other.ID, doc.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormDocumentRepository_FindByNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")

	seedQuotation(t, repo, tn, 7)

	found, err := repo.FindByNumber(ctx, tn.ID, "007", billing.DocumentTypeQuotation)
	require.NoError(t, err)
	assert.Equal(t, 7, found.DocumentNo)

	_, err = repo.FindByNumber(ctx, tn.ID, "007", billing.DocumentTypeInvoice)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormDocumentRepository_UpdateReplacesItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")

	doc := seedQuotation(t, repo, tn, 1)
	_, err := doc.AddItem("Labour", "Hacking works", "job", decimal.NewFromInt(1), decimal.NewFromInt(500), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithEvents(ctx, doc, nil))

	found, err := repo.FindByIDForTenant(ctx, tn.ID, doc.ID)
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)
	assert.True(t, found.Subtotal.Equal(decimal.NewFromInt(1500)))

	require.NoError(t, found.RemoveItem(found.Items[0].ID))
	require.NoError(t, repo.SaveWithEvents(ctx, found, nil))

	again, err := repo.FindByIDForTenant(ctx, tn.ID, doc.ID)
	require.NoError(t, err)
	assert.Len(t, again.Items, 1)
}

func TestGormDocumentRepository_OptimisticLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")

	doc := seedQuotation(t, repo, tn, 1)

	first, err := repo.FindByIDForTenant(ctx, tn.ID, doc.ID)
	require.NoError(t, err)
	second, err := repo.FindByIDForTenant(ctx, tn.ID, doc.ID)
	require.NoError(t, err)

	require.NoError(t, first.UpdateDetails("Mrs. Tan", "Kitchen and bathroom", 30))
	require.NoError(t, repo.SaveWithEvents(ctx, first, nil))

	require.NoError(t, second.UpdateDetails("Mrs. Tan", "Kitchen only", 30))
	err = repo.SaveWithEvents(ctx, second, nil)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormDocumentRepository_Convert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	tenantRepo := NewGormTenantRepository(db, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")
	require.NoError(t, tenantRepo.IncrementCounter(ctx, tn.ID, tenant.CounterQuotations, 1))

	doc := seedQuotation(t, repo, tn, 1)
	approve(t, repo, doc)

	converted, err := repo.Convert(ctx, tn.ID, doc.ID, func(d *billing.Document, invoiceNo int) error {
		return d.ConvertToInvoice(invoiceNo, nil, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentTypeInvoice, converted.Type)
	assert.Equal(t, billing.StatusConverted, converted.Status)
	assert.Equal(t, 1, converted.DocumentNo)
	assert.Equal(t, "001", converted.Number)

	// counters moved: one quotation became one invoice
	after, err := tenantRepo.FindByID(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Quotations)
	assert.Equal(t, 1, after.Invoices)
	assert.Equal(t, 1, after.InvoiceSeq)
}

func TestGormDocumentRepository_ConvertRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	tenantRepo := NewGormTenantRepository(db, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")
	require.NoError(t, tenantRepo.IncrementCounter(ctx, tn.ID, tenant.CounterQuotations, 1))

	// still pending, so the domain apply step refuses the conversion
	doc := seedQuotation(t, repo, tn, 1)

	_, err := repo.Convert(ctx, tn.ID, doc.ID, func(d *billing.Document, invoiceNo int) error {
		return d.ConvertToInvoice(invoiceNo, nil, nil)
	})
	require.Error(t, err)

	// the sequence reservation rolled back with everything else
	after, err := tenantRepo.FindByID(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.InvoiceSeq)
	assert.Equal(t, 1, after.Quotations)
	assert.Equal(t, 0, after.Invoices)

	unchanged, err := repo.FindByIDForTenant(ctx, tn.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentTypeQuotation, unchanged.Type)
	assert.Equal(t, billing.StatusPending, unchanged.Status)
}

func TestGormDocumentRepository_ConvertAllocatesDistinctInvoiceNumbers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	tenantRepo := NewGormTenantRepository(db, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")
	require.NoError(t, tenantRepo.IncrementCounter(ctx, tn.ID, tenant.CounterQuotations, 2))

	first := seedQuotation(t, repo, tn, 1)
	approve(t, repo, first)
	second := seedQuotation(t, repo, tn, 2)
	approve(t, repo, second)

	convertedFirst, err := repo.Convert(ctx, tn.ID, first.ID, func(d *billing.Document, invoiceNo int) error {
		return d.ConvertToInvoice(invoiceNo, nil, nil)
	})
	require.NoError(t, err)
	convertedSecond, err := repo.Convert(ctx, tn.ID, second.ID, func(d *billing.Document, invoiceNo int) error {
		return d.ConvertToInvoice(invoiceNo, nil, nil)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, convertedFirst.DocumentNo)
	assert.Equal(t, 2, convertedSecond.DocumentNo)
}

func TestGormDocumentRepository_ConvertGuardTripStillConverts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	tenantRepo := NewGormTenantRepository(db, nil)
	ctx := context.Background()
	// quotation counter left at zero: the decrement guard trips but the
	// conversion itself must still go through
	tn := seedTenant(t, db, "Acme", "acme")

	doc := seedQuotation(t, repo, tn, 1)
	approve(t, repo, doc)

	converted, err := repo.Convert(ctx, tn.ID, doc.ID, func(d *billing.Document, invoiceNo int) error {
		return d.ConvertToInvoice(invoiceNo, nil, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentTypeInvoice, converted.Type)

	after, err := tenantRepo.FindByID(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Quotations, "guarded decrement is a no-op at zero")
	assert.Equal(t, 1, after.Invoices)
}

func TestGormDocumentRepository_FindAllForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")

	seedQuotation(t, repo, tn, 1)
	doc := seedQuotation(t, repo, tn, 2)
	approve(t, repo, doc)

	filter := shared.DefaultFilter()
	filter.Filters["status"] = string(billing.StatusApproved)
	docs, total, err := repo.FindAllForTenant(ctx, tn.ID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].DocumentNo)
}

func TestGormDocumentRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, db, "Acme", "acme")

	doc := seedQuotation(t, repo, tn, 1)
	require.NoError(t, repo.Delete(ctx, tn.ID, doc.ID))

	_, err := repo.FindByIDForTenant(ctx, tn.ID, doc.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var itemCount int64
	require.NoError(t, db.Table("document_items").Where("document_id = ?", doc.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}
