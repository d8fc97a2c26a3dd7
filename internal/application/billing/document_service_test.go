package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
)

// MockDocumentRepository is a mock implementation of billing.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string, docType billing.DocumentType) (*billing.Document, error) {
	args := m.Called(ctx, tenantID, number, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Document, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]billing.Document), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentRepository) SaveWithEvents(ctx context.Context, doc *billing.Document, events []shared.DomainEvent) error {
	args := m.Called(ctx, doc, events)
	return args.Error(0)
}

func (m *MockDocumentRepository) Convert(ctx context.Context, tenantID, id uuid.UUID, apply func(doc *billing.Document, invoiceNo int) error) (*billing.Document, error) {
	args := m.Called(ctx, tenantID, id, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockTenantRepository is a mock implementation of tenant.Repository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]tenant.Tenant, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]tenant.Tenant), args.Get(1).(int64), args.Error(2)
}

func (m *MockTenantRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantRepository) IncrementCounter(ctx context.Context, tenantID uuid.UUID, counter tenant.Counter, amount int) error {
	args := m.Called(ctx, tenantID, counter, amount)
	return args.Error(0)
}

func (m *MockTenantRepository) DecrementCounter(ctx context.Context, tenantID uuid.UUID, counter tenant.Counter, amount int) error {
	args := m.Called(ctx, tenantID, counter, amount)
	return args.Error(0)
}

func (m *MockTenantRepository) AdjustCounters(ctx context.Context, tenantID uuid.UUID, deltas map[tenant.Counter]int) error {
	args := m.Called(ctx, tenantID, deltas)
	return args.Error(0)
}

func (m *MockTenantRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, seq tenant.Sequence) (int, error) {
	args := m.Called(ctx, tenantID, seq)
	return args.Int(0), args.Error(1)
}

// recordingInvalidator records eviction requests for assertions
type recordingInvalidator struct {
	tenants  []string
	entities []cache.Entity
}

func (r *recordingInvalidator) EntityChanged(ctx context.Context, tenantID string, entities ...cache.Entity) {
	r.tenants = append(r.tenants, tenantID)
	r.entities = append(r.entities, entities...)
}

var testTenantID = uuid.New()

func newService(docs *MockDocumentRepository, tenants *MockTenantRepository) (*DocumentService, *recordingInvalidator) {
	inv := &recordingInvalidator{}
	return NewDocumentService(docs, tenants, inv, nil), inv
}

func approvedQuotation(t *testing.T) *billing.Document {
	t.Helper()
	doc, err := billing.NewQuotation(testTenantID, 7, "Mrs. Tan", "Kitchen renovation", 30)
	require.NoError(t, err)
	_, err = doc.AddItem("materials", "Cabinet", "pcs", decimal.NewFromInt(2), decimal.NewFromInt(500), decimal.NewFromInt(300))
	require.NoError(t, err)
	require.NoError(t, doc.Approve())
	doc.ClearDomainEvents()
	return doc
}

func TestDocumentService_CreateQuotation(t *testing.T) {
	t.Run("reserves ordinal and formats number", func(t *testing.T) {
		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, inv := newService(docs, tenants)
		ctx := context.Background()

		tenants.On("NextSequence", ctx, testTenantID, tenant.SequenceQuotation).Return(12, nil)
		docs.On("SaveWithEvents", ctx, mock.AnythingOfType("*billing.Document"), mock.Anything).Return(nil)
		tenants.On("IncrementCounter", ctx, testTenantID, tenant.CounterQuotations, 1).Return(nil)

		result, err := service.CreateQuotation(ctx, testTenantID, CreateQuotationRequest{
			CustomerName:     "Mrs. Tan",
			ProjectTitle:     "Kitchen renovation",
			PaymentTermsDays: 30,
			Items: []LineItemInput{
				{Name: "Cabinet", Unit: "pcs", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "012", result.Number)
		assert.Equal(t, "quotation", result.Type)
		assert.Equal(t, "pending", result.Status)
		assert.True(t, result.Subtotal.Equal(decimal.NewFromInt(1000)))
		assert.Contains(t, inv.entities, cache.EntityCounters)
		docs.AssertExpectations(t)
		tenants.AssertExpectations(t)
	})

	t.Run("sequence failure aborts creation", func(t *testing.T) {
		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		tenants.On("NextSequence", ctx, testTenantID, tenant.SequenceQuotation).Return(0, shared.ErrNotFound)

		_, err := service.CreateQuotation(ctx, testTenantID, CreateQuotationRequest{CustomerName: "Mrs. Tan"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		docs.AssertNotCalled(t, "SaveWithEvents", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("counter failure does not undo creation", func(t *testing.T) {
		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		tenants.On("NextSequence", ctx, testTenantID, tenant.SequenceQuotation).Return(1, nil)
		docs.On("SaveWithEvents", ctx, mock.Anything, mock.Anything).Return(nil)
		tenants.On("IncrementCounter", ctx, testTenantID, tenant.CounterQuotations, 1).Return(shared.ErrNotFound)

		result, err := service.CreateQuotation(ctx, testTenantID, CreateQuotationRequest{CustomerName: "Mrs. Tan"})

		require.NoError(t, err)
		assert.Equal(t, "001", result.Number)
	})
}

func TestDocumentService_Approve(t *testing.T) {
	t.Run("approves pending document", func(t *testing.T) {
		doc, err := billing.NewQuotation(testTenantID, 3, "Mrs. Tan", "", 0)
		require.NoError(t, err)
		_, err = doc.AddItem("", "Tiles", "box", decimal.NewFromInt(4), decimal.NewFromInt(80), decimal.Zero)
		require.NoError(t, err)
		doc.ClearDomainEvents()

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, inv := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)
		docs.On("SaveWithEvents", ctx, doc, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == billing.EventTypeDocumentApproved
		})).Return(nil)

		result, err := service.Approve(ctx, testTenantID, doc.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", result.Status)
		assert.Contains(t, inv.entities, cache.EntityDocument)
		docs.AssertExpectations(t)
	})

	t.Run("cannot approve empty document", func(t *testing.T) {
		doc, err := billing.NewQuotation(testTenantID, 3, "Mrs. Tan", "", 0)
		require.NoError(t, err)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)

		_, err = service.Approve(ctx, testTenantID, doc.ID)

		assert.True(t, shared.IsCode(err, "INVALID_STATE"))
		docs.AssertNotCalled(t, "SaveWithEvents", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing document", func(t *testing.T) {
		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		id := uuid.New()
		docs.On("FindByIDForTenant", ctx, testTenantID, id).Return(nil, shared.ErrNotFound)

		_, err := service.Approve(ctx, testTenantID, id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDocumentService_Update(t *testing.T) {
	t.Run("replaces items and resets review state", func(t *testing.T) {
		doc := approvedQuotation(t)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)
		docs.On("SaveWithEvents", ctx, doc, mock.Anything).Return(nil)

		result, err := service.Update(ctx, testTenantID, doc.ID, UpdateDocumentRequest{
			Items: []LineItemInput{
				{Name: "Worktop", Unit: "m", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(200)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "pending", result.Status)
		assert.Len(t, result.Items, 1)
		assert.True(t, result.Subtotal.Equal(decimal.NewFromInt(600)))
	})

	t.Run("nil items leaves list untouched", func(t *testing.T) {
		doc := approvedQuotation(t)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)
		docs.On("SaveWithEvents", ctx, doc, mock.Anything).Return(nil)

		name := "Mr. Lim"
		result, err := service.Update(ctx, testTenantID, doc.ID, UpdateDocumentRequest{CustomerName: &name})

		require.NoError(t, err)
		assert.Equal(t, "Mr. Lim", result.CustomerName)
		assert.Len(t, result.Items, 1)
	})

	t.Run("converted document is frozen", func(t *testing.T) {
		doc := approvedQuotation(t)
		require.NoError(t, doc.ConvertToInvoice(1, nil, nil))
		doc.ClearDomainEvents()

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)

		name := "Mr. Lim"
		_, err := service.Update(ctx, testTenantID, doc.ID, UpdateDocumentRequest{CustomerName: &name})

		assert.True(t, shared.IsCode(err, "INVALID_STATE"))
	})
}

func TestDocumentService_Convert(t *testing.T) {
	t.Run("applies conversion through repository", func(t *testing.T) {
		doc := approvedQuotation(t)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, inv := newService(docs, tenants)
		ctx := context.Background()

		docs.On("Convert", ctx, testTenantID, doc.ID, mock.Anything).
			Run(func(args mock.Arguments) {
				apply := args.Get(3).(func(doc *billing.Document, invoiceNo int) error)
				require.NoError(t, apply(doc, 4))
			}).
			Return(doc, nil)

		result, err := service.Convert(ctx, testTenantID, doc.ID, ConvertDocumentRequest{})

		require.NoError(t, err)
		assert.Equal(t, "invoice", result.Type)
		assert.Equal(t, "004", result.Number)
		assert.Equal(t, "converted", result.Status)
		assert.Contains(t, inv.entities, cache.EntityCounters)
	})

	t.Run("initial payment marks invoice paid", func(t *testing.T) {
		doc := approvedQuotation(t)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("Convert", ctx, testTenantID, doc.ID, mock.Anything).
			Run(func(args mock.Arguments) {
				apply := args.Get(3).(func(doc *billing.Document, invoiceNo int) error)
				require.NoError(t, apply(doc, 4))
			}).
			Return(doc, nil)

		result, err := service.Convert(ctx, testTenantID, doc.ID, ConvertDocumentRequest{
			InitialPayments: []PaymentInput{{Amount: decimal.NewFromInt(1000), Method: "transfer"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "paid", result.Status)
		assert.True(t, result.TotalPaid.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("invalid payment rejected before transaction", func(t *testing.T) {
		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		_, err := service.Convert(ctx, testTenantID, uuid.New(), ConvertDocumentRequest{
			InitialPayments: []PaymentInput{{Amount: decimal.NewFromInt(-5)}},
		})

		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
		docs.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentService_RecordPayment(t *testing.T) {
	t.Run("partial then paid", func(t *testing.T) {
		doc := approvedQuotation(t)
		require.NoError(t, doc.ConvertToInvoice(2, nil, nil))
		doc.ClearDomainEvents()

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)
		docs.On("SaveWithEvents", ctx, doc, mock.Anything).Return(nil)

		result, err := service.RecordPayment(ctx, testTenantID, doc.ID, RecordPaymentRequest{
			Amount: decimal.NewFromInt(400), Method: "cash",
		})

		require.NoError(t, err)
		assert.Equal(t, "partial", result.Status)
		assert.True(t, result.Outstanding.Equal(decimal.NewFromInt(600)))
	})

	t.Run("payments rejected on quotations", func(t *testing.T) {
		doc := approvedQuotation(t)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)

		_, err := service.RecordPayment(ctx, testTenantID, doc.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(100)})

		assert.True(t, shared.IsCode(err, "INVALID_STATE"))
	})
}

func TestDocumentService_Delete(t *testing.T) {
	t.Run("decrements matching counter", func(t *testing.T) {
		doc := approvedQuotation(t)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)
		docs.On("Delete", ctx, testTenantID, doc.ID).Return(nil)
		tenants.On("DecrementCounter", ctx, testTenantID, tenant.CounterQuotations, 1).Return(nil)

		err := service.Delete(ctx, testTenantID, doc.ID)

		require.NoError(t, err)
		tenants.AssertExpectations(t)
	})

	t.Run("floor guard trip is swallowed", func(t *testing.T) {
		doc := approvedQuotation(t)

		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		docs.On("FindByIDForTenant", ctx, testTenantID, doc.ID).Return(doc, nil)
		docs.On("Delete", ctx, testTenantID, doc.ID).Return(nil)
		tenants.On("DecrementCounter", ctx, testTenantID, tenant.CounterQuotations, 1).Return(shared.ErrGuardRejected)

		err := service.Delete(ctx, testTenantID, doc.ID)

		assert.NoError(t, err)
	})
}

func TestDocumentService_List(t *testing.T) {
	t.Run("applies defaults and filters", func(t *testing.T) {
		docs := new(MockDocumentRepository)
		tenants := new(MockTenantRepository)
		service, _ := newService(docs, tenants)
		ctx := context.Background()

		doc := approvedQuotation(t)
		status := "approved"
		docs.On("FindAllForTenant", ctx, testTenantID, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "created_at" && f.Filters["status"] == "approved"
		})).Return([]billing.Document{*doc}, int64(1), nil)

		items, total, err := service.List(ctx, testTenantID, DocumentListFilter{Status: &status})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "approved", items[0].Status)
	})
}
