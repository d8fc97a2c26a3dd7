package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
)

// ViewInvalidator evicts cached views after a write
type ViewInvalidator interface {
	EntityChanged(ctx context.Context, tenantID string, entities ...cache.Entity)
}

// DocumentService handles quotation and invoice business operations
type DocumentService struct {
	docs        billing.DocumentRepository
	tenants     tenant.Repository
	invalidator ViewInvalidator
	logger      *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	docs billing.DocumentRepository,
	tenants tenant.Repository,
	invalidator ViewInvalidator,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		docs:        docs,
		tenants:     tenants,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateQuotation reserves the next quotation ordinal and creates a
// pending quotation carrying it. The display number is the zero padded
// form of the reserved ordinal.
func (s *DocumentService) CreateQuotation(ctx context.Context, tenantID uuid.UUID, req CreateQuotationRequest) (*DocumentResponse, error) {
	ordinal, err := s.tenants.NextSequence(ctx, tenantID, tenant.SequenceQuotation)
	if err != nil {
		return nil, err
	}

	doc, err := billing.NewQuotation(tenantID, ordinal, req.CustomerName, req.ProjectTitle, req.PaymentTermsDays)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, err := doc.AddItem(item.Category, item.Name, item.Unit, item.Quantity, item.UnitPrice, item.CostPrice); err != nil {
			return nil, err
		}
	}

	if err := s.docs.SaveWithEvents(ctx, doc, doc.GetDomainEvents()); err != nil {
		return nil, err
	}

	// The document is committed at this point; a counter failure must not
	// undo the creation. The counter drifts until the next adjustment.
	if err := s.tenants.IncrementCounter(ctx, tenantID, tenant.CounterQuotations, 1); err != nil {
		s.logger.Warn("failed to increment quotation counter",
			zap.String("tenant_id", tenantID.String()),
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityDocument, cache.EntityCounters)

	response := ToDocumentResponse(doc)
	return &response, nil
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, tenantID, docID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docs.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// GetByNumber retrieves a document by display number and type
func (s *DocumentService) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string, docType billing.DocumentType) (*DocumentResponse, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown document type")
	}
	doc, err := s.docs.FindByNumber(ctx, tenantID, number, docType)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// List retrieves documents with filtering and pagination
func (s *DocumentService) List(ctx context.Context, tenantID uuid.UUID, filter DocumentListFilter) ([]DocumentListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Type != nil {
		domainFilter.Filters["type"] = *filter.Type
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}
	if filter.CustomerName != nil {
		domainFilter.Filters["customer_name"] = *filter.CustomerName
	}

	docs, total, err := s.docs.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToDocumentListItemResponses(docs), total, nil
}

// Update edits a document's header and, when Items is non-nil, replaces
// its item list. Editing an approved or rejected document resets it back
// to pending review.
func (s *DocumentService) Update(ctx context.Context, tenantID, docID uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	doc, err := s.docs.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}

	customerName := doc.CustomerName
	if req.CustomerName != nil {
		customerName = *req.CustomerName
	}
	projectTitle := doc.ProjectTitle
	if req.ProjectTitle != nil {
		projectTitle = *req.ProjectTitle
	}
	paymentTerms := doc.PaymentTermsDays
	if req.PaymentTermsDays != nil {
		paymentTerms = *req.PaymentTermsDays
	}
	if err := doc.UpdateDetails(customerName, projectTitle, paymentTerms); err != nil {
		return nil, err
	}

	if req.Items != nil {
		items := make([]billing.LineItem, 0, len(req.Items))
		for _, input := range req.Items {
			item, err := billing.NewLineItem(doc.ID, input.Category, input.Name, input.Unit, input.Quantity, input.UnitPrice, input.CostPrice)
			if err != nil {
				return nil, err
			}
			items = append(items, *item)
		}
		if err := doc.ReplaceItems(items); err != nil {
			return nil, err
		}
	}

	if err := s.docs.SaveWithEvents(ctx, doc, doc.GetDomainEvents()); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityDocument)

	response := ToDocumentResponse(doc)
	return &response, nil
}

// Approve moves a pending document to approved. The approval event feeds
// job-cost synchronization through the outbox.
func (s *DocumentService) Approve(ctx context.Context, tenantID, docID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docs.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.Approve(); err != nil {
		return nil, err
	}
	if err := s.docs.SaveWithEvents(ctx, doc, doc.GetDomainEvents()); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityDocument)

	response := ToDocumentResponse(doc)
	return &response, nil
}

// Reject moves a pending or approved document to rejected
func (s *DocumentService) Reject(ctx context.Context, tenantID, docID uuid.UUID, req RejectDocumentRequest) (*DocumentResponse, error) {
	doc, err := s.docs.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.Reject(req.Reason); err != nil {
		return nil, err
	}
	if err := s.docs.SaveWithEvents(ctx, doc, doc.GetDomainEvents()); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityDocument)

	response := ToDocumentResponse(doc)
	return &response, nil
}

// Convert runs the quotation-to-invoice conversion. Sequence reservation,
// document mutation, counter adjustment and event writes share one
// transaction; any failure rolls the whole conversion back.
func (s *DocumentService) Convert(ctx context.Context, tenantID, docID uuid.UUID, req ConvertDocumentRequest) (*DocumentResponse, error) {
	initialPayments := make([]billing.Payment, 0, len(req.InitialPayments))
	for _, input := range req.InitialPayments {
		payment, err := billing.NewPayment(docID, input.Amount, input.Method, input.Note, derefTime(input.PaidAt))
		if err != nil {
			return nil, err
		}
		initialPayments = append(initialPayments, *payment)
	}

	doc, err := s.docs.Convert(ctx, tenantID, docID, func(doc *billing.Document, invoiceNo int) error {
		return doc.ConvertToInvoice(invoiceNo, req.DueDate, initialPayments)
	})
	if err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityDocument, cache.EntityCounters)

	response := ToDocumentResponse(doc)
	return &response, nil
}

// RecordPayment adds a payment to an invoice and rolls its status forward
func (s *DocumentService) RecordPayment(ctx context.Context, tenantID, docID uuid.UUID, req RecordPaymentRequest) (*DocumentResponse, error) {
	doc, err := s.docs.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	if _, err := doc.RecordPayment(req.Amount, req.Method, req.Note, derefTime(req.PaidAt)); err != nil {
		return nil, err
	}
	if err := s.docs.SaveWithEvents(ctx, doc, doc.GetDomainEvents()); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityDocument)

	response := ToDocumentResponse(doc)
	return &response, nil
}

// Delete removes a document and walks its counter back down. A floor
// guard trip on the counter is logged and ignored so deletion always
// succeeds.
func (s *DocumentService) Delete(ctx context.Context, tenantID, docID uuid.UUID) error {
	doc, err := s.docs.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, tenantID, docID); err != nil {
		return err
	}

	counter := tenant.CounterQuotations
	if doc.Type == billing.DocumentTypeInvoice {
		counter = tenant.CounterInvoices
	}
	if err := s.tenants.DecrementCounter(ctx, tenantID, counter, 1); err != nil {
		if shared.IsCode(err, "GUARD_REJECTED") {
			s.logger.Warn("counter floor guard tripped during document delete",
				zap.String("tenant_id", tenantID.String()),
				zap.String("counter", string(counter)),
			)
		} else {
			s.logger.Warn("failed to decrement document counter",
				zap.String("tenant_id", tenantID.String()),
				zap.String("counter", string(counter)),
				zap.Error(err),
			)
		}
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityDocument, cache.EntityCounters)
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
