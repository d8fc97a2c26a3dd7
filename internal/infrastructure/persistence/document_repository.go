package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
)

// GormDocumentRepository implements billing.DocumentRepository using GORM
type GormDocumentRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
	logger      *zap.Logger
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB, outboxSaver shared.OutboxEventSaver, logger *zap.Logger) *GormDocumentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormDocumentRepository{db: db, outboxSaver: outboxSaver, logger: logger}
}

// FindByIDForTenant loads a document with items and payments
func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Document, error) {
	var doc billing.Document
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByNumber loads a document by display number and type for a tenant
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string, docType billing.DocumentType) (*billing.Document, error) {
	var doc billing.Document
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("tenant_id = ? AND number = ? AND type = ?", tenantID, number, docType).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindAllForTenant lists documents for a tenant with filtering
func (r *GormDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Document, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&billing.Document{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Paged() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var docs []billing.Document
	if err := query.Preload("Items").Preload("Payments").Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// SaveWithEvents persists the document and writes the given events to the
// outbox in one transaction
func (r *GormDocumentRepository) SaveWithEvents(ctx context.Context, doc *billing.Document, events []shared.DomainEvent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.persistDocument(ctx, tx, doc); err != nil {
			return err
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	doc.ClearDomainEvents()
	return nil
}

// Convert runs the quotation-to-invoice conversion in one transaction:
// sequence reservation, document mutation, counter adjustment and event
// persistence all commit or roll back together.
func (r *GormDocumentRepository) Convert(ctx context.Context, tenantID, id uuid.UUID, apply func(doc *billing.Document, invoiceNo int) error) (*billing.Document, error) {
	var converted *billing.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoiceNo int
		if err := nextSequenceInTx(tx, tenantID, tenant.SequenceInvoice, &invoiceNo); err != nil {
			return err
		}

		var doc billing.Document
		if err := tx.Preload("Items").Preload("Payments").
			Where("tenant_id = ? AND id = ?", tenantID, id).
			First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := apply(&doc, invoiceNo); err != nil {
			return err
		}

		if err := r.persistDocument(ctx, tx, &doc); err != nil {
			return err
		}

		if err := r.adjustConversionCounters(tx, tenantID); err != nil {
			return err
		}

		if r.outboxSaver != nil {
			if events := doc.GetDomainEvents(); len(events) > 0 {
				if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
					return err
				}
			}
		}

		doc.ClearDomainEvents()
		converted = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return converted, nil
}

// adjustConversionCounters moves one document from the quotation counter to
// the invoice counter. When the quotation counter is already at zero its
// floor guard trips; the invoice increment still applies and the skipped
// decrement is logged rather than failing the conversion.
func (r *GormDocumentRepository) adjustConversionCounters(tx *gorm.DB, tenantID uuid.UUID) error {
	result := tx.Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Where("quotations >= ?", 1).
		Updates(map[string]interface{}{
			"quotations": gorm.Expr("quotations - 1"),
			"invoices":   gorm.Expr("invoices + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	r.logger.Warn("quotation counter floor guard tripped during conversion, skipping decrement",
		zap.String("tenant_id", tenantID.String()))

	result = tx.Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]interface{}{
			"invoices":   gorm.Expr("invoices + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// persistDocument writes the document row with an optimistic version check
// and replaces its items and payments
func (r *GormDocumentRepository) persistDocument(ctx context.Context, tx *gorm.DB, doc *billing.Document) error {
	var currentVersion int
	err := tx.Model(&billing.Document{}).
		Where("id = ?", doc.ID).
		Select("version").
		Scan(&currentVersion).Error
	if err != nil {
		return err
	}

	if currentVersion == 0 {
		doc.UpdatedAt = time.Now()
		if err := tx.Omit(clause.Associations).Create(doc).Error; err != nil {
			return err
		}
		return r.syncChildren(tx, doc)
	}

	if currentVersion != doc.Version {
		return shared.ErrConcurrencyConflict
	}

	doc.Version++
	doc.UpdatedAt = time.Now()

	result := tx.Model(&billing.Document{}).
		Where("id = ? AND version = ?", doc.ID, currentVersion).
		Updates(map[string]interface{}{
			"type":               doc.Type,
			"status":             doc.Status,
			"document_no":        doc.DocumentNo,
			"number":             doc.Number,
			"customer_name":      doc.CustomerName,
			"project_title":      doc.ProjectTitle,
			"payment_terms_days": doc.PaymentTermsDays,
			"quote_date":         doc.QuoteDate,
			"invoice_date":       doc.InvoiceDate,
			"due_date":           doc.DueDate,
			"subtotal":           doc.Subtotal,
			"total_paid":         doc.TotalPaid,
			"remark":             doc.Remark,
			"approved_at":        doc.ApprovedAt,
			"rejected_at":        doc.RejectedAt,
			"converted_at":       doc.ConvertedAt,
			"reject_reason":      doc.RejectReason,
			"version":            doc.Version,
			"updated_at":         doc.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	return r.syncChildren(tx, doc)
}

// syncChildren replaces the document's items and payments with the current
// in-memory lists
func (r *GormDocumentRepository) syncChildren(tx *gorm.DB, doc *billing.Document) error {
	itemIDs := make([]uuid.UUID, len(doc.Items))
	for i := range doc.Items {
		doc.Items[i].DocumentID = doc.ID
		itemIDs[i] = doc.Items[i].ID
	}
	if len(itemIDs) > 0 {
		if err := tx.Where("document_id = ? AND id NOT IN ?", doc.ID, itemIDs).
			Delete(&billing.LineItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("document_id = ?", doc.ID).
			Delete(&billing.LineItem{}).Error; err != nil {
			return err
		}
	}
	for i := range doc.Items {
		if err := tx.Save(&doc.Items[i]).Error; err != nil {
			return err
		}
	}

	for i := range doc.Payments {
		doc.Payments[i].DocumentID = doc.ID
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&doc.Payments[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a document with its items and payments
func (r *GormDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc billing.Document
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Where("document_id = ?", id).Delete(&billing.LineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&billing.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&billing.Document{}, "id = ?", id).Error
	})
}

// applyFilter applies document list filters to the query
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("number LIKE ? OR customer_name LIKE ? OR project_title LIKE ?",
			pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "customer_name":
			query = query.Where("customer_name = ?", value)
		}
	}
	return query
}

// Ensure GormDocumentRepository implements billing.DocumentRepository
var _ billing.DocumentRepository = (*GormDocumentRepository)(nil)
