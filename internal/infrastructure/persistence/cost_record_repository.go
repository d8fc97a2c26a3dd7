package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bizledger/backend/internal/domain/jobcost"
	"github.com/bizledger/backend/internal/domain/shared"
)

// GormCostRecordRepository implements jobcost.Repository using GORM
type GormCostRecordRepository struct {
	db *gorm.DB
}

// NewGormCostRecordRepository creates a new GormCostRecordRepository
func NewGormCostRecordRepository(db *gorm.DB) *GormCostRecordRepository {
	return &GormCostRecordRepository{db: db}
}

// FindByIDForTenant loads a record with items and expenses
func (r *GormCostRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*jobcost.CostRecord, error) {
	var record jobcost.CostRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Expenses").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByDocumentID loads the record mirroring a document, if any
func (r *GormCostRecordRepository) FindByDocumentID(ctx context.Context, tenantID, documentID uuid.UUID) (*jobcost.CostRecord, error) {
	var record jobcost.CostRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Expenses").
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByDocumentNo loads a record by its document ordinal. Quotation and
// invoice ordinals are drawn from independent sequences, so the same
// ordinal can address one record of each type; a non-empty linkedType
// picks which one.
func (r *GormCostRecordRepository) FindByDocumentNo(ctx context.Context, tenantID uuid.UUID, documentNo int, linkedType string) (*jobcost.CostRecord, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Expenses").
		Where("tenant_id = ? AND document_no = ?", tenantID, documentNo)
	if linkedType != "" {
		query = query.Where("linked_type = ?", linkedType)
	}

	var record jobcost.CostRecord
	if err := query.Order("updated_at DESC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindAllForTenant lists records for a tenant with filtering
func (r *GormCostRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]jobcost.CostRecord, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&jobcost.CostRecord{}).
		Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("linked_number LIKE ? OR customer_name LIKE ? OR project_title LIKE ?",
			pattern, pattern, pattern)
	}
	if linkedType, ok := filter.Filters["linked_type"]; ok {
		query = query.Where("linked_type = ?", linkedType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CostRecordSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Paged() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var records []jobcost.CostRecord
	if err := query.Preload("Items").Preload("Expenses").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Upsert inserts the record or replaces the content of the existing record
// for the same document. A concurrent insert for the same (tenant,
// document) loses against the unique constraint and surfaces as
// ErrDuplicateKey.
func (r *GormCostRecordRepository) Upsert(ctx context.Context, record *jobcost.CostRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing jobcost.CostRecord
		err := tx.Where("tenant_id = ? AND document_id = ?", record.TenantID, record.DocumentID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			record.Version = existing.Version + 1
			if err := tx.Omit(clause.Associations).Save(record).Error; err != nil {
				return err
			}
		}
		return r.syncChildren(tx, record)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// Save persists changes to an existing record
func (r *GormCostRecordRepository) Save(ctx context.Context, record *jobcost.CostRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(record).Error; err != nil {
			return err
		}
		return r.syncChildren(tx, record)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// syncChildren replaces the record's items and expenses with the current
// in-memory lists
func (r *GormCostRecordRepository) syncChildren(tx *gorm.DB, record *jobcost.CostRecord) error {
	if err := tx.Where("record_id = ?", record.ID).Delete(&jobcost.CostItem{}).Error; err != nil {
		return err
	}
	for i := range record.Items {
		record.Items[i].RecordID = record.ID
		if err := tx.Create(&record.Items[i]).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("record_id = ?", record.ID).Delete(&jobcost.Expense{}).Error; err != nil {
		return err
	}
	for i := range record.Expenses {
		record.Expenses[i].RecordID = record.ID
		if err := tx.Create(&record.Expenses[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a record with its items and expenses
func (r *GormCostRecordRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record jobcost.CostRecord
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Where("record_id = ?", id).Delete(&jobcost.CostItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("record_id = ?", id).Delete(&jobcost.Expense{}).Error; err != nil {
			return err
		}
		return tx.Delete(&jobcost.CostRecord{}, "id = ?", id).Error
	})
}

// Ensure GormCostRecordRepository implements jobcost.Repository
var _ jobcost.Repository = (*GormCostRecordRepository)(nil)
