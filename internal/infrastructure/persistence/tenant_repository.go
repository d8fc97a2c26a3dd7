package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
)

// GormTenantRepository implements tenant.Repository using GORM. Counter and
// sequence mutations are single UPDATE statements with arithmetic done in
// SQL, so concurrent writers serialize on the tenant row instead of racing
// through read-modify-write cycles.
type GormTenantRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB, outboxSaver shared.OutboxEventSaver) *GormTenantRepository {
	return &GormTenantRepository{db: db, outboxSaver: outboxSaver}
}

// FindByID finds a tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindBySlug finds a tenant by its URL slug
func (r *GormTenantRepository) FindBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAll lists tenants with filtering
func (r *GormTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]tenant.Tenant, int64, error) {
	query := r.db.WithContext(ctx).Model(&tenant.Tenant{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR slug LIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, TenantSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Paged() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var tenants []tenant.Tenant
	if err := query.Find(&tenants).Error; err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

// FindActiveIDs returns the IDs of every active tenant
func (r *GormTenantRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&tenant.Tenant{}).
		Where("status = ?", tenant.TenantStatusActive).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save persists the tenant and writes its pending domain events to the
// outbox in the same transaction
func (r *GormTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		if r.outboxSaver != nil {
			if events := t.GetDomainEvents(); len(events) > 0 {
				if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	t.ClearDomainEvents()
	return nil
}

// Delete removes a tenant
func (r *GormTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&tenant.Tenant{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IncrementCounter adds amount to the named counter in one UPDATE
func (r *GormTenantRepository) IncrementCounter(ctx context.Context, tenantID uuid.UUID, counter tenant.Counter, amount int) error {
	if !counter.Valid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown counter %q", counter))
	}
	if amount <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Increment amount must be positive")
	}

	column := string(counter)
	result := r.db.WithContext(ctx).
		Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column+" + ?", amount),
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

// DecrementCounter subtracts amount from the named counter. The WHERE
// clause carries the floor guard: when the counter would go negative the
// UPDATE matches no row and nothing changes.
func (r *GormTenantRepository) DecrementCounter(ctx context.Context, tenantID uuid.UUID, counter tenant.Counter, amount int) error {
	if !counter.Valid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown counter %q", counter))
	}
	if amount <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Decrement amount must be positive")
	}

	column := string(counter)
	result := r.db.WithContext(ctx).
		Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Where(column+" >= ?", amount).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column+" - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardMiss(ctx, tenantID)
	}
	return nil
}

// AdjustCounters applies several deltas in one UPDATE. Every negative
// delta contributes a floor guard to the WHERE clause; if any guard trips
// the statement matches nothing and no counter changes.
func (r *GormTenantRepository) AdjustCounters(ctx context.Context, tenantID uuid.UUID, deltas map[tenant.Counter]int) error {
	if len(deltas) == 0 {
		return nil
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	query := r.db.WithContext(ctx).Model(&tenant.Tenant{}).Where("id = ?", tenantID)

	for counter, delta := range deltas {
		if !counter.Valid() {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown counter %q", counter))
		}
		if delta == 0 {
			continue
		}
		column := string(counter)
		updates[column] = gorm.Expr(column+" + ?", delta)
		if delta < 0 {
			query = query.Where(column+" >= ?", -delta)
		}
	}
	if len(updates) == 1 {
		return nil
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardMiss(ctx, tenantID)
	}
	return nil
}

// NextSequence reserves and returns the next document ordinal. The
// increment and the read-back run in one transaction so two concurrent
// reservations can never observe the same value.
func (r *GormTenantRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, seq tenant.Sequence) (int, error) {
	if !seq.Valid() {
		return 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown sequence %q", seq))
	}

	var reserved int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return nextSequenceInTx(tx, tenantID, seq, &reserved)
	})
	if err != nil {
		return 0, err
	}
	return reserved, nil
}

// nextSequenceInTx performs the sequence reservation inside an existing
// transaction. Shared with the document conversion flow, which reserves
// the invoice ordinal as part of its own transaction.
func nextSequenceInTx(tx *gorm.DB, tenantID uuid.UUID, seq tenant.Sequence, reserved *int) error {
	column := string(seq)
	result := tx.Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column+" + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return tx.Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Select(column).
		Scan(reserved).Error
}

// classifyGuardMiss distinguishes a tripped floor guard from a missing
// tenant after a zero-row UPDATE.
func (r *GormTenantRepository) classifyGuardMiss(ctx context.Context, tenantID uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrGuardRejected
}

// isUniqueViolation reports whether err is a unique constraint violation.
// Matches both the postgres and sqlite error texts.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// Ensure GormTenantRepository implements tenant.Repository
var _ tenant.Repository = (*GormTenantRepository)(nil)
