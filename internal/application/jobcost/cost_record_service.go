package jobcost

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/domain/jobcost"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
)

// ViewInvalidator evicts cached views after a write
type ViewInvalidator interface {
	EntityChanged(ctx context.Context, tenantID string, entities ...cache.Entity)
}

// CostRecordService handles operator-facing cost record operations. The
// records themselves are created and refreshed by document sync; operators
// enter cost prices and miscellaneous expenses on top.
type CostRecordService struct {
	records     jobcost.Repository
	counters    tenant.CounterStore
	invalidator ViewInvalidator
	logger      *zap.Logger
}

// NewCostRecordService creates a new CostRecordService
func NewCostRecordService(
	records jobcost.Repository,
	counters tenant.CounterStore,
	invalidator ViewInvalidator,
	logger *zap.Logger,
) *CostRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostRecordService{
		records:     records,
		counters:    counters,
		invalidator: invalidator,
		logger:      logger,
	}
}

// GetByID retrieves a cost record by ID
func (s *CostRecordService) GetByID(ctx context.Context, tenantID, recordID uuid.UUID) (*CostRecordResponse, error) {
	record, err := s.records.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	response := ToCostRecordResponse(record)
	return &response, nil
}

// GetByDocumentNo retrieves the record mirroring a document ordinal. An
// empty linkedType matches either document type.
func (s *CostRecordService) GetByDocumentNo(ctx context.Context, tenantID uuid.UUID, documentNo int, linkedType string) (*CostRecordResponse, error) {
	record, err := s.records.FindByDocumentNo(ctx, tenantID, documentNo, linkedType)
	if err != nil {
		return nil, err
	}
	response := ToCostRecordResponse(record)
	return &response, nil
}

// List retrieves cost records with filtering and pagination
func (s *CostRecordService) List(ctx context.Context, tenantID uuid.UUID, filter CostRecordListFilter) ([]CostRecordListItemResponse, int64, error) {
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
	if filter.LinkedType != nil {
		domainFilter.Filters["linked_type"] = *filter.LinkedType
	}

	records, total, err := s.records.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToCostRecordListItemResponses(records), total, nil
}

// SetItemCost records an operator-entered cost price for one item. The
// entered value survives subsequent document re-syncs.
func (s *CostRecordService) SetItemCost(ctx context.Context, tenantID, recordID, itemID uuid.UUID, req SetItemCostRequest) (*CostRecordResponse, error) {
	record, err := s.records.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if err := record.SetItemCost(itemID, req.CostPrice); err != nil {
		return nil, err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCostRecord)

	response := ToCostRecordResponse(record)
	return &response, nil
}

// ReplaceExpenses swaps the record's miscellaneous expense list
func (s *CostRecordService) ReplaceExpenses(ctx context.Context, tenantID, recordID uuid.UUID, req ReplaceExpensesRequest) (*CostRecordResponse, error) {
	record, err := s.records.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}

	expenses := make([]jobcost.Expense, 0, len(req.Expenses))
	for _, input := range req.Expenses {
		expense, err := jobcost.NewExpense(record.ID, input.Label, input.Amount)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *expense)
	}
	record.ReplaceExpenses(expenses)

	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCostRecord)

	response := ToCostRecordResponse(record)
	return &response, nil
}

// Delete removes a cost record and walks the job cost counter back down.
// A floor guard trip is logged and ignored.
func (s *CostRecordService) Delete(ctx context.Context, tenantID, recordID uuid.UUID) error {
	if err := s.records.Delete(ctx, tenantID, recordID); err != nil {
		return err
	}
	if err := s.counters.DecrementCounter(ctx, tenantID, tenant.CounterJobCosts, 1); err != nil {
		if shared.IsCode(err, "GUARD_REJECTED") {
			s.logger.Warn("job cost counter floor guard tripped during delete",
				zap.String("tenant_id", tenantID.String()),
			)
		} else {
			s.logger.Warn("failed to decrement job cost counter",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCostRecord, cache.EntityCounters)
	return nil
}
