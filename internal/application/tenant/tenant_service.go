package tenant

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
)

// ViewInvalidator evicts cached views after a write
type ViewInvalidator interface {
	EntityChanged(ctx context.Context, tenantID string, entities ...cache.Entity)
}

// TenantService handles tenant registration and counter administration
type TenantService struct {
	tenants     tenant.Repository
	invalidator ViewInvalidator
	logger      *zap.Logger
}

// NewTenantService creates a new TenantService
func NewTenantService(tenants tenant.Repository, invalidator ViewInvalidator, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{
		tenants:     tenants,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Register creates a new active tenant. The slug must be unique; a
// conflict surfaces as ALREADY_EXISTS.
func (s *TenantService) Register(ctx context.Context, req RegisterTenantRequest) (*TenantResponse, error) {
	t, err := tenant.NewTenant(req.Name, req.Slug, req.ContactEmail)
	if err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, t); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, t.ID.String(), cache.EntityTenant)

	s.logger.Info("tenant registered",
		zap.String("tenant_id", t.ID.String()),
		zap.String("slug", t.Slug),
	)
	response := ToTenantResponse(t)
	return &response, nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTenantResponse(t)
	return &response, nil
}

// GetBySlug retrieves a tenant by its URL slug
func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*TenantResponse, error) {
	t, err := s.tenants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	response := ToTenantResponse(t)
	return &response, nil
}

// List retrieves tenants with filtering and pagination
func (s *TenantService) List(ctx context.Context, filter TenantListFilter) ([]TenantListItemResponse, int64, error) {
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
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}

	tenants, total, err := s.tenants.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTenantListItemResponses(tenants), total, nil
}

// Suspend blocks further activity for a tenant
func (s *TenantService) Suspend(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	return s.changeStatus(ctx, id, func(t *tenant.Tenant) error { return t.Suspend() })
}

// Activate re-enables a suspended tenant
func (s *TenantService) Activate(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	return s.changeStatus(ctx, id, func(t *tenant.Tenant) error { return t.Activate() })
}

func (s *TenantService) changeStatus(ctx context.Context, id uuid.UUID, change func(t *tenant.Tenant) error) (*TenantResponse, error) {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(t); err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, t); err != nil {
		return nil, err
	}
	s.invalidator.EntityChanged(ctx, t.ID.String(), cache.EntityTenant)

	response := ToTenantResponse(t)
	return &response, nil
}

// IncrementCounter adds to the named counter
func (s *TenantService) IncrementCounter(ctx context.Context, tenantID uuid.UUID, counter tenant.Counter, amount int) error {
	if err := s.tenants.IncrementCounter(ctx, tenantID, counter, amount); err != nil {
		return err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCounters)
	return nil
}

// DecrementCounter subtracts from the named counter. A floor guard trip
// leaves the counter untouched and surfaces as GUARD_REJECTED.
func (s *TenantService) DecrementCounter(ctx context.Context, tenantID uuid.UUID, counter tenant.Counter, amount int) error {
	if err := s.tenants.DecrementCounter(ctx, tenantID, counter, amount); err != nil {
		return err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCounters)
	return nil
}

// AdjustCounters applies several counter deltas atomically. Deltas are
// keyed by counter name; an unknown name rejects the whole batch.
func (s *TenantService) AdjustCounters(ctx context.Context, tenantID uuid.UUID, req AdjustCountersRequest) error {
	if len(req.Deltas) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "No counter deltas given")
	}
	deltas := make(map[tenant.Counter]int, len(req.Deltas))
	for name, delta := range req.Deltas {
		counter := tenant.Counter(name)
		if !counter.Valid() {
			return shared.NewDomainError("INVALID_INPUT", "Unknown counter: "+name)
		}
		deltas[counter] = delta
	}
	if err := s.tenants.AdjustCounters(ctx, tenantID, deltas); err != nil {
		return err
	}
	s.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCounters)
	return nil
}
