package tenant

import (
	"time"

	"github.com/google/uuid"

	"github.com/bizledger/backend/internal/domain/tenant"
)

// RegisterTenantRequest represents a tenant registration request
type RegisterTenantRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=255"`
	Slug         string `json:"slug" binding:"required,min=1,max=100,slug"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email,max=255"`
}

// TenantListFilter represents filter options for tenant lists
type TenantListFilter struct {
	Search   string  `form:"search"`
	Status   *string `form:"status"`
	Page     int     `form:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string  `form:"order_by"`
	OrderDir string  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AdjustCountersRequest represents a batched counter adjustment. Deltas
// are keyed by counter name; negative values are floor guarded.
type AdjustCountersRequest struct {
	Deltas map[string]int `json:"deltas" binding:"required"`
}

// CounterChangeRequest represents a single counter change
type CounterChangeRequest struct {
	Amount int `json:"amount" binding:"required,min=1"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	ContactEmail string         `json:"contact_email"`
	Status       string         `json:"status"`
	Counters     map[string]int `json:"counters"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TenantListItemResponse represents a tenant row in list responses
type TenantListItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToTenantResponse converts a tenant aggregate to its response form
func ToTenantResponse(t *tenant.Tenant) TenantResponse {
	counters := make(map[string]int, len(tenant.AllCounters))
	for c, v := range t.Counters() {
		counters[string(c)] = v
	}
	return TenantResponse{
		ID:           t.ID,
		Name:         t.Name,
		Slug:         t.Slug,
		ContactEmail: t.ContactEmail,
		Status:       string(t.Status),
		Counters:     counters,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ToTenantListItemResponses converts tenants to their list row form
func ToTenantListItemResponses(tenants []tenant.Tenant) []TenantListItemResponse {
	out := make([]TenantListItemResponse, len(tenants))
	for i := range tenants {
		t := &tenants[i]
		out[i] = TenantListItemResponse{
			ID:        t.ID,
			Name:      t.Name,
			Slug:      t.Slug,
			Status:    string(t.Status),
			CreatedAt: t.CreatedAt,
		}
	}
	return out
}
