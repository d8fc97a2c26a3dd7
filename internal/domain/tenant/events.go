package tenant

import (
	"github.com/bizledger/backend/internal/domain/shared"
)

// Event types for the tenant aggregate
const (
	EventTypeTenantRegistered = "tenant.registered"
)

// TenantRegisteredEvent is emitted when a new company signs up
type TenantRegisteredEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NewTenantRegisteredEvent creates a registration event for the tenant
func NewTenantRegisteredEvent(t *Tenant) *TenantRegisteredEvent {
	return &TenantRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantRegistered, "Tenant", t.ID, t.ID),
		Name:            t.Name,
		Slug:            t.Slug,
	}
}
