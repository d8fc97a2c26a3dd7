package tenant

import (
	"context"

	"github.com/google/uuid"

	"github.com/bizledger/backend/internal/domain/shared"
)

// Repository defines tenant persistence
type Repository interface {
	// FindByID finds a tenant by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindBySlug finds a tenant by its URL slug
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)

	// FindAll lists tenants with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Tenant, int64, error)

	// FindActiveIDs returns the IDs of every active tenant
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save persists the tenant, writing any pending domain events to the
	// outbox in the same transaction
	Save(ctx context.Context, t *Tenant) error

	// Delete removes a tenant
	Delete(ctx context.Context, id uuid.UUID) error

	CounterStore
	NumberAllocator
}

// CounterStore mutates the per-tenant counters with single-statement
// atomic arithmetic. No read-modify-write: concurrent adjustments
// serialize at the row level in the database.
type CounterStore interface {
	// IncrementCounter adds amount (> 0) to the named counter
	IncrementCounter(ctx context.Context, tenantID uuid.UUID, counter Counter, amount int) error

	// DecrementCounter subtracts amount (> 0) from the named counter.
	// If the subtraction would take the counter below zero, nothing
	// changes and ErrGuardRejected is returned.
	DecrementCounter(ctx context.Context, tenantID uuid.UUID, counter Counter, amount int) error

	// AdjustCounters applies several deltas in one atomic statement.
	// Negative deltas carry the same floor guard as DecrementCounter;
	// if any guard trips, no counter changes.
	AdjustCounters(ctx context.Context, tenantID uuid.UUID, deltas map[Counter]int) error
}

// NumberAllocator reserves document sequence ordinals. Each reservation
// atomically increments the per-(tenant, document type) sequence on the
// tenant row and returns the new ordinal, so two concurrent allocations
// can never observe the same value.
type NumberAllocator interface {
	// NextSequence reserves and returns the next ordinal for the given
	// sequence column ("quotation_seq" or "invoice_seq")
	NextSequence(ctx context.Context, tenantID uuid.UUID, seq Sequence) (int, error)
}

// Sequence names a document numbering sequence on the tenant row
type Sequence string

const (
	SequenceQuotation Sequence = "quotation_seq"
	SequenceInvoice   Sequence = "invoice_seq"
)

// Valid reports whether the sequence is one of the known set
func (s Sequence) Valid() bool {
	return s == SequenceQuotation || s == SequenceInvoice
}
