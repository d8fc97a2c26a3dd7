package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/bizledger/backend/internal/domain/shared"
)

// DocumentRepository defines document persistence
type DocumentRepository interface {
	// FindByIDForTenant loads a document with items and payments
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)

	// FindByNumber loads a document by display number and type for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string, docType DocumentType) (*Document, error)

	// FindAllForTenant lists documents with filtering. Supported filter
	// keys: "type", "status", "customer_name".
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Document, int64, error)

	// SaveWithEvents persists the document, its items and payments, and
	// writes the given domain events to the outbox in one transaction.
	// Optimistic locking: a stale Version yields ErrConcurrencyConflict.
	SaveWithEvents(ctx context.Context, doc *Document, events []shared.DomainEvent) error

	// Convert runs the quotation-to-invoice conversion atomically. In a
	// single transaction it reserves the next invoice ordinal, locks and
	// reloads the document, calls apply to mutate it, persists the
	// result, adjusts the tenant counters (quotations down, invoices up,
	// floor guarded) and saves the document's pending events. Any error
	// rolls the whole conversion back, sequence reservation included.
	Convert(ctx context.Context, tenantID, id uuid.UUID, apply func(doc *Document, invoiceNo int) error) (*Document, error)

	// Delete removes a document with its items and payments
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
