package jobcost

import (
	"context"

	"github.com/google/uuid"

	"github.com/bizledger/backend/internal/domain/shared"
)

// Repository defines cost record persistence
type Repository interface {
	// FindByIDForTenant loads a record with items and expenses
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CostRecord, error)

	// FindByDocumentID loads the record mirroring a document, if any
	FindByDocumentID(ctx context.Context, tenantID, documentID uuid.UUID) (*CostRecord, error)

	// FindByDocumentNo loads a record by its document ordinal. Ordinals
	// are only unique within a document type, so a non-empty linkedType
	// narrows the match; empty matches any type.
	FindByDocumentNo(ctx context.Context, tenantID uuid.UUID, documentNo int, linkedType string) (*CostRecord, error)

	// FindAllForTenant lists records with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CostRecord, int64, error)

	// Upsert inserts the record or, when one already exists for the same
	// (tenant, document), replaces its content. The (tenant_id,
	// document_id) uniqueness constraint backs this up; a conflicting
	// concurrent insert surfaces as ErrDuplicateKey.
	Upsert(ctx context.Context, record *CostRecord) error

	// Save persists changes to an existing record
	Save(ctx context.Context, record *CostRecord) error

	// Delete removes a record with its items and expenses
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
