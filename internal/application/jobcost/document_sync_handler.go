package jobcost

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/jobcost"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
)

// DocumentSyncHandler mirrors commercial document changes into cost
// records. Delivery runs through the outbox: a returned error keeps the
// entry eligible for retry, and nothing here ever reaches the operation
// that produced the event.
type DocumentSyncHandler struct {
	records     jobcost.Repository
	counters    tenant.CounterStore
	invalidator ViewInvalidator
	logger      *zap.Logger
}

// NewDocumentSyncHandler creates a new handler for document events
func NewDocumentSyncHandler(
	records jobcost.Repository,
	counters tenant.CounterStore,
	invalidator ViewInvalidator,
	logger *zap.Logger,
) *DocumentSyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentSyncHandler{
		records:     records,
		counters:    counters,
		invalidator: invalidator,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *DocumentSyncHandler) EventTypes() []string {
	return []string{
		billing.EventTypeDocumentApproved,
		billing.EventTypeDocumentConverted,
		billing.EventTypePaymentRecorded,
	}
}

// Handle processes a document event
func (h *DocumentSyncHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch evt := event.(type) {
	case *billing.DocumentApprovedEvent:
		return h.handleApproved(ctx, evt)
	case *billing.DocumentConvertedEvent:
		return h.handleConverted(ctx, evt)
	case *billing.PaymentRecordedEvent:
		return h.handlePaymentRecorded(ctx, evt)
	default:
		h.logger.Error("unexpected event type", zap.String("event_type", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}

// handleApproved creates or refreshes the cost record for an approved
// document. Operator-entered cost prices on existing items survive the
// refresh; matching is by item name.
func (h *DocumentSyncHandler) handleApproved(ctx context.Context, evt *billing.DocumentApprovedEvent) error {
	tenantID := evt.TenantID()
	record, err := h.records.FindByDocumentID(ctx, tenantID, evt.DocumentID)
	switch {
	case err == nil:
		record.Relink(evt.DocumentNo, evt.Type.String(), evt.Number, evt.Status.String())
		record.UpdateHeader(evt.CustomerName, evt.ProjectTitle)
		record.MergeSourceItems(mapSourceItems(evt.Items))
		if err := h.records.Upsert(ctx, record); err != nil {
			return err
		}
	case shared.IsCode(err, "NOT_FOUND"):
		if err := h.createRecord(ctx, tenantID, evt.DocumentID, evt.DocumentNo,
			evt.Type.String(), evt.Number, evt.Status.String(),
			evt.CustomerName, evt.ProjectTitle, evt.Items); err != nil {
			return err
		}
	default:
		return err
	}

	h.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCostRecord)
	h.logger.Info("cost record synced from approval",
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_id", evt.DocumentID.String()),
		zap.String("number", evt.Number),
	)
	return nil
}

// handleConverted re-links the cost record to the invoice identity the
// document took on during conversion.
func (h *DocumentSyncHandler) handleConverted(ctx context.Context, evt *billing.DocumentConvertedEvent) error {
	tenantID := evt.TenantID()
	record, err := h.records.FindByDocumentID(ctx, tenantID, evt.DocumentID)
	switch {
	case err == nil:
		record.Relink(evt.InvoiceNo, billing.DocumentTypeInvoice.String(), evt.InvoiceNumber, evt.Status.String())
		record.UpdateHeader(evt.CustomerName, evt.ProjectTitle)
		record.MergeSourceItems(mapSourceItems(evt.Items))
		if err := h.records.Upsert(ctx, record); err != nil {
			return err
		}
	case shared.IsCode(err, "NOT_FOUND"):
		// Converted without a prior approval sync, e.g. the approval
		// entry is still queued behind this one. Create from scratch.
		if err := h.createRecord(ctx, tenantID, evt.DocumentID, evt.InvoiceNo,
			billing.DocumentTypeInvoice.String(), evt.InvoiceNumber, evt.Status.String(),
			evt.CustomerName, evt.ProjectTitle, evt.Items); err != nil {
			return err
		}
	default:
		return err
	}

	h.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCostRecord)
	h.logger.Info("cost record relinked to invoice",
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_id", evt.DocumentID.String()),
		zap.String("quotation_number", evt.QuotationNumber),
		zap.String("invoice_number", evt.InvoiceNumber),
	)
	return nil
}

// handlePaymentRecorded refreshes the mirrored document status. Payments
// never create a record: there is nothing to cost without line items.
func (h *DocumentSyncHandler) handlePaymentRecorded(ctx context.Context, evt *billing.PaymentRecordedEvent) error {
	tenantID := evt.TenantID()
	record, err := h.records.FindByDocumentID(ctx, tenantID, evt.DocumentID)
	if err != nil {
		if shared.IsCode(err, "NOT_FOUND") {
			h.logger.Debug("payment on document without cost record, skipping",
				zap.String("tenant_id", tenantID.String()),
				zap.String("document_id", evt.DocumentID.String()),
			)
			return nil
		}
		return err
	}

	record.Relink(0, "", "", evt.Status.String())
	if err := h.records.Save(ctx, record); err != nil {
		return err
	}
	h.invalidator.EntityChanged(ctx, tenantID.String(), cache.EntityCostRecord)
	return nil
}

func (h *DocumentSyncHandler) createRecord(ctx context.Context, tenantID, documentID uuid.UUID, documentNo int, linkedType, linkedNumber, linkedStatus, customerName, projectTitle string, items []billing.ItemSnapshot) error {
	record, err := jobcost.NewCostRecord(tenantID, documentID, documentNo, linkedType, linkedNumber, linkedStatus, customerName, projectTitle)
	if err != nil {
		return err
	}
	record.MergeSourceItems(mapSourceItems(items))

	if err := h.records.Upsert(ctx, record); err != nil {
		// A concurrent sync won the insert race; the retry will find and
		// refresh the surviving record instead.
		if shared.IsCode(err, "DUPLICATE_KEY") {
			h.logger.Warn("concurrent cost record insert, deferring to retry",
				zap.String("tenant_id", tenantID.String()),
				zap.String("document_id", documentID.String()),
			)
		}
		return err
	}

	if err := h.counters.IncrementCounter(ctx, tenantID, tenant.CounterJobCosts, 1); err != nil {
		h.logger.Warn("failed to increment job cost counter",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func mapSourceItems(items []billing.ItemSnapshot) []jobcost.SourceItem {
	out := make([]jobcost.SourceItem, len(items))
	for i, item := range items {
		out[i] = jobcost.SourceItem{
			Category:  item.Category,
			Name:      item.Name,
			Unit:      item.Unit,
			Quantity:  item.Quantity,
			SellPrice: item.UnitPrice,
			CostPrice: item.CostPrice,
		}
	}
	return out
}

// Ensure DocumentSyncHandler implements shared.EventHandler
var _ shared.EventHandler = (*DocumentSyncHandler)(nil)
