// Package billing provides the document aggregate for quotations and
// invoices in a multi-tenant business-management backend.
//
// A Document starts life as a pending quotation, moves through review
// (approve or reject), and may be converted into an invoice exactly once.
// Conversion reserves a fresh invoice ordinal so quotation and invoice
// numbering stay independent per tenant. Invoices accumulate payments and
// roll their status forward from unpaid through partial to paid.
//
// Key Aggregates:
//   - Document: quotation or invoice with line items and payments
//
// Entities:
//   - LineItem: a priced line carrying both sell and cost price
//   - Payment: a recorded payment against an invoice
//
// State changes raise domain events (approved, converted, payment
// recorded) that feed job-cost synchronization through the outbox.
package billing
