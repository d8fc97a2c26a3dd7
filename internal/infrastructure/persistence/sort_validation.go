package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a direction to ASC or DESC, defaulting to
// DESC for anything unrecognized.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks a requested sort column against a whitelist.
// Sort fields end up in raw ORDER BY clauses, so anything not whitelisted
// falls back to defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	if field := strings.TrimSpace(sortField); allowedFields[field] {
		return field
	}
	return defaultField
}

// TenantSortFields contains allowed sort fields for tenants
var TenantSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"slug":       true,
	"status":     true,
}

// DocumentSortFields contains allowed sort fields for documents
var DocumentSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"document_no":   true,
	"customer_name": true,
	"status":        true,
	"subtotal":      true,
	"quote_date":    true,
	"due_date":      true,
}

// CostRecordSortFields contains allowed sort fields for cost records
var CostRecordSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"document_no":   true,
	"customer_name": true,
	"total_sell":    true,
	"total_cost":    true,
}
