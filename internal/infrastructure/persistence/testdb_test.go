package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE tenants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			contact_email TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			categories INTEGER NOT NULL DEFAULT 0,
			items INTEGER NOT NULL DEFAULT 0,
			services INTEGER NOT NULL DEFAULT 0,
			suppliers INTEGER NOT NULL DEFAULT 0,
			quotations INTEGER NOT NULL DEFAULT 0,
			invoices INTEGER NOT NULL DEFAULT 0,
			material_sales INTEGER NOT NULL DEFAULT 0,
			purchase_orders INTEGER NOT NULL DEFAULT 0,
			job_costs INTEGER NOT NULL DEFAULT 0,
			site_visits INTEGER NOT NULL DEFAULT 0,
			quotation_seq INTEGER NOT NULL DEFAULT 0,
			invoice_seq INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE documents (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			document_no INTEGER NOT NULL,
			number TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			project_title TEXT,
			payment_terms_days INTEGER NOT NULL DEFAULT 0,
			quote_date DATETIME NOT NULL,
			invoice_date DATETIME,
			due_date DATETIME,
			subtotal TEXT NOT NULL DEFAULT '0',
			total_paid TEXT NOT NULL DEFAULT '0',
			remark TEXT,
			approved_at DATETIME,
			rejected_at DATETIME,
			converted_at DATETIME,
			reject_reason TEXT,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(tenant_id, type, document_no)
		)`,
		`CREATE TABLE document_items (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			category TEXT,
			name TEXT NOT NULL,
			unit TEXT,
			quantity TEXT NOT NULL,
			unit_price TEXT NOT NULL,
			cost_price TEXT NOT NULL DEFAULT '0',
			amount TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE document_payments (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			method TEXT,
			note TEXT,
			paid_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE cost_records (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			document_no INTEGER NOT NULL,
			linked_type TEXT,
			linked_number TEXT,
			linked_status TEXT,
			customer_name TEXT,
			project_title TEXT,
			total_sell TEXT NOT NULL DEFAULT '0',
			total_cost TEXT NOT NULL DEFAULT '0',
			last_synced_at DATETIME,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(tenant_id, document_id)
		)`,
		`CREATE TABLE cost_record_items (
			id TEXT PRIMARY KEY,
			record_id TEXT NOT NULL,
			category TEXT,
			name TEXT NOT NULL,
			unit TEXT,
			quantity TEXT NOT NULL,
			sell_price TEXT NOT NULL DEFAULT '0',
			cost_price TEXT NOT NULL DEFAULT '0',
			cost_total TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE cost_record_expenses (
			id TEXT PRIMARY KEY,
			record_id TEXT NOT NULL,
			label TEXT NOT NULL,
			amount TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}
