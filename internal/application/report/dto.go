package report

import (
	"time"

	"github.com/bizledger/backend/internal/domain/report"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// DashboardStats is the cached per-tenant dashboard view: the counter
// snapshot, the money aggregates and the recent activity feed.
type DashboardStats struct {
	Counters    map[string]int          `json:"counters"`
	Financials  report.TenantFinancials `json:"financials"`
	Recent      []report.RecentDocument `json:"recent"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// CounterSnapshot is the cached counter-only view
type CounterSnapshot struct {
	Counters    map[string]int `json:"counters"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// GlobalStats is the cached cross-tenant rollup view
type GlobalStats struct {
	ActiveTenants int                   `json:"active_tenants"`
	Documents     int64                 `json:"documents"`
	Revenue       valueobject.Money     `json:"revenue"`
	Outstanding   valueobject.Money     `json:"outstanding"`
	Rollups       []report.TenantRollup `json:"rollups"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// PrimeReport summarizes one cache priming run
type PrimeReport struct {
	Primed  int           `json:"primed"`
	Failed  int           `json:"failed"`
	Elapsed time.Duration `json:"elapsed"`
}
