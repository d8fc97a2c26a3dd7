package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/domain/report"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
)

const recentDocumentsLimit = 10

// StatsService serves the per-tenant dashboard views through a
// read-through cache. A cache miss or an unreadable payload falls back to
// the source queries and re-primes the entry.
type StatsService struct {
	tenants tenant.Repository
	stats   report.StatsRepository
	store   cache.Store
	ttl     time.Duration
	logger  *zap.Logger
}

// NewStatsService creates a new StatsService
func NewStatsService(
	tenants tenant.Repository,
	stats report.StatsRepository,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		tenants: tenants,
		stats:   stats,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// GetDashboard returns the tenant's dashboard view, cached
func (s *StatsService) GetDashboard(ctx context.Context, tenantID uuid.UUID) (*DashboardStats, error) {
	key := cache.Key(tenantID.String(), cache.ViewDashboardStats)
	if payload, ok := s.store.Get(ctx, key); ok {
		var stats DashboardStats
		if err := json.Unmarshal(payload, &stats); err == nil {
			return &stats, nil
		}
		s.logger.Warn("discarding unreadable cached dashboard", zap.String("key", key))
	}
	return s.RefreshDashboard(ctx, tenantID)
}

// RefreshDashboard recomputes the dashboard view and re-primes the cache
func (s *StatsService) RefreshDashboard(ctx context.Context, tenantID uuid.UUID) (*DashboardStats, error) {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	financials, err := s.stats.GetTenantFinancials(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	recent, err := s.stats.GetRecentDocuments(ctx, tenantID, recentDocumentsLimit)
	if err != nil {
		return nil, err
	}

	counters := make(map[string]int, len(tenant.AllCounters))
	for c, v := range t.Counters() {
		counters[string(c)] = v
	}

	stats := &DashboardStats{
		Counters:    counters,
		Financials:  *financials,
		Recent:      recent,
		GeneratedAt: time.Now(),
	}
	s.prime(ctx, cache.Key(tenantID.String(), cache.ViewDashboardStats), stats)
	return stats, nil
}

// GetCounters returns the tenant's counter snapshot, cached
func (s *StatsService) GetCounters(ctx context.Context, tenantID uuid.UUID) (*CounterSnapshot, error) {
	key := cache.Key(tenantID.String(), cache.ViewCounterSnapshot)
	if payload, ok := s.store.Get(ctx, key); ok {
		var snapshot CounterSnapshot
		if err := json.Unmarshal(payload, &snapshot); err == nil {
			return &snapshot, nil
		}
		s.logger.Warn("discarding unreadable cached counter snapshot", zap.String("key", key))
	}

	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counters := make(map[string]int, len(tenant.AllCounters))
	for c, v := range t.Counters() {
		counters[string(c)] = v
	}
	snapshot := &CounterSnapshot{Counters: counters, GeneratedAt: time.Now()}
	s.prime(ctx, key, snapshot)
	return snapshot, nil
}

func (s *StatsService) prime(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("failed to serialize cached view", zap.String("key", key), zap.Error(err))
		return
	}
	s.store.Set(ctx, key, payload, s.ttl)
}
