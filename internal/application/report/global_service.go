package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/domain/report"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/domain/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
)

// GlobalStatsService computes the cross-tenant rollup. The tenant
// restriction is enforced twice: the rollup query filters on the active
// tenant set, and every returned row's tenant tag is checked against that
// same set here. A row failing the second check is dropped and logged,
// never summed.
type GlobalStatsService struct {
	tenants tenant.Repository
	stats   report.StatsRepository
	store   cache.Store
	ttl     time.Duration
	logger  *zap.Logger
}

// NewGlobalStatsService creates a new GlobalStatsService
func NewGlobalStatsService(
	tenants tenant.Repository,
	stats report.StatsRepository,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) *GlobalStatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GlobalStatsService{
		tenants: tenants,
		stats:   stats,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// GetGlobalStats returns the cross-tenant rollup, cached
func (s *GlobalStatsService) GetGlobalStats(ctx context.Context) (*GlobalStats, error) {
	key := cache.GlobalKey(cache.ViewGlobalStats)
	if payload, ok := s.store.Get(ctx, key); ok {
		var stats GlobalStats
		if err := json.Unmarshal(payload, &stats); err == nil {
			return &stats, nil
		}
		s.logger.Warn("discarding unreadable cached global stats", zap.String("key", key))
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the rollup and re-primes the cache
func (s *GlobalStatsService) Refresh(ctx context.Context) (*GlobalStats, error) {
	activeIDs, err := s.tenants.FindActiveIDs(ctx)
	if err != nil {
		return nil, err
	}

	stats := &GlobalStats{
		ActiveTenants: len(activeIDs),
		Revenue:       valueobject.ZeroMoney(),
		Outstanding:   valueobject.ZeroMoney(),
		GeneratedAt:   time.Now(),
	}
	if len(activeIDs) == 0 {
		s.prime(ctx, stats)
		return stats, nil
	}

	rollups, err := s.stats.GetTenantRollups(ctx, activeIDs)
	if err != nil {
		return nil, err
	}

	allowed := make(map[uuid.UUID]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		allowed[id] = struct{}{}
	}

	kept := make([]report.TenantRollup, 0, len(rollups))
	for _, rollup := range rollups {
		if _, ok := allowed[rollup.TenantID]; !ok {
			s.logger.Warn("dropping rollup row outside the active tenant set",
				zap.String("tenant_id", rollup.TenantID.String()),
				zap.String("tenant_name", rollup.TenantName),
			)
			continue
		}
		kept = append(kept, rollup)
		stats.Documents += rollup.Documents
		stats.Revenue = stats.Revenue.Add(rollup.Revenue)
		stats.Outstanding = stats.Outstanding.Add(rollup.Outstanding)
	}
	stats.Rollups = kept

	s.prime(ctx, stats)
	return stats, nil
}

func (s *GlobalStatsService) prime(ctx context.Context, stats *GlobalStats) {
	payload, err := json.Marshal(stats)
	if err != nil {
		s.logger.Warn("failed to serialize global stats", zap.Error(err))
		return
	}
	s.store.Set(ctx, cache.GlobalKey(cache.ViewGlobalStats), payload, s.ttl)
}
