package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/domain/tenant"
)

// Primer warms the dashboard caches for every active tenant. Tenants are
// processed sequentially in batches so a large fleet never floods the
// database; one tenant failing never stops the run.
type Primer struct {
	tenants    tenant.Repository
	dashboards *StatsService
	global     *GlobalStatsService
	logger     *zap.Logger
}

// NewPrimer creates a new Primer
func NewPrimer(
	tenants tenant.Repository,
	dashboards *StatsService,
	global *GlobalStatsService,
	logger *zap.Logger,
) *Primer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Primer{
		tenants:    tenants,
		dashboards: dashboards,
		global:     global,
		logger:     logger,
	}
}

// PrimeAll refreshes the dashboard view for every active tenant and then
// the global rollup. Cancellation is honored between batches.
func (p *Primer) PrimeAll(ctx context.Context, batchSize int) (*PrimeReport, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	start := time.Now()

	ids, err := p.tenants.FindActiveIDs(ctx)
	if err != nil {
		return nil, err
	}

	rep := &PrimeReport{}
	for offset := 0; offset < len(ids); offset += batchSize {
		if err := ctx.Err(); err != nil {
			rep.Elapsed = time.Since(start)
			return rep, err
		}
		end := offset + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		for _, id := range ids[offset:end] {
			if _, err := p.dashboards.RefreshDashboard(ctx, id); err != nil {
				rep.Failed++
				p.logger.Warn("failed to prime tenant dashboard",
					zap.String("tenant_id", id.String()),
					zap.Error(err),
				)
				continue
			}
			rep.Primed++
		}
	}

	if _, err := p.global.Refresh(ctx); err != nil {
		rep.Failed++
		p.logger.Warn("failed to prime global stats", zap.Error(err))
	}

	rep.Elapsed = time.Since(start)
	p.logger.Info("cache priming completed",
		zap.Int("primed", rep.Primed),
		zap.Int("failed", rep.Failed),
		zap.Duration("elapsed", rep.Elapsed),
	)
	return rep, nil
}
