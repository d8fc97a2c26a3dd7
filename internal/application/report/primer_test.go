package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/backend/internal/domain/report"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/tenant"
)

func TestPrimer_PrimeAll(t *testing.T) {
	t.Run("primes every active tenant and the global view", func(t *testing.T) {
		tnA := newTestTenant(t)
		tnB := newTestTenant(t)
		ids := []uuid.UUID{tnA.ID, tnB.ID}

		tenants := new(MockTenantRepository)
		stats := new(MockStatsRepository)
		store := newTestStore(t)
		dashboards := NewStatsService(tenants, stats, store, time.Minute, nil)
		global := NewGlobalStatsService(tenants, stats, store, time.Minute, nil)
		primer := NewPrimer(tenants, dashboards, global, nil)
		ctx := context.Background()

		tenants.On("FindActiveIDs", ctx).Return(ids, nil)
		for _, tn := range []*tenant.Tenant{tnA, tnB} {
			tenants.On("FindByID", ctx, tn.ID).Return(tn, nil)
			stats.On("GetTenantFinancials", ctx, tn.ID).Return(testFinancials(), nil)
			stats.On("GetRecentDocuments", ctx, tn.ID, recentDocumentsLimit).Return([]report.RecentDocument{}, nil)
		}
		stats.On("GetTenantRollups", ctx, ids).Return([]report.TenantRollup{
			{TenantID: tnA.ID, Documents: 1, Revenue: money(100), Outstanding: money(0)},
		}, nil)

		rep, err := primer.PrimeAll(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 2, rep.Primed)
		assert.Equal(t, 0, rep.Failed)

		// Primed entries now serve reads without touching the repositories.
		_, ok := store.Get(ctx, keyFor(tnA.ID))
		assert.True(t, ok)
	})

	t.Run("one tenant failing never stops the run", func(t *testing.T) {
		tnA := newTestTenant(t)
		broken := uuid.New()
		ids := []uuid.UUID{broken, tnA.ID}

		tenants := new(MockTenantRepository)
		stats := new(MockStatsRepository)
		store := newTestStore(t)
		dashboards := NewStatsService(tenants, stats, store, time.Minute, nil)
		global := NewGlobalStatsService(tenants, stats, store, time.Minute, nil)
		primer := NewPrimer(tenants, dashboards, global, nil)
		ctx := context.Background()

		tenants.On("FindActiveIDs", ctx).Return(ids, nil)
		tenants.On("FindByID", ctx, broken).Return(nil, shared.ErrNotFound)
		tenants.On("FindByID", ctx, tnA.ID).Return(tnA, nil)
		stats.On("GetTenantFinancials", ctx, tnA.ID).Return(testFinancials(), nil)
		stats.On("GetRecentDocuments", ctx, tnA.ID, recentDocumentsLimit).Return([]report.RecentDocument{}, nil)
		stats.On("GetTenantRollups", ctx, ids).Return([]report.TenantRollup{}, nil)

		rep, err := primer.PrimeAll(ctx, 10)

		require.NoError(t, err)
		assert.Equal(t, 1, rep.Primed)
		assert.Equal(t, 1, rep.Failed)
	})

	t.Run("cancellation is honored between batches", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		stats := new(MockStatsRepository)
		store := newTestStore(t)
		dashboards := NewStatsService(tenants, stats, store, time.Minute, nil)
		global := NewGlobalStatsService(tenants, stats, store, time.Minute, nil)
		primer := NewPrimer(tenants, dashboards, global, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tenants.On("FindActiveIDs", ctx).Return([]uuid.UUID{uuid.New()}, nil)

		rep, err := primer.PrimeAll(ctx, 1)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, rep.Primed)
		tenants.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func keyFor(tenantID uuid.UUID) string {
	return "t:" + tenantID.String() + ":dashboard:stats"
}
