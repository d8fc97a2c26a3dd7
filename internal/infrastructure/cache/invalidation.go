package cache

import (
	"context"

	"go.uber.org/zap"
)

// Entity identifies a kind of domain data a cached view may depend on.
type Entity string

const (
	EntityTenant     Entity = "tenant"
	EntityDocument   Entity = "document"
	EntityCostRecord Entity = "cost_record"
	EntityCounters   Entity = "counters"
)

// Cached view names. Tenant views are keyed with Key(tenantID, view),
// global views with GlobalKey(view).
const (
	ViewDashboardStats  = "dashboard:stats"
	ViewRecentActivity  = "dashboard:recent"
	ViewCounterSnapshot = "counters:snapshot"
	ViewGlobalStats     = "dashboard:global"
)

// viewDeps declares which views each entity feeds. Registering the
// dependency here is all a new view needs for invalidation.
var viewDeps = map[Entity]struct {
	tenant []string
	global []string
}{
	EntityDocument: {
		tenant: []string{ViewDashboardStats, ViewRecentActivity},
		global: []string{ViewGlobalStats},
	},
	EntityCostRecord: {
		tenant: []string{ViewDashboardStats},
		global: []string{ViewGlobalStats},
	},
	EntityCounters: {
		tenant: []string{ViewCounterSnapshot, ViewDashboardStats},
		global: []string{ViewGlobalStats},
	},
	EntityTenant: {
		global: []string{ViewGlobalStats},
	},
}

// Invalidator evicts cached views when the entities they depend on change.
type Invalidator struct {
	store  Store
	logger *zap.Logger
}

func NewInvalidator(store Store, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{store: store, logger: logger}
}

// EntityChanged evicts every view that depends on any of the given
// entities for the tenant, plus the global views they feed.
func (i *Invalidator) EntityChanged(ctx context.Context, tenantID string, entities ...Entity) {
	seen := make(map[string]struct{})
	var keys []string
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	for _, entity := range entities {
		deps, ok := viewDeps[entity]
		if !ok {
			i.logger.Warn("invalidation requested for unknown entity", zap.String("entity", string(entity)))
			continue
		}
		for _, view := range deps.tenant {
			add(Key(tenantID, view))
		}
		for _, view := range deps.global {
			add(GlobalKey(view))
		}
	}

	if len(keys) > 0 {
		i.store.Delete(ctx, keys...)
	}
}
