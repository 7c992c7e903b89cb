package service

import (
	"context"
	"encoding/json"
	"time"

	costdomain "github.com/nexgenlabs/studio/internal/domain/cost"
	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/port/cache"
)

// GovernanceService answers read-only cost and audit queries for the
// API layer. Per-entity summaries are served through a short-TTL L1
// cache since dashboards poll them aggressively.
type GovernanceService struct {
	monitor *CostMonitor
	ledger  *CostLedger
	audit   *AuditLog
	cache   cache.Cache
	ttl     time.Duration
}

// NewGovernanceService builds the query service. cache may be nil to
// disable summary caching.
func NewGovernanceService(monitor *CostMonitor, ledger *CostLedger, audit *AuditLog, c cache.Cache, ttl time.Duration) *GovernanceService {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &GovernanceService{
		monitor: monitor,
		ledger:  ledger,
		audit:   audit,
		cache:   c,
		ttl:     ttl,
	}
}

// Summary returns the governance view of one entity's spend.
func (g *GovernanceService) Summary(ctx context.Context, entityID string) costdomain.Summary {
	cacheKey := "cost-summary:" + entityID
	if g.cache != nil {
		if data, ok, err := g.cache.Get(ctx, cacheKey); err == nil && ok {
			var cached costdomain.Summary
			if json.Unmarshal(data, &cached) == nil {
				return cached
			}
		}
	}

	summary := g.monitor.Summary(entityID)
	if env, ok := g.ledger.Envelope(entityID); ok {
		if summary.BudgetLimit == 0 {
			summary.BudgetLimit = env.LimitUSD
		}
		summary.RemainingBudget = env.Remaining()
	}

	if g.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, g.ttl)
		}
	}
	return summary
}

// Summaries returns the governance view for every tracked entity.
func (g *GovernanceService) Summaries(ctx context.Context) []costdomain.Summary {
	ids := g.monitor.TrackedEntities()
	out := make([]costdomain.Summary, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Summary(ctx, id))
	}
	return out
}

// Anomalies returns recorded anomalies, newest first. entityID == ""
// covers all entities.
func (g *GovernanceService) Anomalies(entityID string, limit int) []costdomain.Anomaly {
	return g.monitor.Anomalies(entityID, limit)
}

// RecentEvents returns up to n retained audit events, newest first.
func (g *GovernanceService) RecentEvents(n int) []event.Event {
	if g.audit == nil {
		return nil
	}
	return g.audit.Recent(n)
}

// UsageOverview returns retained event counts keyed by event name.
func (g *GovernanceService) UsageOverview() map[string]int {
	if g.audit == nil {
		return map[string]int{}
	}
	return g.audit.CountsByName()
}
