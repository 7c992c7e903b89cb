package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nexgenlabs/studio/internal/config"
	"github.com/nexgenlabs/studio/internal/domain/cost"
	"github.com/nexgenlabs/studio/internal/domain/event"
)

// AlertHandler receives every anomaly that clears the dispatch cooldown.
type AlertHandler func(cost.Anomaly)

// CostMonitor keeps time-ordered cost snapshots per entity, detects
// spend anomalies after every snapshot, and decides when an entity must
// be paused. Snapshot history is bounded to the configured retention
// window.
type CostMonitor struct {
	mu          sync.Mutex
	cfg         config.Budget
	snapshots   map[string][]cost.Snapshot
	anomalies   []cost.Anomaly
	paused      map[string]bool
	limits      map[string]float64
	fired       map[string]map[float64]bool
	handlers    []AlertHandler
	lastAlertAt map[string]time.Time
	emitter     event.Emitter
	log         *slog.Logger

	now func() time.Time
}

// NewCostMonitor creates a monitor with the given budget configuration.
func NewCostMonitor(cfg config.Budget, emitter event.Emitter, log *slog.Logger) *CostMonitor {
	if emitter == nil {
		emitter = event.Nop()
	}
	if log == nil {
		log = slog.Default()
	}
	return &CostMonitor{
		cfg:         cfg,
		snapshots:   make(map[string][]cost.Snapshot),
		paused:      make(map[string]bool),
		limits:      make(map[string]float64),
		fired:       make(map[string]map[float64]bool),
		lastAlertAt: make(map[string]time.Time),
		emitter:     emitter,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterAlertHandler adds a callback invoked for dispatched anomalies.
func (m *CostMonitor) RegisterAlertHandler(h AlertHandler) {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// RecordSnapshot appends a cost measurement for the entity and prunes
// snapshots older than the retention window. budgetLimit > 0 updates
// the entity's known limit.
func (m *CostMonitor) RecordSnapshot(entityID string, entityType cost.EntityType, cumulativeCost float64, phase string, budgetLimit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if budgetLimit > 0 {
		m.limits[entityID] = budgetLimit
	}
	snaps := append(m.snapshots[entityID], cost.Snapshot{
		Timestamp:      now,
		EntityID:       entityID,
		EntityType:     entityType,
		CumulativeCost: cumulativeCost,
		Phase:          phase,
	})

	cutoff := now.Add(-m.cfg.SnapshotRetention)
	kept := snaps[:0]
	for _, s := range snaps {
		if s.Timestamp.After(cutoff) {
			kept = append(kept, s)
		}
	}
	m.snapshots[entityID] = kept
}

// CostRate returns cost per minute between the oldest and newest
// snapshots inside the trailing rate window. Needs at least two
// snapshots in the window.
func (m *CostMonitor) CostRate(entityID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.costRateLocked(entityID)
}

func (m *CostMonitor) costRateLocked(entityID string) float64 {
	snaps := m.snapshots[entityID]
	if len(snaps) < 2 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.RateWindow)
	var recent []cost.Snapshot
	for _, s := range snaps {
		if s.Timestamp.After(cutoff) {
			recent = append(recent, s)
		}
	}
	if len(recent) < 2 {
		return 0
	}
	oldest, newest := recent[0], recent[len(recent)-1]
	minutes := newest.Timestamp.Sub(oldest.Timestamp).Minutes()
	if minutes == 0 {
		return 0
	}
	return (newest.CumulativeCost - oldest.CumulativeCost) / minutes
}

// HistoricalRate returns the 95th-percentile per-interval rate over the
// entity's full snapshot history. Meaningless under 10 snapshots, so it
// returns 0 below that.
func (m *CostMonitor) HistoricalRate(entityID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historicalRateLocked(entityID)
}

func (m *CostMonitor) historicalRateLocked(entityID string) float64 {
	snaps := m.snapshots[entityID]
	if len(snaps) < 10 {
		return 0
	}
	sorted := make([]cost.Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var rates []float64
	for i := 1; i < len(sorted); i++ {
		minutes := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Minutes()
		if minutes > 0 {
			rates = append(rates, (sorted[i].CumulativeCost-sorted[i-1].CumulativeCost)/minutes)
		}
	}
	if len(rates) == 0 {
		return 0
	}
	sort.Float64s(rates)
	idx := int(float64(len(rates)) * 0.95)
	if idx >= len(rates) {
		idx = len(rates) - 1
	}
	return rates[idx]
}

// ProjectedFinalCost linearly extrapolates the current cumulative cost
// to 100% completion. Returns 0 when there is nothing to project.
func (m *CostMonitor) ProjectedFinalCost(entityID string, completion float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projectedLocked(entityID, completion)
}

func (m *CostMonitor) projectedLocked(entityID string, completion float64) float64 {
	snaps := m.snapshots[entityID]
	if len(snaps) == 0 || completion <= 0 {
		return 0
	}
	return snaps[len(snaps)-1].CumulativeCost / completion
}

// CheckForAnomalies evaluates all anomaly conditions for the entity:
// crossed budget-threshold percentages (deduplicated per entity), hard
// budget exceedance, current-rate spikes against the historical p95,
// and projected overrun with a 10% buffer. Detected anomalies are
// appended to the audit trail, emitted as telemetry, and dispatched to
// alert handlers subject to the per-(entity, alert type) cooldown.
func (m *CostMonitor) CheckForAnomalies(ctx context.Context, entityID string, entityType cost.EntityType, budgetLimit, completion float64) []cost.Anomaly {
	m.mu.Lock()

	snaps := m.snapshots[entityID]
	if len(snaps) == 0 {
		m.mu.Unlock()
		return nil
	}
	if budgetLimit <= 0 {
		if known, ok := m.limits[entityID]; ok {
			budgetLimit = known
		} else {
			budgetLimit = m.cfg.DefaultProjectLimitUSD
		}
	}

	now := m.now()
	currentCost := snaps[len(snaps)-1].CumulativeCost
	currentRate := m.costRateLocked(entityID)
	historicalRate := m.historicalRateLocked(entityID)
	var budgetPct float64
	if budgetLimit > 0 {
		budgetPct = currentCost / budgetLimit * 100
	}

	var found []cost.Anomaly

	fired := m.fired[entityID]
	if fired == nil {
		fired = make(map[float64]bool)
		m.fired[entityID] = fired
	}
	thresholds := make([]float64, len(m.cfg.AlertPercentages))
	copy(thresholds, m.cfg.AlertPercentages)
	sort.Float64s(thresholds)
	for _, threshold := range thresholds {
		if fired[threshold] || budgetPct < threshold {
			continue
		}
		fired[threshold] = true
		found = append(found, cost.Anomaly{
			EntityID:       entityID,
			EntityType:     entityType,
			AlertType:      cost.AlertBudgetThreshold,
			CurrentRate:    currentRate,
			ExpectedRate:   historicalRate,
			ProjectedTotal: currentCost,
			BudgetLimit:    budgetLimit,
			Severity:       cost.DetermineSeverity(cost.AlertBudgetThreshold, budgetPct, 1),
			Message:        fmt.Sprintf("Budget consumption reached %.0f%% ($%.2f/$%.2f)", threshold, currentCost, budgetLimit),
			Timestamp:      now,
		})
	}

	if currentCost >= budgetLimit {
		found = append(found, cost.Anomaly{
			EntityID:       entityID,
			EntityType:     entityType,
			AlertType:      cost.AlertBudgetExceeded,
			CurrentRate:    currentRate,
			ExpectedRate:   historicalRate,
			ProjectedTotal: currentCost,
			BudgetLimit:    budgetLimit,
			Severity:       cost.DetermineSeverity(cost.AlertBudgetExceeded, budgetPct, 1),
			Message:        fmt.Sprintf("Budget exceeded: $%.2f >= $%.2f", currentCost, budgetLimit),
			Timestamp:      now,
		})
	}

	if historicalRate > 0 && currentRate > historicalRate*m.cfg.RateSpikeMultiplier {
		multiplier := currentRate / historicalRate
		projected := m.projectedLocked(entityID, completion)
		if projected == 0 {
			projected = currentCost
		}
		found = append(found, cost.Anomaly{
			EntityID:       entityID,
			EntityType:     entityType,
			AlertType:      cost.AlertRateSpike,
			CurrentRate:    currentRate,
			ExpectedRate:   historicalRate,
			ProjectedTotal: projected,
			BudgetLimit:    budgetLimit,
			Severity:       cost.DetermineSeverity(cost.AlertRateSpike, budgetPct, multiplier),
			Message: fmt.Sprintf("Cost rate spike detected: $%.4f/min (expected: $%.4f/min, threshold: %.1fx)",
				currentRate, historicalRate, m.cfg.RateSpikeMultiplier),
			Timestamp: now,
		})
	}

	if completion > 0 {
		projected := m.projectedLocked(entityID, completion)
		if projected > budgetLimit*1.1 {
			found = append(found, cost.Anomaly{
				EntityID:       entityID,
				EntityType:     entityType,
				AlertType:      cost.AlertProjectedOverrun,
				CurrentRate:    currentRate,
				ExpectedRate:   historicalRate,
				ProjectedTotal: projected,
				BudgetLimit:    budgetLimit,
				Severity:       cost.DetermineSeverity(cost.AlertProjectedOverrun, budgetPct, 1),
				Message: fmt.Sprintf("Projected cost overrun: $%.2f > $%.2f (current: $%.2f at %.1f%% complete)",
					projected, budgetLimit, currentCost, completion*100),
				Timestamp: now,
			})
		}
	}

	m.anomalies = append(m.anomalies, found...)

	var toDispatch []cost.Anomaly
	for _, a := range found {
		key := entityID + "|" + string(a.AlertType)
		if last, ok := m.lastAlertAt[key]; ok && now.Sub(last) < m.cfg.AlertCooldown {
			continue
		}
		m.lastAlertAt[key] = now
		toDispatch = append(toDispatch, a)
	}
	handlers := make([]AlertHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, a := range found {
		m.log.Warn("cost anomaly", slog.String("entity_id", a.EntityID),
			slog.String("alert_type", string(a.AlertType)), slog.String("message", a.Message))
		m.emitter.Emit(ctx, event.New(event.NameCostAnomalyDetected, map[string]any{
			"entity_id":       a.EntityID,
			"entity_type":     string(a.EntityType),
			"alert_type":      string(a.AlertType),
			"current_rate":    a.CurrentRate,
			"expected_rate":   a.ExpectedRate,
			"projected_total": a.ProjectedTotal,
			"budget_limit":    a.BudgetLimit,
			"severity":        string(a.Severity),
		}))
	}
	for _, a := range toDispatch {
		for _, h := range handlers {
			h(a)
		}
	}
	return found
}

// ShouldPause decides whether the entity must be paused: true with
// reason "paused_budget" once spend reaches the limit, or with reason
// "paused_anomaly" after two or more anomalies inside the trailing
// anomaly window. Idempotent: an already paused entity returns false.
func (m *CostMonitor) ShouldPause(entityID string, budgetLimit float64, autoPauseEnabled bool) (bool, string) {
	if !autoPauseEnabled {
		return false, ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused[entityID] {
		return false, ""
	}
	snaps := m.snapshots[entityID]
	if len(snaps) == 0 {
		return false, ""
	}
	if budgetLimit <= 0 {
		if known, ok := m.limits[entityID]; ok {
			budgetLimit = known
		} else {
			budgetLimit = m.cfg.DefaultProjectLimitUSD
		}
	}

	if snaps[len(snaps)-1].CumulativeCost >= budgetLimit {
		m.paused[entityID] = true
		return true, "paused_budget"
	}

	cutoff := m.now().Add(-m.cfg.AnomalyPauseWindow)
	recent := 0
	for _, a := range m.anomalies {
		if a.EntityID == entityID && a.Timestamp.After(cutoff) {
			recent++
		}
	}
	if recent >= m.cfg.AnomalyPauseCount {
		m.paused[entityID] = true
		return true, "paused_anomaly"
	}
	return false, ""
}

// ResumeEntity clears the paused mark so guardrails apply afresh.
func (m *CostMonitor) ResumeEntity(entityID string) {
	m.mu.Lock()
	delete(m.paused, entityID)
	m.mu.Unlock()
}

// Summary builds the governance view for one entity.
func (m *CostMonitor) Summary(entityID string) cost.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := cost.Summary{
		EntityID:    entityID,
		BudgetLimit: m.limits[entityID],
		IsPaused:    m.paused[entityID],
	}
	snaps := m.snapshots[entityID]
	if len(snaps) == 0 {
		return summary
	}

	summary.EntityType = snaps[len(snaps)-1].EntityType
	summary.CurrentCost = snaps[len(snaps)-1].CumulativeCost
	summary.CurrentRate = m.costRateLocked(entityID)
	summary.HistoricalRate = m.historicalRateLocked(entityID)
	summary.SnapshotCount = len(snaps)
	for _, a := range m.anomalies {
		if a.EntityID == entityID {
			summary.AnomalyCount++
		}
	}
	if summary.BudgetLimit > 0 {
		remaining := summary.BudgetLimit - summary.CurrentCost
		if remaining < 0 {
			remaining = 0
		}
		summary.RemainingBudget = remaining
	}
	return summary
}

// TrackedEntities lists every entity id with snapshot history.
func (m *CostMonitor) TrackedEntities() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Anomalies returns up to limit recorded anomalies, newest first.
// entityID == "" returns anomalies for all entities.
func (m *CostMonitor) Anomalies(entityID string, limit int) []cost.Anomaly {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []cost.Anomaly
	for i := len(m.anomalies) - 1; i >= 0; i-- {
		if entityID != "" && m.anomalies[i].EntityID != entityID {
			continue
		}
		out = append(out, m.anomalies[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// CleanupOldData drops snapshots and anomalies older than maxAge.
func (m *CostMonitor) CleanupOldData(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	for id, snaps := range m.snapshots {
		kept := snaps[:0]
		for _, s := range snaps {
			if s.Timestamp.After(cutoff) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(m.snapshots, id)
			continue
		}
		m.snapshots[id] = kept
	}

	keptAnomalies := m.anomalies[:0]
	for _, a := range m.anomalies {
		if a.Timestamp.After(cutoff) {
			keptAnomalies = append(keptAnomalies, a)
		}
	}
	m.anomalies = keptAnomalies
}

// Reset clears all monitor state.
func (m *CostMonitor) Reset() {
	m.mu.Lock()
	m.snapshots = make(map[string][]cost.Snapshot)
	m.anomalies = nil
	m.paused = make(map[string]bool)
	m.limits = make(map[string]float64)
	m.fired = make(map[string]map[float64]bool)
	m.lastAlertAt = make(map[string]time.Time)
	m.mu.Unlock()
}
