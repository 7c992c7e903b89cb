package service

import (
	"context"
	"sync"

	"github.com/nexgenlabs/studio/internal/domain/cost"
	"github.com/nexgenlabs/studio/internal/domain/event"
)

// CostLedger tracks cumulative spend per entity and fires a telemetry
// event the first time spend crosses each configured percentage of the
// entity's budget. A threshold fires exactly once per (entity,
// threshold) pair no matter how many records follow.
type CostLedger struct {
	mu         sync.Mutex
	envelopes  map[string]*cost.Envelope
	fired      map[string]map[float64]bool
	thresholds []float64
	defaultUSD float64
	emitter    event.Emitter
}

// NewCostLedger creates a ledger. thresholds are budget percentages
// (e.g. 95, 100); defaultLimitUSD applies to entities registered
// without an explicit limit.
func NewCostLedger(thresholds []float64, defaultLimitUSD float64, emitter event.Emitter) *CostLedger {
	if emitter == nil {
		emitter = event.Nop()
	}
	return &CostLedger{
		envelopes:  make(map[string]*cost.Envelope),
		fired:      make(map[string]map[float64]bool),
		thresholds: thresholds,
		defaultUSD: defaultLimitUSD,
		emitter:    emitter,
	}
}

// EnsureEnvelope registers an envelope for the entity if one does not
// exist yet and returns a copy of it. limitUSD <= 0 uses the default.
func (l *CostLedger) EnsureEnvelope(entityID string, limitUSD float64) cost.Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.ensureLocked(entityID, limitUSD)
}

func (l *CostLedger) ensureLocked(entityID string, limitUSD float64) *cost.Envelope {
	if env, ok := l.envelopes[entityID]; ok {
		return env
	}
	if limitUSD <= 0 {
		limitUSD = l.defaultUSD
	}
	env := &cost.Envelope{LimitUSD: limitUSD}
	l.envelopes[entityID] = env
	return env
}

// Record adds spend to the entity's envelope and emits one
// cost.threshold event per newly crossed threshold percentage.
func (l *CostLedger) Record(ctx context.Context, entityID string, amountUSD float64) cost.Envelope {
	l.mu.Lock()
	env := l.ensureLocked(entityID, 0)
	env.SpentUSD += amountUSD

	var crossed []float64
	if env.LimitUSD > 0 {
		pct := env.SpentUSD / env.LimitUSD * 100
		fired := l.fired[entityID]
		if fired == nil {
			fired = make(map[float64]bool)
			l.fired[entityID] = fired
		}
		for _, threshold := range l.thresholds {
			if pct >= threshold && !fired[threshold] {
				fired[threshold] = true
				crossed = append(crossed, threshold)
			}
		}
	}
	snapshot := *env
	l.mu.Unlock()

	for _, threshold := range crossed {
		l.emitter.Emit(ctx, event.New(event.NameCostThreshold, map[string]any{
			"entity_id": entityID,
			"threshold": threshold,
			"spent":     snapshot.SpentUSD,
		}))
	}
	return snapshot
}

// Envelope returns a copy of the entity's envelope, if registered.
func (l *CostLedger) Envelope(entityID string) (cost.Envelope, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	env, ok := l.envelopes[entityID]
	if !ok {
		return cost.Envelope{}, false
	}
	return *env, true
}

// Reset clears all ledger state.
func (l *CostLedger) Reset() {
	l.mu.Lock()
	l.envelopes = make(map[string]*cost.Envelope)
	l.fired = make(map[string]map[float64]bool)
	l.mu.Unlock()
}
