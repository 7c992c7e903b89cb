package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nexgenlabs/studio/internal/config"
	"github.com/nexgenlabs/studio/internal/domain/cost"
	"github.com/nexgenlabs/studio/internal/domain/event"
)

func testBudget() config.Budget {
	return config.Defaults().Budget
}

// newTestMonitor returns a monitor with a controllable clock.
func newTestMonitor(emitter event.Emitter) (*CostMonitor, *time.Time) {
	m := NewCostMonitor(testBudget(), emitter, nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestCostRateOverWindow(t *testing.T) {
	m, now := newTestMonitor(nil)

	// $1 per minute over 4 minutes.
	for i := 0; i <= 4; i++ {
		m.RecordSnapshot("e1", cost.EntityProject, float64(i), "stage", 10)
		*now = now.Add(time.Minute)
	}

	rate := m.CostRate("e1")
	if rate < 0.99 || rate > 1.01 {
		t.Errorf("rate = %v, want 1.0/min", rate)
	}
}

func TestHistoricalRateNeedsTenSnapshots(t *testing.T) {
	m, now := newTestMonitor(nil)
	for i := 0; i < 9; i++ {
		m.RecordSnapshot("e1", cost.EntityProject, float64(i), "", 0)
		*now = now.Add(time.Minute)
	}
	if got := m.HistoricalRate("e1"); got != 0 {
		t.Errorf("historical rate with <10 snapshots = %v, want 0", got)
	}
}

func TestRateSpikeDetected(t *testing.T) {
	emitter := &recordingEmitter{}
	m, now := newTestMonitor(emitter)

	// A long steady history at $0.10/min, then a sudden 20x jump in the
	// last two snapshots.
	cumulative := 0.0
	for i := 0; i < 50; i++ {
		m.RecordSnapshot("e1", cost.EntityProject, cumulative, "steady", 100)
		cumulative += 0.10
		*now = now.Add(time.Minute)
	}
	for i := 0; i < 2; i++ {
		m.RecordSnapshot("e1", cost.EntityProject, cumulative, "spike", 100)
		cumulative += 2.0
		*now = now.Add(time.Minute)
	}

	found := m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 100, 0.5)

	var spike *cost.Anomaly
	for i := range found {
		if found[i].AlertType == cost.AlertRateSpike {
			spike = &found[i]
		}
	}
	if spike == nil {
		t.Fatalf("no rate_spike anomaly in %v", found)
	}
	if spike.Severity != cost.SeverityCritical {
		t.Errorf("severity = %s, want critical for a 5x multiplier", spike.Severity)
	}
	if spike.CurrentRate <= spike.ExpectedRate {
		t.Errorf("current rate %v should exceed expected %v", spike.CurrentRate, spike.ExpectedRate)
	}
	if len(emitter.byName(event.NameCostAnomalyDetected)) == 0 {
		t.Error("no anomaly telemetry emitted")
	}
}

func TestBudgetExceededAnomaly(t *testing.T) {
	m, _ := newTestMonitor(nil)
	m.RecordSnapshot("e1", cost.EntityProject, 12, "stage", 10)

	found := m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0.5)
	var seen bool
	for _, a := range found {
		if a.AlertType == cost.AlertBudgetExceeded {
			seen = true
			if a.Severity != cost.SeverityCritical {
				t.Errorf("severity = %s, want critical", a.Severity)
			}
		}
	}
	if !seen {
		t.Errorf("no budget_exceeded anomaly in %v", found)
	}
}

func TestProjectedOverrunAnomaly(t *testing.T) {
	m, _ := newTestMonitor(nil)
	// $6 spent at 50% complete projects to $12 against a $10 limit.
	m.RecordSnapshot("e1", cost.EntityProject, 6, "stage", 10)

	found := m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0.5)
	var overrun *cost.Anomaly
	for i := range found {
		if found[i].AlertType == cost.AlertProjectedOverrun {
			overrun = &found[i]
		}
	}
	if overrun == nil {
		t.Fatalf("no projected_overrun anomaly in %v", found)
	}
	if overrun.ProjectedTotal < 11.9 || overrun.ProjectedTotal > 12.1 {
		t.Errorf("projected total = %v, want 12", overrun.ProjectedTotal)
	}
}

func TestBudgetThresholdDeduplicated(t *testing.T) {
	m, _ := newTestMonitor(nil)
	m.RecordSnapshot("e1", cost.EntityProject, 9.6, "stage", 10)

	first := m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0)
	second := m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0)

	count := func(list []cost.Anomaly) int {
		n := 0
		for _, a := range list {
			if a.AlertType == cost.AlertBudgetThreshold {
				n++
			}
		}
		return n
	}
	if count(first) != 1 {
		t.Errorf("first check threshold anomalies = %d, want 1 (95%%)", count(first))
	}
	if count(second) != 0 {
		t.Errorf("second check re-fired threshold anomaly")
	}
}

func TestShouldPauseBudget(t *testing.T) {
	m, _ := newTestMonitor(nil)
	m.RecordSnapshot("e1", cost.EntityProject, 10, "stage", 10)

	paused, reason := m.ShouldPause("e1", 10, true)
	if !paused || reason != "paused_budget" {
		t.Fatalf("ShouldPause = (%v, %q), want (true, paused_budget)", paused, reason)
	}

	// Idempotent: already paused entities are not re-paused.
	paused, reason = m.ShouldPause("e1", 10, true)
	if paused || reason != "" {
		t.Errorf("second ShouldPause = (%v, %q), want (false, empty)", paused, reason)
	}
}

func TestShouldPauseAnomalyCluster(t *testing.T) {
	m, _ := newTestMonitor(nil)
	// Two anomalies inside the window while still under budget: the 95%
	// threshold crossing and a projected overrun at 50% completion.
	m.RecordSnapshot("e1", cost.EntityProject, 9.6, "stage", 10)
	m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0.5)

	paused, reason := m.ShouldPause("e1", 10, true)
	if !paused || reason != "paused_anomaly" {
		t.Errorf("ShouldPause = (%v, %q), want (true, paused_anomaly)", paused, reason)
	}
}

func TestShouldPauseRespectsAutoPauseFlag(t *testing.T) {
	m, _ := newTestMonitor(nil)
	m.RecordSnapshot("e1", cost.EntityProject, 20, "stage", 10)

	if paused, _ := m.ShouldPause("e1", 10, false); paused {
		t.Error("auto-pause disabled entity was paused")
	}
}

func TestResumeEntityClearsPause(t *testing.T) {
	m, _ := newTestMonitor(nil)
	m.RecordSnapshot("e1", cost.EntityProject, 10, "stage", 10)
	m.ShouldPause("e1", 10, true)

	m.ResumeEntity("e1")
	if m.Summary("e1").IsPaused {
		t.Error("entity still paused after resume")
	}
	// Still over budget, so the next check pauses again.
	if paused, _ := m.ShouldPause("e1", 10, true); !paused {
		t.Error("resumed entity over budget was not re-paused")
	}
}

func TestAlertCooldownSuppressesRepeats(t *testing.T) {
	var calls int
	var mu sync.Mutex
	m, now := newTestMonitor(nil)
	m.RegisterAlertHandler(func(cost.Anomaly) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	m.RecordSnapshot("e1", cost.EntityProject, 12, "stage", 10)
	m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0)
	first := calls

	// Within cooldown: condition still true, handler must stay quiet.
	*now = now.Add(30 * time.Second)
	m.RecordSnapshot("e1", cost.EntityProject, 13, "stage", 10)
	m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0)
	if calls != first {
		t.Errorf("handler called during cooldown: %d -> %d", first, calls)
	}

	// Past cooldown the same alert type dispatches again.
	*now = now.Add(2 * time.Minute)
	m.RecordSnapshot("e1", cost.EntityProject, 14, "stage", 10)
	m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0)
	if calls <= first {
		t.Errorf("handler not re-dispatched after cooldown")
	}
}

func TestSummary(t *testing.T) {
	m, now := newTestMonitor(nil)
	m.RecordSnapshot("e1", cost.EntitySession, 1, "tool", 5)
	*now = now.Add(time.Minute)
	m.RecordSnapshot("e1", cost.EntitySession, 2, "tool", 5)

	s := m.Summary("e1")
	if s.CurrentCost != 2 {
		t.Errorf("current cost = %v, want 2", s.CurrentCost)
	}
	if s.EntityType != cost.EntitySession {
		t.Errorf("entity type = %s", s.EntityType)
	}
	if s.SnapshotCount != 2 {
		t.Errorf("snapshot count = %d", s.SnapshotCount)
	}
	if s.RemainingBudget != 3 {
		t.Errorf("remaining = %v, want 3", s.RemainingBudget)
	}
}

func TestCleanupOldData(t *testing.T) {
	m, now := newTestMonitor(nil)
	m.RecordSnapshot("e1", cost.EntityProject, 20, "stage", 10)
	m.CheckForAnomalies(context.Background(), "e1", cost.EntityProject, 10, 0)

	*now = now.Add(8 * 24 * time.Hour)
	m.CleanupOldData(7 * 24 * time.Hour)

	if got := m.Summary("e1").SnapshotCount; got != 0 {
		t.Errorf("snapshots survived cleanup: %d", got)
	}
	if got := len(m.Anomalies("e1", 0)); got != 0 {
		t.Errorf("anomalies survived cleanup: %d", got)
	}
}
