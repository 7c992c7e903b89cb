// Package cost defines domain types for cost snapshots, anomaly detection,
// and budget governance.
package cost

import "time"

// EntityType distinguishes the two workflow entity kinds that accrue spend.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntitySession EntityType = "session"
)

// AlertType identifies the kind of detected cost anomaly.
type AlertType string

const (
	AlertRateSpike        AlertType = "rate_spike"
	AlertBudgetExceeded   AlertType = "budget_exceeded"
	AlertProjectedOverrun AlertType = "projected_overrun"
	AlertBudgetThreshold  AlertType = "budget_threshold"
)

// Severity ranks an anomaly for alert routing.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Snapshot is a cost measurement for one entity at a point in time.
// Snapshots are append-only and strictly timestamp-ordered per entity.
type Snapshot struct {
	Timestamp      time.Time  `json:"timestamp"`
	EntityID       string     `json:"entity_id"`
	EntityType     EntityType `json:"entity_type"`
	CumulativeCost float64    `json:"cumulative_cost"`
	Phase          string     `json:"phase,omitempty"`
}

// Anomaly is a detected deviation in cost accumulation. Anomalies form an
// append-only audit trail and are never mutated after creation.
type Anomaly struct {
	EntityID       string     `json:"entity_id"`
	EntityType     EntityType `json:"entity_type"`
	AlertType      AlertType  `json:"alert_type"`
	CurrentRate    float64    `json:"current_rate"`
	ExpectedRate   float64    `json:"expected_rate"`
	ProjectedTotal float64    `json:"projected_total"`
	BudgetLimit    float64    `json:"budget_limit"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Summary is the governance view of one entity's spend.
type Summary struct {
	EntityID        string     `json:"entity_id"`
	EntityType      EntityType `json:"entity_type,omitempty"`
	CurrentCost     float64    `json:"current_cost"`
	CurrentRate     float64    `json:"current_rate"`
	HistoricalRate  float64    `json:"historical_rate"`
	SnapshotCount   int        `json:"snapshot_count"`
	AnomalyCount    int        `json:"anomaly_count"`
	IsPaused        bool       `json:"is_paused"`
	BudgetLimit     float64    `json:"budget_limit,omitempty"`
	RemainingBudget float64    `json:"remaining_budget,omitempty"`
}

// Envelope tracks the budget limit and cumulative spend for one entity.
type Envelope struct {
	LimitUSD float64 `json:"limit_usd"`
	SpentUSD float64 `json:"spent_usd"`
}

// Remaining returns the unspent budget, floored at zero.
func (e Envelope) Remaining() float64 {
	if rem := e.LimitUSD - e.SpentUSD; rem > 0 {
		return rem
	}
	return 0
}

// DetermineSeverity maps an anomaly to its severity. budgetPercentage is the
// current spend as a percentage of the limit; multiplier is the observed rate
// over the historical rate (rate_spike only).
func DetermineSeverity(alert AlertType, budgetPercentage, multiplier float64) Severity {
	switch alert {
	case AlertBudgetExceeded:
		return SeverityCritical
	case AlertProjectedOverrun:
		if budgetPercentage > 0 && budgetPercentage < 120 {
			return SeverityWarning
		}
		return SeverityCritical
	case AlertRateSpike:
		if multiplier >= 3 {
			return SeverityCritical
		}
		return SeverityWarning
	case AlertBudgetThreshold:
		if budgetPercentage >= 100 {
			return SeverityCritical
		}
		return SeverityWarning
	}
	return SeverityInfo
}
