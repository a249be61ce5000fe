package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/domain/services"
)

// PlanResult contains the complete output of a planning run
type PlanResult struct {
	RunID            string                       `json:"run_id,omitempty"`
	Instance         *entities.Instance           `json:"instance"`
	Plan             *entities.Plan               `json:"plan"`
	Backend          string                       `json:"backend"`
	RequestedBackend string                       `json:"requested_backend,omitempty"`
	Model            ModelStats                   `json:"model"`
	SolveTime        time.Duration                `json:"solve_time_ns"`
	Verification     *services.VerificationResult `json:"verification,omitempty"`
	Relaxation       *RelaxationBound             `json:"relaxation,omitempty"`
	Sensitivity      *SensitivityReport           `json:"sensitivity,omitempty"`
}

// ModelStats describes the size of the generated program
type ModelStats struct {
	Variables   int           `json:"variables"`
	Integer     int           `json:"integer"`
	Constraints int           `json:"constraints"`
	Families    []FamilyCount `json:"families"`
}

// FamilyCount is the number of rows in one constraint family
type FamilyCount struct {
	Family string `json:"family"`
	Count  int    `json:"count"`
}

// RelaxationBound is the LP-relaxation objective and its distance to the
// integer optimum. Gap is (optimum - bound) / |optimum|, zero when either side
// is missing.
type RelaxationBound struct {
	Status string  `json:"status"`
	Bound  float64 `json:"bound"`
	Gap    float64 `json:"gap"`
}

// SensitivityPoint is the optimum of the instance with one cost component scaled
type SensitivityPoint struct {
	Component entities.CostComponent `json:"-"`
	Name      string                 `json:"component"`
	Factor    float64                `json:"factor"`
	Status    entities.PlanStatus    `json:"status"`
	Objective float64                `json:"objective"`
	Total     decimal.Decimal        `json:"total"`
}

// SensitivityReport collects a cost sweep around the baseline optimum
type SensitivityReport struct {
	Baseline float64            `json:"baseline"`
	Points   []SensitivityPoint `json:"points"`
}

// NonDecreasing reports whether, within every component, a larger factor
// never produced a smaller optimum
func (r *SensitivityReport) NonDecreasing(tolerance float64) bool {
	last := make(map[entities.CostComponent]SensitivityPoint)
	for _, p := range r.Points {
		prev, seen := last[p.Component]
		if seen && p.Factor >= prev.Factor && p.Objective < prev.Objective-tolerance {
			return false
		}
		if !seen || p.Factor >= prev.Factor {
			last[p.Component] = p
		}
	}
	return true
}
