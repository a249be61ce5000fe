package lotsizing

import (
	"context"
	"fmt"
	"sort"

	"github.com/vsinha/lotsizing/pkg/application/dto"
	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/infrastructure/events"
)

// AllCostComponents lists the components a sweep scales by default
var AllCostComponents = []entities.CostComponent{
	entities.OrderingCost,
	entities.PurchasingCost,
	entities.HoldingCost,
}

// SensitivityService re-solves scaled copies of an instance
type SensitivityService struct {
	planner    *PlanningService
	eventStore events.EventStore
}

// NewSensitivityService creates a sweep runner on top of planner
func NewSensitivityService(planner *PlanningService) *SensitivityService {
	return &SensitivityService{planner: planner, eventStore: planner.eventStore}
}

// Sweep solves inst once per (component, factor) pair, one at a time, and
// returns the points ordered by component then factor. Every solve must reach
// an optimum; otherwise the error wraps ErrNoOptimalSolution.
func (s *SensitivityService) Sweep(
	ctx context.Context,
	inst *entities.Instance,
	components []entities.CostComponent,
	factors []float64,
) (*dto.SensitivityReport, error) {
	if len(components) == 0 {
		components = AllCostComponents
	}
	sorted := append([]float64(nil), factors...)
	sort.Float64s(sorted)

	base, err := s.planner.SolvePlan(ctx, inst)
	if err != nil {
		return nil, err
	}
	if !base.IsOptimal() {
		return nil, fmt.Errorf("%w: baseline status %s", ErrNoOptimalSolution, base.Status)
	}

	report := &dto.SensitivityReport{
		Baseline: base.Objective,
		Points:   make([]dto.SensitivityPoint, 0, len(components)*len(sorted)),
	}
	for _, component := range components {
		for _, factor := range sorted {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			scaled, err := inst.ScaleCost(component, factor)
			if err != nil {
				return nil, fmt.Errorf("failed to scale %s cost by %g: %w", component, factor, err)
			}
			scaled.Name = fmt.Sprintf("%s/%s*%g", inst.Name, component, factor)

			plan, err := s.planner.SolvePlan(ctx, scaled)
			if err != nil {
				return nil, err
			}
			if !plan.IsOptimal() {
				return nil, fmt.Errorf("%w: %s cost x%g ended %s", ErrNoOptimalSolution, component, factor, plan.Status)
			}

			point := dto.SensitivityPoint{
				Component: component,
				Name:      component.String(),
				Factor:    factor,
				Status:    plan.Status,
				Objective: plan.Objective,
				Total:     plan.Costs.Total,
			}
			report.Points = append(report.Points, point)

			if s.eventStore != nil {
				_ = s.eventStore.AppendEvent(inst.Name, events.NewSensitivityEvaluatedEvent(inst.Name, events.SensitivityEvaluated{
					Component: point.Name,
					Factor:    factor,
					Status:    plan.Status.String(),
					Objective: plan.Objective,
				}))
			}
		}
	}
	return report, nil
}
