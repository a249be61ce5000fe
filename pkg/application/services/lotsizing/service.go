package lotsizing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/vsinha/lotsizing/pkg/application/dto"
	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/domain/milp"
	"github.com/vsinha/lotsizing/pkg/domain/services"
	"github.com/vsinha/lotsizing/pkg/infrastructure/events"
)

// ErrNoOptimalSolution is returned by operations that need a proven optimum
var ErrNoOptimalSolution = errors.New("no optimal solution found")

// Observer receives the result of every planning run
type Observer interface {
	ObservePlan(result *dto.PlanResult)
}

// ModelWriter is called with every generated program before it is solved
type ModelWriter func(program *milp.Program) error

// PlanningService formulates, solves, extracts and verifies lot-sizing plans
type PlanningService struct {
	backend          milp.Backend
	requestedBackend string
	relaxation       milp.Backend
	solveOptions     milp.SolveOptions
	verifier         *services.PlanVerifier
	eventStore       events.EventStore
	logger           *slog.Logger
	observer         Observer
	modelWriter      ModelWriter
}

// Option configures a PlanningService
type Option func(*PlanningService)

// WithSolveOptions sets the options passed to the MILP backend
func WithSolveOptions(opts milp.SolveOptions) Option {
	return func(s *PlanningService) { s.solveOptions = opts }
}

// WithRelaxation computes an LP bound with the given backend after each solve
func WithRelaxation(backend milp.Backend) Option {
	return func(s *PlanningService) { s.relaxation = backend }
}

// WithRequestedBackend records the backend name the caller asked for when an
// alias was resolved
func WithRequestedBackend(name string) Option {
	return func(s *PlanningService) { s.requestedBackend = name }
}

// WithVerifier replaces the default plan verifier
func WithVerifier(v *services.PlanVerifier) Option {
	return func(s *PlanningService) { s.verifier = v }
}

// WithEventStore records run events in store
func WithEventStore(store events.EventStore) Option {
	return func(s *PlanningService) { s.eventStore = store }
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *PlanningService) { s.logger = logger }
}

// WithObserver reports every result to o
func WithObserver(o Observer) Option {
	return func(s *PlanningService) { s.observer = o }
}

// WithModelWriter exports every generated program through w
func WithModelWriter(w ModelWriter) Option {
	return func(s *PlanningService) { s.modelWriter = w }
}

// NewPlanningService creates a planning service solving with backend
func NewPlanningService(backend milp.Backend, opts ...Option) *PlanningService {
	s := &PlanningService{
		backend:  backend,
		verifier: services.NewPlanVerifier(0),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan runs the full pipeline on inst. A solve that ends without an optimum
// is not an error: the returned result carries the status and no decisions.
func (s *PlanningService) Plan(ctx context.Context, inst *entities.Instance) (*dto.PlanResult, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load instance: %w", err)
	}
	s.record(events.NewInstanceLoadedEvent(events.InstanceLoaded{
		Name:      inst.Name,
		Products:  inst.NumProducts(),
		Suppliers: inst.NumSuppliers(),
		Periods:   inst.NumPeriods(),
	}))

	f, sol, err := s.solve(ctx, inst)
	if err != nil {
		return nil, err
	}

	result := &dto.PlanResult{
		Instance:         inst,
		Plan:             ExtractPlan(inst, f, sol),
		Backend:          sol.Backend,
		RequestedBackend: s.requestedBackend,
		Model:            modelStats(f.Program),
		SolveTime:        sol.Elapsed,
	}

	if result.Plan.IsOptimal() {
		result.Verification = s.verifier.Verify(inst, result.Plan)
		s.record(events.NewPlanVerifiedEvent(inst.Name, events.PlanVerified{
			Valid:      result.Verification.Valid,
			Violations: len(result.Verification.Violations),
		}))
		if !result.Verification.Valid {
			for _, v := range result.Verification.Violations {
				s.logger.Warn("plan verification failed", "rule", v.Rule, "detail", v.Message)
			}
		}
	} else {
		s.logger.Info("no optimal solution", "instance", inst.Name, "status", result.Plan.Status.String())
	}

	if s.relaxation != nil {
		bound, err := s.relax(ctx, f, result.Plan)
		if err != nil {
			return nil, err
		}
		result.Relaxation = bound
		s.record(events.NewRelaxationComputedEvent(inst.Name, events.RelaxationComputed{
			Status: bound.Status,
			Bound:  bound.Bound,
			Gap:    bound.Gap,
		}))
	}

	if s.observer != nil {
		s.observer.ObservePlan(result)
	}
	return result, nil
}

// SolvePlan formulates and solves inst without verification or relaxation
func (s *PlanningService) SolvePlan(ctx context.Context, inst *entities.Instance) (*entities.Plan, error) {
	f, sol, err := s.solve(ctx, inst)
	if err != nil {
		return nil, err
	}
	return ExtractPlan(inst, f, sol), nil
}

// Backend returns the MILP backend in use
func (s *PlanningService) Backend() milp.Backend {
	return s.backend
}

func (s *PlanningService) solve(ctx context.Context, inst *entities.Instance) (*Formulation, *milp.Solution, error) {
	f, err := Formulate(inst)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build model for %s: %w", inst.Name, err)
	}

	p := f.Program
	s.logger.Debug("model built",
		"instance", inst.Name,
		"variables", p.NumVars(),
		"integer", p.NumInteger(),
		"constraints", p.NumConstraints(),
	)
	s.record(events.NewModelBuiltEvent(inst.Name, events.ModelBuilt{
		Variables:   p.NumVars(),
		Integer:     p.NumInteger(),
		Constraints: p.NumConstraints(),
		Families:    p.FamilyCounts(),
	}))

	if s.modelWriter != nil {
		if err := s.modelWriter(p); err != nil {
			return nil, nil, fmt.Errorf("failed to export model: %w", err)
		}
	}

	sol, err := s.backend.Solve(ctx, p, s.solveOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to solve %s with %s: %w", inst.Name, s.backend.Name(), err)
	}

	s.logger.Info("solve completed",
		"instance", inst.Name,
		"backend", sol.Backend,
		"status", sol.Status.String(),
		"objective", sol.Objective,
		"elapsed", sol.Elapsed,
	)
	s.record(events.NewSolveCompletedEvent(inst.Name, events.SolveCompleted{
		Backend:   sol.Backend,
		Status:    sol.Status.String(),
		Objective: sol.Objective,
		Elapsed:   sol.Elapsed,
	}))
	return f, sol, nil
}

func (s *PlanningService) relax(ctx context.Context, f *Formulation, plan *entities.Plan) (*dto.RelaxationBound, error) {
	sol, err := s.relaxation.Solve(ctx, f.Program, milp.SolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to solve relaxation with %s: %w", s.relaxation.Name(), err)
	}

	bound := &dto.RelaxationBound{Status: sol.Status.String()}
	if !sol.IsOptimal() {
		return bound, nil
	}
	bound.Bound = sol.Objective
	if plan.IsOptimal() && plan.Objective != 0 {
		bound.Gap = (plan.Objective - sol.Objective) / math.Abs(plan.Objective)
	}
	s.logger.Debug("relaxation computed", "bound", bound.Bound, "gap", bound.Gap)
	return bound, nil
}

func (s *PlanningService) record(event events.Event) {
	if s.eventStore == nil {
		return
	}
	if err := s.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		s.logger.Warn("event handler failed", "type", event.Type(), "error", err)
	}
}

func modelStats(p *milp.Program) dto.ModelStats {
	counts := p.FamilyCounts()
	stats := dto.ModelStats{
		Variables:   p.NumVars(),
		Integer:     p.NumInteger(),
		Constraints: p.NumConstraints(),
		Families:    make([]dto.FamilyCount, 0, len(counts)),
	}
	for _, family := range p.Families() {
		stats.Families = append(stats.Families, dto.FamilyCount{Family: family, Count: counts[family]})
	}
	return stats
}
