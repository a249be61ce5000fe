// Package highs adapts milp programs to the HiGHS MILP solver.
package highs

import (
	"context"
	"fmt"
	"time"

	gohighs "github.com/bartolsthoorn/gohighs/highs"

	"github.com/vsinha/lotsizing/pkg/domain/milp"
)

// Name is the registry name of this backend
const Name = "highs"

func init() {
	milp.Register(New())
	// Coursework models were written against SCIP; HiGHS solves the same
	// MILPs and stands in for it.
	milp.RegisterAlias("scip", Name)
}

// Backend solves milp programs with HiGHS
type Backend struct{}

// New creates a HiGHS backend
func New() *Backend {
	return &Backend{}
}

// Verify interface compliance
var _ milp.Backend = (*Backend)(nil)

// Name returns the registry name
func (b *Backend) Name() string {
	return Name
}

// Solve converts the program and runs HiGHS. The call itself blocks and is
// not interruptible, so ctx is only checked around it.
func (b *Backend) Solve(ctx context.Context, program *milp.Program, opts milp.SolveOptions) (*milp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}

	model := ToModel(program)

	start := time.Now()
	sol, err := model.Solve(solveOptions(opts)...)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("highs solve failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &milp.Solution{
		Status:  convertStatus(sol.Status),
		Backend: Name,
		Elapsed: elapsed,
	}
	if sol.HasSolution() {
		out.Values = sol.ColValues
		out.Objective = sol.Objective
	}
	return out, nil
}

// ToModel builds the high-level HiGHS model of a program
func ToModel(program *milp.Program) *gohighs.Model {
	n := program.NumVars()
	model := &gohighs.Model{
		Maximize: program.Maximize,
		Offset:   program.Objective.Constant,
		ColCosts: program.ObjectiveCosts(),
		ColLower: make([]float64, n),
		ColUpper: make([]float64, n),
		VarTypes: make([]gohighs.VariableType, n),
	}

	for i, v := range program.Variables {
		model.ColLower[i] = v.Lower
		model.ColUpper[i] = v.Upper
		if v.Kind != milp.Continuous {
			model.VarTypes[i] = gohighs.Integer
		}
	}

	for _, c := range program.Constraints {
		cols, vals := c.Expr.Sparse()
		lower, upper := c.Bounds()
		model.AddSparseRow(lower, cols, vals, upper)
	}
	return model
}

// WriteModel exports the program to filename. HiGHS picks the format from
// the extension (.lp or .mps).
func WriteModel(program *milp.Program, filename string) error {
	if err := program.Validate(); err != nil {
		return err
	}

	solver, err := gohighs.NewSolver()
	if err != nil {
		return fmt.Errorf("failed to create highs solver: %w", err)
	}
	defer solver.Close()

	if err := solver.SetBoolOption("output_flag", false); err != nil {
		return err
	}

	model := ToModel(program)
	if err := solver.AddVars(model.ColLower, model.ColUpper); err != nil {
		return fmt.Errorf("failed to add columns: %w", err)
	}
	if err := solver.SetColCosts(model.ColCosts); err != nil {
		return fmt.Errorf("failed to set objective: %w", err)
	}
	if err := solver.SetIntegrality(model.VarTypes); err != nil {
		return fmt.Errorf("failed to set integrality: %w", err)
	}
	if err := solver.SetMaximize(program.Maximize); err != nil {
		return err
	}
	if program.Objective.Constant != 0 {
		if err := solver.SetObjectiveOffset(program.Objective.Constant); err != nil {
			return err
		}
	}
	for _, c := range program.Constraints {
		cols, vals := c.Expr.Sparse()
		lower, upper := c.Bounds()
		if err := solver.AddRow(lower, upper, cols, vals); err != nil {
			return fmt.Errorf("failed to add row %s: %w", c.Name, err)
		}
	}

	if err := solver.WriteModel(filename); err != nil {
		return fmt.Errorf("failed to write model to %s: %w", filename, err)
	}
	return nil
}

func solveOptions(opts milp.SolveOptions) []gohighs.SolveOption {
	out := []gohighs.SolveOption{gohighs.WithOutput(opts.Output)}
	if opts.TimeLimit > 0 {
		out = append(out, gohighs.WithTimeLimit(opts.TimeLimit.Seconds()))
	}
	if opts.MIPRelGap > 0 {
		out = append(out, gohighs.WithMIPRelGap(opts.MIPRelGap))
	}
	if opts.Threads > 0 {
		out = append(out, gohighs.WithThreads(opts.Threads))
	}
	return out
}

func convertStatus(s gohighs.ModelStatus) milp.Status {
	switch s {
	case gohighs.ModelStatusOptimal:
		return milp.StatusOptimal
	case gohighs.ModelStatusInfeasible:
		return milp.StatusInfeasible
	case gohighs.ModelStatusUnbounded:
		return milp.StatusUnbounded
	case gohighs.ModelStatusUnboundedOrInfeasible:
		// presolve reports this for empty feasible regions of bounded models
		return milp.StatusInfeasible
	case gohighs.ModelStatusTimeLimit, gohighs.ModelStatusIterationLimit:
		return milp.StatusTimeLimit
	case gohighs.ModelStatusNotSet, gohighs.ModelStatusModelEmpty:
		return milp.StatusNotSolved
	default:
		return milp.StatusError
	}
}
