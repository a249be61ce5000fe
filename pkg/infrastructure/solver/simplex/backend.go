// Package simplex solves the continuous relaxation of milp programs with
// gonum's dense simplex implementation. Integer and binary columns are
// treated as continuous within their bounds, so for a minimization the
// optimum is a lower bound on the integer optimum.
package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/lotsizing/pkg/domain/milp"
)

// Name identifies this backend in solutions and logs
const Name = "simplex"

// DefaultTolerance is passed to lp.Simplex when the options leave it unset
const DefaultTolerance = 1e-10

// Backend computes LP relaxations
type Backend struct{}

// New creates a relaxation backend
func New() *Backend {
	return &Backend{}
}

// Verify interface compliance
var _ milp.Backend = (*Backend)(nil)

// Name returns the backend name
func (b *Backend) Name() string {
	return Name
}

// Solve solves the LP relaxation of program
func (b *Backend) Solve(ctx context.Context, program *milp.Program, opts milp.SolveOptions) (*milp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}

	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	start := time.Now()
	sf := toStandardForm(program, tol)
	status := func(s milp.Status) *milp.Solution {
		return &milp.Solution{Status: s, Backend: Name, Elapsed: time.Since(start)}
	}
	if sf.infeasible {
		return status(milp.StatusInfeasible), nil
	}
	if sf.unbounded {
		return status(milp.StatusUnbounded), nil
	}

	x := make([]float64, len(sf.c))
	if len(sf.rows) > 0 {
		A, bvec := sf.matrix()
		var err error
		_, x, err = lp.Simplex(sf.c, A, bvec, tol, nil)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return status(milp.StatusInfeasible), nil
		case errors.Is(err, lp.ErrUnbounded):
			return status(milp.StatusUnbounded), nil
		case err != nil:
			return nil, fmt.Errorf("simplex failed on %d rows x %d columns: %w", len(bvec), len(sf.c), err)
		}
	} else {
		for _, c := range sf.c {
			if c < 0 {
				return status(milp.StatusUnbounded), nil
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := sf.recover(x)
	return &milp.Solution{
		Status:    milp.StatusOptimal,
		Values:    values,
		Objective: program.Objective.Eval(values),
		Backend:   Name,
		Elapsed:   time.Since(start),
	}, nil
}

// column maps a program variable onto standard-form columns as
// value = offset + x[pos] - x[neg]. A negative index means the part is absent.
type column struct {
	offset float64
	pos    int
	neg    int
}

type sparseRow struct {
	coefs map[int]float64
	rhs   float64
}

type standardForm struct {
	c          []float64
	rows       []sparseRow
	columns    []column
	infeasible bool
	unbounded  bool
}

func (sf *standardForm) addColumn(cost float64) int {
	sf.c = append(sf.c, cost)
	return len(sf.c) - 1
}

// matrix densifies the rows, flipping any with a negative right-hand side
func (sf *standardForm) matrix() (*mat.Dense, []float64) {
	m, n := len(sf.rows), len(sf.c)
	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	for i, r := range sf.rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		b[i] = sign * r.rhs
		for j, v := range r.coefs {
			A.Set(i, j, sign*v)
		}
	}
	return A, b
}

func (sf *standardForm) recover(x []float64) []float64 {
	values := make([]float64, len(sf.columns))
	for i, col := range sf.columns {
		v := col.offset
		if col.pos >= 0 {
			v += x[col.pos]
		}
		if col.neg >= 0 {
			v -= x[col.neg]
		}
		values[i] = v
	}
	return values
}

// toStandardForm rewrites the relaxation as min c'x s.t. Ax = b, x >= 0
func toStandardForm(program *milp.Program, tol float64) *standardForm {
	n := program.NumVars()
	sf := &standardForm{columns: make([]column, n)}

	objective := program.ObjectiveCosts()
	if program.Maximize {
		for i := range objective {
			objective[i] = -objective[i]
		}
	}

	constraints := make([]milp.Expr, len(program.Constraints))
	used := make([]bool, n)
	for k, c := range program.Constraints {
		constraints[k] = c.Expr.Compact()
		for _, t := range constraints[k].Terms {
			used[t.Var] = true
		}
	}

	for i, v := range program.Variables {
		lower, upper := v.Lower, v.Upper
		cost := objective[i]

		// Columns outside every row settle at whichever bound the objective prefers.
		if !used[i] {
			col := column{pos: -1, neg: -1}
			switch {
			case cost > 0 && math.IsInf(lower, -1), cost < 0 && math.IsInf(upper, 1):
				sf.unbounded = true
			case cost > 0:
				col.offset = lower
			case cost < 0:
				col.offset = upper
			default:
				col.offset = math.Max(lower, math.Min(upper, 0))
			}
			sf.columns[i] = col
			continue
		}

		switch {
		case math.IsInf(lower, -1) && math.IsInf(upper, 1):
			sf.columns[i] = column{pos: sf.addColumn(cost), neg: sf.addColumn(-cost)}
		case math.IsInf(lower, -1):
			sf.columns[i] = column{offset: upper, pos: -1, neg: sf.addColumn(-cost)}
		default:
			p := sf.addColumn(cost)
			sf.columns[i] = column{offset: lower, pos: p, neg: -1}
			if !math.IsInf(upper, 1) {
				s := sf.addColumn(0)
				sf.rows = append(sf.rows, sparseRow{coefs: map[int]float64{p: 1, s: 1}, rhs: upper - lower})
			}
		}
	}

	for k, c := range program.Constraints {
		expr := constraints[k]
		r := sparseRow{coefs: make(map[int]float64, len(expr.Terms)+1), rhs: c.RHS}
		for _, t := range expr.Terms {
			col := sf.columns[t.Var]
			r.rhs -= t.Coef * col.offset
			if col.pos >= 0 {
				r.coefs[col.pos] += t.Coef
			}
			if col.neg >= 0 {
				r.coefs[col.neg] -= t.Coef
			}
		}

		if len(expr.Terms) == 0 {
			if (milp.Constraint{Sense: c.Sense, RHS: r.rhs}).Violation(nil) > tol {
				sf.infeasible = true
			}
			continue
		}

		switch c.Sense {
		case milp.LessEq:
			r.coefs[sf.addColumn(0)] = 1
		case milp.GreaterEq:
			r.coefs[sf.addColumn(0)] = -1
		}
		sf.rows = append(sf.rows, r)
	}
	return sf
}
