package milp

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram_AddVarsAndConstraints(t *testing.T) {
	p := NewProgram("test")
	x := p.AddContinuous("x", 0, math.Inf(1))
	y := p.AddBinary("y")
	z := p.AddInteger("z", -3, 3)

	// x + 2 <= 10*y  is folded to  x - 10y <= -2
	p.AddConstraint("link", "link[x]", NewExpr(x, 1).AddConst(2).AddTerm(y, -10), LessEq, 0)
	p.AddConstraint("cap", "cap", Sum(NewExpr(x, 1), NewExpr(z, 2)), GreaterEq, 1)
	p.Minimize(NewExpr(x, 3).AddTerm(y, 5))

	require.NoError(t, p.Validate())
	assert.Equal(t, 3, p.NumVars())
	assert.Equal(t, 2, p.NumConstraints())
	assert.Equal(t, 2, p.NumInteger())
	assert.Equal(t, []string{"link", "cap"}, p.Families())
	assert.Equal(t, map[string]int{"link": 1, "cap": 1}, p.FamilyCounts())
	assert.Equal(t, []float64{3, 5, 0}, p.ObjectiveCosts())

	link := p.Constraints[0]
	assert.Equal(t, -2.0, link.RHS)
	assert.Zero(t, link.Expr.Constant)
	lower, upper := link.Bounds()
	assert.True(t, math.IsInf(lower, -1))
	assert.Equal(t, -2.0, upper)

	assert.Equal(t, Variable{Name: "y", Kind: Binary, Lower: 0, Upper: 1}, p.Variables[y])
}

func TestProgram_ValidateRejectsBadReferences(t *testing.T) {
	p := NewProgram("bad")
	x := p.AddContinuous("x", 0, 1)
	p.AddConstraint("f", "c", NewExpr(x+5, 1), LessEq, 1)

	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProgram)

	q := NewProgram("nan")
	v := q.AddContinuous("v", 0, 1)
	q.Minimize(NewExpr(v, math.NaN()))
	assert.ErrorIs(t, q.Validate(), ErrInvalidProgram)

	r := NewProgram("bounds")
	r.AddContinuous("w", 2, 1)
	assert.ErrorIs(t, r.Validate(), ErrInvalidProgram)
}

func TestExpr_Arithmetic(t *testing.T) {
	e := NewExpr(0, 2).AddTerm(1, 3).AddTerm(0, -2).AddConst(4)
	values := []float64{10, 1}

	assert.Equal(t, 7.0, e.Eval(values))

	c := e.Compact()
	require.Len(t, c.Terms, 1)
	assert.Equal(t, Term{Var: 1, Coef: 3}, c.Terms[0])

	cols, vals := e.Sparse()
	assert.Equal(t, []int{1}, cols)
	assert.Equal(t, []float64{3}, vals)

	assert.Equal(t, 14.0, e.Scale(2).Eval(values))
	assert.Equal(t, 0.0, e.Minus(e).Eval(values))
	assert.Equal(t, []float64{0, 3}, e.Dense(2))

	// AddTerm must not alias the receiver's backing array
	base := NewExpr(0, 1)
	a := base.AddTerm(1, 1)
	b := base.AddTerm(1, 5)
	assert.Equal(t, 11.0, a.Eval(values))
	assert.Equal(t, 15.0, b.Eval(values))
}

func TestConstraint_Violation(t *testing.T) {
	values := []float64{4}
	testCases := []struct {
		name  string
		sense Sense
		rhs   float64
		want  float64
	}{
		{"le satisfied", LessEq, 5, 0},
		{"le violated", LessEq, 3, 1},
		{"ge violated", GreaterEq, 6, 2},
		{"eq violated", Equal, 1, 3},
		{"eq satisfied", Equal, 4, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Constraint{Expr: NewExpr(0, 1), Sense: tc.sense, RHS: tc.rhs}
			assert.InDelta(t, tc.want, c.Violation(values), 1e-12)
		})
	}
}

type fakeBackend struct{ name string }

func (f fakeBackend) Name() string { return f.name }

func (f fakeBackend) Solve(_ context.Context, p *Program, _ SolveOptions) (*Solution, error) {
	return &Solution{Status: StatusOptimal, Values: make([]float64, p.NumVars()), Backend: f.name}, nil
}

func TestRegistry(t *testing.T) {
	Register(fakeBackend{name: "Fake"})
	RegisterAlias("pretend", "fake")

	b, aliased, err := Lookup("FAKE")
	require.NoError(t, err)
	assert.False(t, aliased)
	assert.Equal(t, "Fake", b.Name())

	b, aliased, err = Lookup("pretend")
	require.NoError(t, err)
	assert.True(t, aliased)
	assert.Equal(t, "Fake", b.Name())

	_, _, err = Lookup("cplex")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.Contains(t, Backends(), "fake")
}

func TestSolution_Value(t *testing.T) {
	s := &Solution{Status: StatusOptimal, Values: []float64{1.5, 2}}
	assert.True(t, s.IsOptimal())
	assert.Equal(t, 2.0, s.Value(1))
	assert.Zero(t, s.Value(9))

	var missing *Solution
	assert.False(t, missing.IsOptimal())
	assert.Zero(t, missing.Value(0))
}
