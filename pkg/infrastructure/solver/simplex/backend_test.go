package simplex

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lotsizing/pkg/domain/milp"
)

func solve(t *testing.T, p *milp.Program) *milp.Solution {
	t.Helper()
	sol, err := New().Solve(context.Background(), p, milp.SolveOptions{})
	require.NoError(t, err)
	return sol
}

func TestBackend_RelaxesBinaries(t *testing.T) {
	// min 100y + 2x  s.t.  x >= 7, x <= 50y. The relaxation opens y just
	// enough to carry x: y = 0.14.
	p := milp.NewProgram("fixed-charge")
	x := p.AddContinuous("x", 0, math.Inf(1))
	y := p.AddBinary("y")
	p.AddConstraint("demand", "demand", milp.NewExpr(x, 1), milp.GreaterEq, 7)
	p.AddConstraint("linkage", "linkage", milp.NewExpr(x, 1).AddTerm(y, -50), milp.LessEq, 0)
	p.Minimize(milp.NewExpr(y, 100).AddTerm(x, 2))

	sol := solve(t, p)
	require.True(t, sol.IsOptimal(), "status %s", sol.Status)
	assert.Equal(t, Name, sol.Backend)
	assert.InDelta(t, 28.0, sol.Objective, 1e-6)
	assert.InDelta(t, 7.0, sol.Value(x), 1e-6)
	assert.InDelta(t, 0.14, sol.Value(y), 1e-6)
}

func TestBackend_MaximizeWithShiftedBounds(t *testing.T) {
	p := milp.NewProgram("dice")
	a := p.AddInteger("A", 1, 6)
	b := p.AddInteger("B", 1, 6)
	c := p.AddInteger("C", 1, 6)
	p.AddConstraint("dice", "balance", milp.NewExpr(a, 1).AddTerm(b, -3).AddTerm(c, 2), milp.Equal, 0)
	p.AddConstraint("dice", "order", milp.NewExpr(b, 1).AddTerm(c, -1), milp.GreaterEq, 1)
	p.SetMaximize(milp.Sum(milp.NewExpr(a, 1), milp.NewExpr(b, 1), milp.NewExpr(c, 1)))

	sol := solve(t, p)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 13.0, sol.Objective, 1e-6)
	assert.InDelta(t, 6.0, sol.Value(a), 1e-6)
	assert.InDelta(t, 4.0, sol.Value(b), 1e-6)
	assert.InDelta(t, 3.0, sol.Value(c), 1e-6)
}

func TestBackend_UpperBoundedOnlyVariable(t *testing.T) {
	p := milp.NewProgram("upper")
	x := p.AddContinuous("x", math.Inf(-1), 5)
	p.AddConstraint("f", "floor", milp.NewExpr(x, 1), milp.GreaterEq, -100)
	p.Minimize(milp.NewExpr(x, -1).AddConst(3))

	sol := solve(t, p)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 5.0, sol.Value(x), 1e-6)
	assert.InDelta(t, -2.0, sol.Objective, 1e-6)
}

func TestBackend_FreeVariable(t *testing.T) {
	p := milp.NewProgram("free")
	x := p.AddContinuous("x", math.Inf(-1), math.Inf(1))
	p.AddConstraint("f", "floor", milp.NewExpr(x, 1), milp.GreaterEq, -4)
	p.Minimize(milp.NewExpr(x, 1))

	sol := solve(t, p)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, -4.0, sol.Value(x), 1e-6)
}

func TestBackend_Infeasible(t *testing.T) {
	p := milp.NewProgram("infeasible")
	x := p.AddContinuous("x", 0, 10)
	p.AddConstraint("f", "low", milp.NewExpr(x, 1), milp.GreaterEq, 5)
	p.AddConstraint("f", "high", milp.NewExpr(x, 1), milp.LessEq, 3)
	p.Minimize(milp.NewExpr(x, 1))

	sol := solve(t, p)
	assert.Equal(t, milp.StatusInfeasible, sol.Status)
	assert.Nil(t, sol.Values)
}

func TestBackend_EmptyRowInfeasible(t *testing.T) {
	p := milp.NewProgram("empty-row")
	x := p.AddContinuous("x", 0, 1)
	p.AddConstraint("f", "impossible", milp.Const(2), milp.LessEq, 1)
	p.Minimize(milp.NewExpr(x, 1))

	assert.Equal(t, milp.StatusInfeasible, solve(t, p).Status)
}

func TestBackend_UnusedColumns(t *testing.T) {
	p := milp.NewProgram("unused")
	x := p.AddContinuous("x", 2, 9)
	y := p.AddContinuous("y", -1, 4)
	p.Minimize(milp.NewExpr(x, 1).AddTerm(y, -1))

	sol := solve(t, p)
	require.True(t, sol.IsOptimal())
	assert.Equal(t, []float64{2, 4}, sol.Values)
	assert.InDelta(t, -2.0, sol.Objective, 1e-9)

	q := milp.NewProgram("unbounded")
	z := q.AddContinuous("z", 0, math.Inf(1))
	q.Minimize(milp.NewExpr(z, -1))
	assert.Equal(t, milp.StatusUnbounded, solve(t, q).Status)
}

func TestBackend_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Solve(ctx, milp.NewProgram("empty"), milp.SolveOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToStandardForm_Shape(t *testing.T) {
	p := milp.NewProgram("shape")
	x := p.AddContinuous("x", 0, math.Inf(1))
	y := p.AddBinary("y")
	p.AddConstraint("a", "le", milp.NewExpr(x, 1).AddTerm(y, -3), milp.LessEq, 0)
	p.AddConstraint("a", "eq", milp.NewExpr(x, 1), milp.Equal, -2)
	p.Minimize(milp.NewExpr(x, 1))

	sf := toStandardForm(p, DefaultTolerance)
	// x, y, slack for y <= 1, slack for the <= row
	assert.Len(t, sf.c, 4)
	require.Len(t, sf.rows, 3)

	A, b := sf.matrix()
	rows, cols := A.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	for _, v := range b {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	// x = -2 is flipped to -x = 2
	assert.Equal(t, -1.0, A.At(2, 0))
	assert.Equal(t, 2.0, b[2])
}
