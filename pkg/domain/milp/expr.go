package milp

import (
	"fmt"
	"math"
	"sort"
)

// Term is coef * var
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression sum(coef * var) + Constant. The zero value is 0.
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr builds an expression from a single term
func NewExpr(v Var, coef float64) Expr {
	return Expr{Terms: []Term{{Var: v, Coef: coef}}}
}

// Const builds a constant expression
func Const(c float64) Expr {
	return Expr{Constant: c}
}

// AddTerm returns e + coef*v
func (e Expr) AddTerm(v Var, coef float64) Expr {
	out := e.copy()
	out.Terms = append(out.Terms, Term{Var: v, Coef: coef})
	return out
}

// AddConst returns e + c
func (e Expr) AddConst(c float64) Expr {
	out := e.copy()
	out.Constant += c
	return out
}

// Plus returns e + other
func (e Expr) Plus(other Expr) Expr {
	out := e.copy()
	out.Terms = append(out.Terms, other.Terms...)
	out.Constant += other.Constant
	return out
}

// Minus returns e - other
func (e Expr) Minus(other Expr) Expr {
	return e.Plus(other.Scale(-1))
}

// Scale returns k*e
func (e Expr) Scale(k float64) Expr {
	out := Expr{Terms: make([]Term, len(e.Terms)), Constant: e.Constant * k}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return out
}

// Sum adds expressions together
func Sum(exprs ...Expr) Expr {
	var out Expr
	for _, e := range exprs {
		out.Terms = append(out.Terms, e.Terms...)
		out.Constant += e.Constant
	}
	return out
}

// Eval evaluates the expression at the given column values
func (e Expr) Eval(values []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		if int(t.Var) < len(values) {
			v += t.Coef * values[t.Var]
		}
	}
	return v
}

// Compact merges duplicate variables and drops zero coefficients. Terms are
// returned ordered by column.
func (e Expr) Compact() Expr {
	acc := make(map[Var]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[t.Var] += t.Coef
	}
	out := Expr{Terms: make([]Term, 0, len(acc)), Constant: e.Constant}
	for v, c := range acc {
		if c != 0 {
			out.Terms = append(out.Terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out.Terms, func(i, j int) bool { return out.Terms[i].Var < out.Terms[j].Var })
	return out
}

// Dense returns the coefficients as a vector of length n
func (e Expr) Dense(n int) []float64 {
	out := make([]float64, n)
	for _, t := range e.Terms {
		if int(t.Var) < n {
			out[t.Var] += t.Coef
		}
	}
	return out
}

// Sparse returns compacted column indexes and coefficients
func (e Expr) Sparse() ([]int, []float64) {
	c := e.Compact()
	cols := make([]int, len(c.Terms))
	vals := make([]float64, len(c.Terms))
	for i, t := range c.Terms {
		cols[i] = int(t.Var)
		vals[i] = t.Coef
	}
	return cols, vals
}

func (e Expr) copy() Expr {
	return Expr{Terms: append([]Term(nil), e.Terms...), Constant: e.Constant}
}

func (e Expr) withoutConstant() Expr {
	return Expr{Terms: append([]Term(nil), e.Terms...)}
}

func (e Expr) check(n int) error {
	for _, t := range e.Terms {
		if t.Var < 0 || int(t.Var) >= n {
			return fmt.Errorf("unknown variable %d", t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("coefficient %g on variable %d", t.Coef, t.Var)
		}
	}
	return nil
}
