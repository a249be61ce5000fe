// Package milp is a small solver-neutral modelling layer for mixed-integer
// linear programs. Models are built from variables, linear expressions and
// constraints, then handed to a Backend for solving.
package milp

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProgram is returned when a program refers to unknown variables
// or carries non-finite coefficients
var ErrInvalidProgram = errors.New("invalid program")

// VarKind is the domain of a decision variable
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// String method for VarKind enum
func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "Continuous"
	case Integer:
		return "Integer"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Var is a handle to a variable column of a Program
type Var int

// Variable describes one column
type Variable struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Sense is the relation of a constraint
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return "?"
	}
}

// Constraint is a single row: Expr (sense) RHS. Constant terms of the
// expression are folded into RHS when the constraint is added.
type Constraint struct {
	Family string
	Name   string
	Expr   Expr
	Sense  Sense
	RHS    float64
}

// Bounds returns the row as lower <= terms <= upper
func (c Constraint) Bounds() (lower, upper float64) {
	switch c.Sense {
	case LessEq:
		return math.Inf(-1), c.RHS
	case GreaterEq:
		return c.RHS, math.Inf(1)
	default:
		return c.RHS, c.RHS
	}
}

// Program is a linear objective over variables subject to linear constraints
type Program struct {
	Name        string
	Variables   []Variable
	Constraints []Constraint
	Objective   Expr
	Maximize    bool
}

// NewProgram creates an empty minimization program
func NewProgram(name string) *Program {
	return &Program{Name: name}
}

// AddVar appends a variable column and returns its handle
func (p *Program) AddVar(name string, kind VarKind, lower, upper float64) Var {
	if kind == Binary {
		lower, upper = 0, 1
	}
	p.Variables = append(p.Variables, Variable{
		Name:  name,
		Kind:  kind,
		Lower: lower,
		Upper: upper,
	})
	return Var(len(p.Variables) - 1)
}

// AddContinuous adds a continuous variable in [lower, upper]
func (p *Program) AddContinuous(name string, lower, upper float64) Var {
	return p.AddVar(name, Continuous, lower, upper)
}

// AddInteger adds an integer variable in [lower, upper]
func (p *Program) AddInteger(name string, lower, upper float64) Var {
	return p.AddVar(name, Integer, lower, upper)
}

// AddBinary adds a 0/1 variable
func (p *Program) AddBinary(name string) Var {
	return p.AddVar(name, Binary, 0, 1)
}

// AddConstraint adds expr (sense) rhs, tagged with a family for reporting
func (p *Program) AddConstraint(family, name string, expr Expr, sense Sense, rhs float64) {
	p.Constraints = append(p.Constraints, Constraint{
		Family: family,
		Name:   name,
		Expr:   expr.withoutConstant(),
		Sense:  sense,
		RHS:    rhs - expr.Constant,
	})
}

// Minimize sets the objective to minimize expr
func (p *Program) Minimize(expr Expr) {
	p.Objective = expr
	p.Maximize = false
}

// SetMaximize sets the objective to maximize expr
func (p *Program) SetMaximize(expr Expr) {
	p.Objective = expr
	p.Maximize = true
}

// NumVars returns the number of columns
func (p *Program) NumVars() int { return len(p.Variables) }

// NumConstraints returns the number of rows
func (p *Program) NumConstraints() int { return len(p.Constraints) }

// NumInteger returns the number of integer and binary columns
func (p *Program) NumInteger() int {
	n := 0
	for _, v := range p.Variables {
		if v.Kind != Continuous {
			n++
		}
	}
	return n
}

// FamilyCounts returns the number of constraints in each family
func (p *Program) FamilyCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range p.Constraints {
		counts[c.Family]++
	}
	return counts
}

// Families returns constraint family names in first-seen order
func (p *Program) Families() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range p.Constraints {
		if !seen[c.Family] {
			seen[c.Family] = true
			out = append(out, c.Family)
		}
	}
	return out
}

// ObjectiveCosts returns the dense objective coefficient vector
func (p *Program) ObjectiveCosts() []float64 {
	return p.Objective.Dense(p.NumVars())
}

// Validate checks variable references, bounds and coefficients
func (p *Program) Validate() error {
	n := p.NumVars()
	for _, v := range p.Variables {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || v.Lower > v.Upper {
			return fmt.Errorf("%w: variable %s has bounds [%g, %g]", ErrInvalidProgram, v.Name, v.Lower, v.Upper)
		}
	}
	if err := p.Objective.check(n); err != nil {
		return fmt.Errorf("%w: objective: %v", ErrInvalidProgram, err)
	}
	for _, c := range p.Constraints {
		if err := c.Expr.check(n); err != nil {
			return fmt.Errorf("%w: constraint %s: %v", ErrInvalidProgram, c.Name, err)
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("%w: constraint %s has rhs %g", ErrInvalidProgram, c.Name, c.RHS)
		}
	}
	return nil
}

// Violation returns how far values are from satisfying the constraint;
// zero means satisfied
func (c Constraint) Violation(values []float64) float64 {
	lhs := c.Expr.Eval(values)
	switch c.Sense {
	case LessEq:
		return math.Max(0, lhs-c.RHS)
	case GreaterEq:
		return math.Max(0, c.RHS-lhs)
	default:
		return math.Abs(lhs - c.RHS)
	}
}
