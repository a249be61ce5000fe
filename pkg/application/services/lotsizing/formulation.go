// Package lotsizing builds the multi-supplier lot-sizing MILP, solves it and
// turns the solver output into a plan.
package lotsizing

import (
	"fmt"
	"math"

	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/domain/milp"
)

// Constraint families of the formulation
const (
	FamilyBalance          = "balance"
	FamilyLinkage          = "linkage"
	FamilyCapacity         = "capacity"
	FamilyActivationBounds = "activation_bounds"
	FamilyNonnegativity    = "nonnegativity"
)

// Formulation is the program generated for one instance together with the
// variable handles needed to read a solution back
type Formulation struct {
	Program *milp.Program

	// Order[i][j][t] is the quantity of product i bought from supplier j in period t
	Order [][][]milp.Var
	// Active[j][t] is 1 when supplier j is used in period t
	Active [][]milp.Var
	// Inventory[i][t] is the stock of product i at the end of period t
	Inventory [][]milp.Var

	OrderingCost   milp.Expr
	PurchasingCost milp.Expr
	HoldingCost    milp.Expr
}

// Formulate builds the lot-sizing program of inst:
//
//	min  sum f_j y_jt + sum c_ij x_ijt + sum h_i I_it
//	s.t. I_it = I_i,t-1 + sum_j x_ijt - d_it
//	     x_ijt <= M y_jt
//	     sum_i s_i I_it <= W_t
//	     y_jt binary, x_ijt >= 0, I_it >= 0
func Formulate(inst *entities.Instance) (*Formulation, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	nI, nJ, nT := inst.NumProducts(), inst.NumSuppliers(), inst.NumPeriods()
	f := &Formulation{
		Program:   milp.NewProgram(inst.Name),
		Order:     make([][][]milp.Var, nI),
		Active:    make([][]milp.Var, nJ),
		Inventory: make([][]milp.Var, nI),
	}
	p := f.Program

	for i := 0; i < nI; i++ {
		f.Order[i] = make([][]milp.Var, nJ)
		for j := 0; j < nJ; j++ {
			f.Order[i][j] = make([]milp.Var, nT)
			for t := 0; t < nT; t++ {
				f.Order[i][j][t] = p.AddContinuous(fmt.Sprintf("x_%d_%d_%d", i+1, j+1, t+1), 0, math.Inf(1))
			}
		}
	}
	for j := 0; j < nJ; j++ {
		f.Active[j] = make([]milp.Var, nT)
		for t := 0; t < nT; t++ {
			f.Active[j][t] = p.AddBinary(fmt.Sprintf("y_%d_%d", j+1, t+1))
		}
	}
	for i := 0; i < nI; i++ {
		f.Inventory[i] = make([]milp.Var, nT)
		for t := 0; t < nT; t++ {
			f.Inventory[i][t] = p.AddContinuous(fmt.Sprintf("I_%d_%d", i+1, t+1), 0, math.Inf(1))
		}
	}

	f.addBalance(inst)
	f.addLinkage(inst)
	f.addCapacity(inst)
	f.addActivationBounds()
	f.addNonnegativity()

	f.buildObjective(inst)
	p.Minimize(milp.Sum(f.OrderingCost, f.PurchasingCost, f.HoldingCost))

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("generated program is invalid: %w", err)
	}
	return f, nil
}

func (f *Formulation) addBalance(inst *entities.Instance) {
	for i, product := range inst.Products {
		for t := 0; t < inst.NumPeriods(); t++ {
			inflow := milp.Const(product.InitialInventory)
			if t > 0 {
				inflow = milp.NewExpr(f.Inventory[i][t-1], 1)
			}
			for j := range inst.Suppliers {
				inflow = inflow.AddTerm(f.Order[i][j][t], 1)
			}
			inflow = inflow.AddConst(-inst.Demand[i][t])

			f.Program.AddConstraint(FamilyBalance, fmt.Sprintf("balance_%d_%d", i+1, t+1),
				milp.NewExpr(f.Inventory[i][t], 1).Minus(inflow), milp.Equal, 0)
		}
	}
}

func (f *Formulation) addLinkage(inst *entities.Instance) {
	for i := range inst.Products {
		for j := range inst.Suppliers {
			for t := 0; t < inst.NumPeriods(); t++ {
				f.Program.AddConstraint(FamilyLinkage, fmt.Sprintf("linkage_%d_%d_%d", i+1, j+1, t+1),
					milp.NewExpr(f.Order[i][j][t], 1).AddTerm(f.Active[j][t], -inst.BigM), milp.LessEq, 0)
			}
		}
	}
}

func (f *Formulation) addCapacity(inst *entities.Instance) {
	for t := 0; t < inst.NumPeriods(); t++ {
		var used milp.Expr
		for i, product := range inst.Products {
			used = used.AddTerm(f.Inventory[i][t], product.StoragePerUnit)
		}
		f.Program.AddConstraint(FamilyCapacity, fmt.Sprintf("capacity_%d", t+1), used, milp.LessEq, inst.Capacity[t])
	}
}

// addActivationBounds restates 0 <= y <= 1 as rows
func (f *Formulation) addActivationBounds() {
	for j := range f.Active {
		for t, y := range f.Active[j] {
			f.Program.AddConstraint(FamilyActivationBounds, fmt.Sprintf("activation_lb_%d_%d", j+1, t+1),
				milp.NewExpr(y, 1), milp.GreaterEq, 0)
			f.Program.AddConstraint(FamilyActivationBounds, fmt.Sprintf("activation_ub_%d_%d", j+1, t+1),
				milp.NewExpr(y, 1), milp.LessEq, 1)
		}
	}
}

// addNonnegativity restates x >= 0 and I >= 0 as rows
func (f *Formulation) addNonnegativity() {
	for i := range f.Order {
		for j := range f.Order[i] {
			for t, x := range f.Order[i][j] {
				f.Program.AddConstraint(FamilyNonnegativity, fmt.Sprintf("order_nonneg_%d_%d_%d", i+1, j+1, t+1),
					milp.NewExpr(x, 1), milp.GreaterEq, 0)
			}
		}
	}
	for i := range f.Inventory {
		for t, inv := range f.Inventory[i] {
			f.Program.AddConstraint(FamilyNonnegativity, fmt.Sprintf("inventory_nonneg_%d_%d", i+1, t+1),
				milp.NewExpr(inv, 1), milp.GreaterEq, 0)
		}
	}
}

func (f *Formulation) buildObjective(inst *entities.Instance) {
	for j, supplier := range inst.Suppliers {
		for t := 0; t < inst.NumPeriods(); t++ {
			f.OrderingCost = f.OrderingCost.AddTerm(f.Active[j][t], supplier.OrderingCost)
		}
	}
	for i := range inst.Products {
		for j := range inst.Suppliers {
			for t := 0; t < inst.NumPeriods(); t++ {
				f.PurchasingCost = f.PurchasingCost.AddTerm(f.Order[i][j][t], inst.PurchaseCost[i][j])
			}
		}
	}
	for i, product := range inst.Products {
		for t := 0; t < inst.NumPeriods(); t++ {
			f.HoldingCost = f.HoldingCost.AddTerm(f.Inventory[i][t], product.HoldingCost)
		}
	}
}

// CostExpr returns the expression of one objective component
func (f *Formulation) CostExpr(component entities.CostComponent) milp.Expr {
	switch component {
	case entities.OrderingCost:
		return f.OrderingCost
	case entities.PurchasingCost:
		return f.PurchasingCost
	case entities.HoldingCost:
		return f.HoldingCost
	default:
		return milp.Expr{}
	}
}
