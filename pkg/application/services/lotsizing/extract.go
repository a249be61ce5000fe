package lotsizing

import (
	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/domain/milp"
)

// activationThreshold separates open from closed suppliers in relaxed or
// slightly fractional solutions
const activationThreshold = 0.5

// PlanStatus maps a solver status onto a plan status
func PlanStatus(s milp.Status) entities.PlanStatus {
	switch s {
	case milp.StatusOptimal:
		return entities.PlanOptimal
	case milp.StatusInfeasible:
		return entities.PlanInfeasible
	case milp.StatusUnbounded:
		return entities.PlanUnbounded
	case milp.StatusTimeLimit:
		return entities.PlanTimeLimit
	case milp.StatusNotSolved:
		return entities.PlanNotSolved
	default:
		return entities.PlanError
	}
}

// ExtractPlan reads the decisions of an optimal solution. Any other status
// yields a plan with no periods.
func ExtractPlan(inst *entities.Instance, f *Formulation, sol *milp.Solution) *entities.Plan {
	plan := &entities.Plan{Status: entities.PlanNotSolved}
	if sol == nil {
		return plan
	}
	plan.Status = PlanStatus(sol.Status)
	if !sol.IsOptimal() || len(sol.Values) < f.Program.NumVars() {
		if plan.Status == entities.PlanOptimal {
			plan.Status = entities.PlanError
		}
		return plan
	}

	nT := inst.NumPeriods()
	plan.Periods = make([]entities.PeriodPlan, nT)
	plan.TotalOrdered = make([]float64, inst.NumProducts())

	for t := 0; t < nT; t++ {
		pp := entities.PeriodPlan{
			Period:          entities.Period(t),
			ActiveSuppliers: make([]entities.SupplierID, 0, inst.NumSuppliers()),
			Orders:          make([]entities.OrderLine, 0),
			EndingInventory: make([]float64, inst.NumProducts()),
		}

		for j := range inst.Suppliers {
			if sol.Value(f.Active[j][t]) > activationThreshold {
				pp.ActiveSuppliers = append(pp.ActiveSuppliers, entities.SupplierID(j))
			}
		}

		for j := range inst.Suppliers {
			for i := range inst.Products {
				q := entities.NormalizeZero(sol.Value(f.Order[i][j][t]))
				if q <= 0 {
					continue
				}
				pp.Orders = append(pp.Orders, entities.OrderLine{
					Product:  entities.ProductID(i),
					Supplier: entities.SupplierID(j),
					Period:   entities.Period(t),
					Quantity: q,
				})
				plan.TotalOrdered[i] += q
			}
		}

		for i, product := range inst.Products {
			end := entities.NormalizeZero(sol.Value(f.Inventory[i][t]))
			pp.EndingInventory[i] = end
			pp.StorageUsed += product.StoragePerUnit * end
		}

		plan.Periods[t] = pp
	}

	plan.Objective = sol.Objective
	plan.Costs = entities.NewCostBreakdown(
		f.OrderingCost.Eval(sol.Values),
		f.PurchasingCost.Eval(sol.Values),
		f.HoldingCost.Eval(sol.Values),
	)
	return plan
}
