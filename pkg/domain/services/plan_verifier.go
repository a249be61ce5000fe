package services

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/lotsizing/pkg/domain/entities"
)

// Verification rules
const (
	RuleSolution       = "solution"
	RuleShape          = "shape"
	RuleBalance        = "balance"
	RuleLinkage        = "linkage"
	RuleCapacity       = "capacity"
	RuleNonnegativity  = "nonnegativity"
	RuleCostIdentity   = "cost_identity"
	RuleCostComponents = "cost_components"
)

// DefaultVerifyTolerance is the absolute slack allowed on quantity checks
const DefaultVerifyTolerance = 1e-4

// PlanVerifier re-checks an extracted plan against the instance it was solved for
type PlanVerifier struct {
	Tolerance float64
}

// NewPlanVerifier creates a verifier with the given tolerance; zero selects
// DefaultVerifyTolerance
func NewPlanVerifier(tolerance float64) *PlanVerifier {
	if tolerance <= 0 {
		tolerance = DefaultVerifyTolerance
	}
	return &PlanVerifier{Tolerance: tolerance}
}

// Violation is a single failed check
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// VerificationResult contains the results of plan verification
type VerificationResult struct {
	Valid      bool        `json:"valid"`
	Checks     int         `json:"checks"`
	Violations []Violation `json:"violations"`
}

func (r *VerificationResult) check(ok bool, rule, format string, args ...interface{}) {
	r.Checks++
	if !ok {
		r.Violations = append(r.Violations, Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
	}
}

// CountByRule returns the number of violations per rule
func (r *VerificationResult) CountByRule() map[string]int {
	counts := make(map[string]int)
	for _, v := range r.Violations {
		counts[v.Rule]++
	}
	return counts
}

// Verify checks balance, linkage, capacity, sign and cost consistency of plan
func (v *PlanVerifier) Verify(inst *entities.Instance, plan *entities.Plan) *VerificationResult {
	result := &VerificationResult{Violations: make([]Violation, 0)}

	result.check(plan.IsOptimal(), RuleSolution, "plan status is %s", statusOf(plan))
	if !plan.IsOptimal() {
		return result
	}

	result.check(len(plan.Periods) == inst.NumPeriods(), RuleShape,
		"plan has %d periods, instance has %d", len(plan.Periods), inst.NumPeriods())
	if len(plan.Periods) != inst.NumPeriods() {
		return result
	}
	for _, pp := range plan.Periods {
		result.check(len(pp.EndingInventory) == inst.NumProducts(), RuleShape,
			"%s has inventory for %d products, instance has %d", pp.Period.Label(), len(pp.EndingInventory), inst.NumProducts())
	}
	if len(result.Violations) > 0 {
		return result
	}

	v.verifyBalance(inst, plan, result)
	v.verifyLinkage(plan, result)
	v.verifyCapacity(inst, plan, result)
	v.verifyCosts(inst, plan, result)

	result.Valid = len(result.Violations) == 0
	return result
}

func (v *PlanVerifier) verifyBalance(inst *entities.Instance, plan *entities.Plan, result *VerificationResult) {
	for i, product := range inst.Products {
		pid := entities.ProductID(i)
		prev := product.InitialInventory
		for t := range plan.Periods {
			pp := &plan.Periods[t]
			end := pp.EndingInventory[i]
			want := prev + pp.Ordered(pid) - inst.Demand[i][t]
			result.check(math.Abs(end-want) <= v.Tolerance, RuleBalance,
				"%s in %s ends at %.4f, balance gives %.4f", pid.Label(), pp.Period.Label(), end, want)
			result.check(end >= -v.Tolerance, RuleNonnegativity,
				"%s in %s has negative inventory %.4f", pid.Label(), pp.Period.Label(), end)
			prev = end
		}
	}
}

func (v *PlanVerifier) verifyLinkage(plan *entities.Plan, result *VerificationResult) {
	for t := range plan.Periods {
		pp := &plan.Periods[t]
		for _, o := range pp.Orders {
			result.check(o.Quantity >= -v.Tolerance, RuleNonnegativity,
				"%s from %s in %s has negative quantity %.4f", o.Product.Label(), o.Supplier.Label(), pp.Period.Label(), o.Quantity)
			if o.Quantity > entities.ZeroTolerance {
				result.check(pp.IsActive(o.Supplier), RuleLinkage,
					"%s ordered from %s in %s without activating it", o.Product.Label(), o.Supplier.Label(), pp.Period.Label())
			}
		}
	}
}

func (v *PlanVerifier) verifyCapacity(inst *entities.Instance, plan *entities.Plan, result *VerificationResult) {
	for t := range plan.Periods {
		pp := &plan.Periods[t]
		var used float64
		for i, p := range inst.Products {
			used += p.StoragePerUnit * pp.EndingInventory[i]
		}
		limit := inst.Capacity[t]
		result.check(used <= limit+v.Tolerance*math.Max(1, limit), RuleCapacity,
			"%s uses %.4f storage, capacity is %g", pp.Period.Label(), used, limit)
	}
}

func (v *PlanVerifier) verifyCosts(inst *entities.Instance, plan *entities.Plan, result *VerificationResult) {
	c := plan.Costs
	sum := c.Ordering.Add(c.Purchasing).Add(c.Holding)
	result.check(c.Total.Equal(sum), RuleCostIdentity,
		"total %s differs from component sum %s", c.Total.StringFixed(2), sum.StringFixed(2))

	var ordering, purchasing, holding float64
	for t := range plan.Periods {
		pp := &plan.Periods[t]
		for _, s := range pp.ActiveSuppliers {
			ordering += inst.Suppliers[s].OrderingCost
		}
		for _, o := range pp.Orders {
			purchasing += inst.PurchaseCost[o.Product][o.Supplier] * o.Quantity
		}
		for i, p := range inst.Products {
			holding += p.HoldingCost * pp.EndingInventory[i]
		}
	}

	for _, cc := range []struct {
		component entities.CostComponent
		want      float64
	}{
		{entities.OrderingCost, ordering},
		{entities.PurchasingCost, purchasing},
		{entities.HoldingCost, holding},
	} {
		got := c.Component(cc.component)
		want := decimal.NewFromFloat(cc.want)
		slack := decimal.NewFromFloat(0.01 + v.Tolerance*math.Abs(cc.want))
		result.check(got.Sub(want).Abs().LessThanOrEqual(slack), RuleCostComponents,
			"%s cost %s differs from recomputed %s", cc.component, got.StringFixed(2), want.StringFixed(2))
	}
}

func statusOf(plan *entities.Plan) string {
	if plan == nil {
		return "missing"
	}
	return plan.Status.String()
}
