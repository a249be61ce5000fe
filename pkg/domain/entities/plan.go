package entities

import (
	"math"

	"github.com/shopspring/decimal"
)

// ZeroTolerance is the magnitude below which solver values are reported as zero
const ZeroTolerance = 1e-3

// PlanStatus represents the outcome of solving an instance
type PlanStatus int

const (
	PlanNotSolved PlanStatus = iota
	PlanOptimal
	PlanInfeasible
	PlanUnbounded
	PlanTimeLimit
	PlanError
)

// String method for PlanStatus enum
func (s PlanStatus) String() string {
	switch s {
	case PlanNotSolved:
		return "NotSolved"
	case PlanOptimal:
		return "Optimal"
	case PlanInfeasible:
		return "Infeasible"
	case PlanUnbounded:
		return "Unbounded"
	case PlanTimeLimit:
		return "TimeLimit"
	case PlanError:
		return "Error"
	default:
		return "Unknown"
	}
}

// MarshalText renders the status by name in json output
func (s PlanStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CostBreakdown holds the three objective components and their sum
type CostBreakdown struct {
	Ordering   decimal.Decimal `json:"ordering"`
	Purchasing decimal.Decimal `json:"purchasing"`
	Holding    decimal.Decimal `json:"holding"`
	Total      decimal.Decimal `json:"total"`
}

// NewCostBreakdown rounds each component to cents and sets Total to their exact sum
func NewCostBreakdown(ordering, purchasing, holding float64) CostBreakdown {
	o := decimal.NewFromFloat(ordering).Round(2)
	p := decimal.NewFromFloat(purchasing).Round(2)
	h := decimal.NewFromFloat(holding).Round(2)
	return CostBreakdown{
		Ordering:   o,
		Purchasing: p,
		Holding:    h,
		Total:      o.Add(p).Add(h),
	}
}

// Component returns the value of one cost component
func (c CostBreakdown) Component(component CostComponent) decimal.Decimal {
	switch component {
	case OrderingCost:
		return c.Ordering
	case PurchasingCost:
		return c.Purchasing
	case HoldingCost:
		return c.Holding
	default:
		return decimal.Zero
	}
}

// OrderLine represents a quantity of one product bought from one supplier in one period
type OrderLine struct {
	Product  ProductID  `json:"product"`
	Supplier SupplierID `json:"supplier"`
	Period   Period     `json:"period"`
	Quantity float64    `json:"quantity"`
}

// PeriodPlan holds the decisions and resulting stock of a single period
type PeriodPlan struct {
	Period          Period       `json:"period"`
	ActiveSuppliers []SupplierID `json:"active_suppliers"`
	Orders          []OrderLine  `json:"orders"`
	EndingInventory []float64    `json:"ending_inventory"`
	StorageUsed     float64      `json:"storage_used"`
}

// OrderedFrom returns the quantity of a product ordered from a supplier in this period
func (pp *PeriodPlan) OrderedFrom(product ProductID, supplier SupplierID) float64 {
	for _, o := range pp.Orders {
		if o.Product == product && o.Supplier == supplier {
			return o.Quantity
		}
	}
	return 0
}

// Ordered returns the quantity of a product ordered from all suppliers in this period
func (pp *PeriodPlan) Ordered(product ProductID) float64 {
	var total float64
	for _, o := range pp.Orders {
		if o.Product == product {
			total += o.Quantity
		}
	}
	return total
}

// IsActive reports whether the supplier was activated in this period
func (pp *PeriodPlan) IsActive(supplier SupplierID) bool {
	for _, s := range pp.ActiveSuppliers {
		if s == supplier {
			return true
		}
	}
	return false
}

// Plan is the solved ordering schedule of an instance
type Plan struct {
	Status       PlanStatus    `json:"status"`
	Costs        CostBreakdown `json:"costs"`
	Objective    float64       `json:"objective"`
	Periods      []PeriodPlan  `json:"periods"`
	TotalOrdered []float64     `json:"total_ordered"`
}

// IsOptimal returns true if the plan is a proven optimum
func (p *Plan) IsOptimal() bool {
	return p != nil && p.Status == PlanOptimal
}

// NormalizeZero maps values within ZeroTolerance of zero to exactly zero
func NormalizeZero(v float64) float64 {
	if math.Abs(v) <= ZeroTolerance {
		return 0
	}
	return v
}

// RoundTo rounds v to the given number of decimal places after normalizing zero
func RoundTo(v float64, places int) float64 {
	v = NormalizeZero(v)
	scale := math.Pow(10, float64(places))
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}
