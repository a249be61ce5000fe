package entities

import (
	"errors"
	"fmt"
)

// ErrInvalidInstance is returned when instance data fails validation
var ErrInvalidInstance = errors.New("invalid lot-sizing instance")

// DefaultBigM is the activation constant used when an instance does not set one
const DefaultBigM = 10000.0

// Instance holds the complete data of one lot-sizing problem.
//
// Demand is indexed [product][period], PurchaseCost [product][supplier] and
// Capacity [period].
type Instance struct {
	Name         string      `json:"name"`
	Products     []Product   `json:"products"`
	Suppliers    []Supplier  `json:"suppliers"`
	Periods      int         `json:"periods"`
	Demand       [][]float64 `json:"demand"`
	PurchaseCost [][]float64 `json:"purchase_cost"`
	Capacity     []float64   `json:"capacity"`
	BigM         float64     `json:"big_m"`
}

// NewInstance creates a validated Instance. A zero bigM selects DefaultBigM.
func NewInstance(
	name string,
	products []Product,
	suppliers []Supplier,
	demand [][]float64,
	purchaseCost [][]float64,
	capacity []float64,
	bigM float64,
) (*Instance, error) {
	if bigM == 0 {
		bigM = DefaultBigM
	}

	inst := &Instance{
		Name:         name,
		Products:     products,
		Suppliers:    suppliers,
		Periods:      len(capacity),
		Demand:       demand,
		PurchaseCost: purchaseCost,
		Capacity:     capacity,
		BigM:         bigM,
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// NumProducts returns |I|
func (inst *Instance) NumProducts() int { return len(inst.Products) }

// NumSuppliers returns |J|
func (inst *Instance) NumSuppliers() int { return len(inst.Suppliers) }

// NumPeriods returns |T|
func (inst *Instance) NumPeriods() int { return inst.Periods }

// Validate checks dimensions and signs of every parameter
func (inst *Instance) Validate() error {
	if len(inst.Products) == 0 {
		return fmt.Errorf("%w: at least one product is required", ErrInvalidInstance)
	}
	if len(inst.Suppliers) == 0 {
		return fmt.Errorf("%w: at least one supplier is required", ErrInvalidInstance)
	}
	if inst.Periods <= 0 {
		return fmt.Errorf("%w: at least one period is required", ErrInvalidInstance)
	}
	if inst.BigM <= 0 {
		return fmt.Errorf("%w: big M must be positive, got %g", ErrInvalidInstance, inst.BigM)
	}

	for i, p := range inst.Products {
		if int(p.ID) != i {
			return fmt.Errorf("%w: product at position %d has id %d", ErrInvalidInstance, i, p.ID)
		}
		if p.InitialInventory < 0 || p.HoldingCost < 0 || p.StoragePerUnit < 0 {
			return fmt.Errorf("%w: %s has a negative parameter", ErrInvalidInstance, p.ID.Label())
		}
	}
	for j, s := range inst.Suppliers {
		if int(s.ID) != j {
			return fmt.Errorf("%w: supplier at position %d has id %d", ErrInvalidInstance, j, s.ID)
		}
		if s.OrderingCost < 0 {
			return fmt.Errorf("%w: %s has a negative ordering cost", ErrInvalidInstance, s.ID.Label())
		}
	}

	if len(inst.Capacity) != inst.Periods {
		return fmt.Errorf("%w: capacity has %d periods, expected %d", ErrInvalidInstance, len(inst.Capacity), inst.Periods)
	}
	for t, w := range inst.Capacity {
		if w < 0 {
			return fmt.Errorf("%w: capacity of %s is negative", ErrInvalidInstance, Period(t).Label())
		}
	}

	if err := checkMatrix("demand", inst.Demand, len(inst.Products), inst.Periods); err != nil {
		return err
	}
	if err := checkMatrix("purchase cost", inst.PurchaseCost, len(inst.Products), len(inst.Suppliers)); err != nil {
		return err
	}
	return nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%w: %s has %d rows, expected %d", ErrInvalidInstance, name, len(m), rows)
	}
	for r, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%w: %s row %d has %d columns, expected %d", ErrInvalidInstance, name, r+1, len(row), cols)
		}
		for c, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: %s[%d][%d] is negative", ErrInvalidInstance, name, r+1, c+1)
			}
		}
	}
	return nil
}

// TotalDemand returns the demand of a product summed over all periods
func (inst *Instance) TotalDemand(product ProductID) float64 {
	var total float64
	for _, d := range inst.Demand[product] {
		total += d
	}
	return total
}

// Clone returns a deep copy of the instance
func (inst *Instance) Clone() *Instance {
	out := &Instance{
		Name:         inst.Name,
		Products:     append([]Product(nil), inst.Products...),
		Suppliers:    append([]Supplier(nil), inst.Suppliers...),
		Periods:      inst.Periods,
		Demand:       cloneMatrix(inst.Demand),
		PurchaseCost: cloneMatrix(inst.PurchaseCost),
		Capacity:     append([]float64(nil), inst.Capacity...),
		BigM:         inst.BigM,
	}
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// CostComponent names one of the three objective terms
type CostComponent int

const (
	OrderingCost CostComponent = iota
	PurchasingCost
	HoldingCost
)

// String method for CostComponent enum
func (c CostComponent) String() string {
	switch c {
	case OrderingCost:
		return "ordering"
	case PurchasingCost:
		return "purchasing"
	case HoldingCost:
		return "holding"
	default:
		return "unknown"
	}
}

// ParseCostComponent maps a component name back to its enum value
func ParseCostComponent(name string) (CostComponent, error) {
	switch name {
	case "ordering":
		return OrderingCost, nil
	case "purchasing":
		return PurchasingCost, nil
	case "holding":
		return HoldingCost, nil
	default:
		return 0, fmt.Errorf("unknown cost component: %s", name)
	}
}

// ScaleCost returns a copy of the instance with every parameter of the given
// cost component multiplied by factor
func (inst *Instance) ScaleCost(component CostComponent, factor float64) (*Instance, error) {
	if factor < 0 {
		return nil, fmt.Errorf("%w: scale factor cannot be negative, got %g", ErrInvalidInstance, factor)
	}

	out := inst.Clone()
	switch component {
	case OrderingCost:
		for j := range out.Suppliers {
			out.Suppliers[j].OrderingCost *= factor
		}
	case PurchasingCost:
		for i := range out.PurchaseCost {
			for j := range out.PurchaseCost[i] {
				out.PurchaseCost[i][j] *= factor
			}
		}
	case HoldingCost:
		for i := range out.Products {
			out.Products[i].HoldingCost *= factor
		}
	default:
		return nil, fmt.Errorf("unknown cost component: %d", component)
	}
	return out, nil
}

// ScaleHoldingCost is ScaleCost(HoldingCost, factor)
func (inst *Instance) ScaleHoldingCost(factor float64) (*Instance, error) {
	return inst.ScaleCost(HoldingCost, factor)
}

// ScalePurchaseCost is ScaleCost(PurchasingCost, factor)
func (inst *Instance) ScalePurchaseCost(factor float64) (*Instance, error) {
	return inst.ScaleCost(PurchasingCost, factor)
}

// ScaleOrderingCost is ScaleCost(OrderingCost, factor)
func (inst *Instance) ScaleOrderingCost(factor float64) (*Instance, error) {
	return inst.ScaleCost(OrderingCost, factor)
}

// ScaleAllCosts scales all three cost components by the same factor
func (inst *Instance) ScaleAllCosts(factor float64) (*Instance, error) {
	out := inst
	for _, c := range []CostComponent{OrderingCost, PurchasingCost, HoldingCost} {
		scaled, err := out.ScaleCost(c, factor)
		if err != nil {
			return nil, err
		}
		out = scaled
	}
	return out, nil
}
