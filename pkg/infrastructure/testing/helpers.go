package testing

import (
	"github.com/vsinha/lotsizing/pkg/domain/entities"
)

// BuildTwoSupplierInstance builds a hand-checkable scenario: one product with
// demand 10 in each of two periods. Supplier 1 is cheap per unit but
// expensive to open, supplier 2 the opposite. With room to store 10 units,
// buying 20 units from supplier 2 in period 1 costs 30 + 120 + 10 = 160,
// which beats every alternative.
func BuildTwoSupplierInstance(capacity []float64) *entities.Instance {
	inst, err := entities.NewInstance(
		"two-supplier",
		[]entities.Product{{ID: 0, HoldingCost: 1, StoragePerUnit: 1}},
		[]entities.Supplier{{ID: 0, OrderingCost: 100}, {ID: 1, OrderingCost: 30}},
		[][]float64{{10, 10}},
		[][]float64{{5, 6}},
		capacity,
		1000,
	)
	if err != nil {
		panic(err)
	}
	return inst
}

// BuildOverfullInstance builds a scenario that starts with more stock than
// the warehouse can hold, so no plan satisfies the capacity rows
func BuildOverfullInstance() *entities.Instance {
	inst, err := entities.NewInstance(
		"overfull",
		[]entities.Product{{ID: 0, InitialInventory: 100, HoldingCost: 1, StoragePerUnit: 10}},
		[]entities.Supplier{{ID: 0, OrderingCost: 10}},
		[][]float64{{10, 10}},
		[][]float64{{1}},
		[]float64{50, 50},
		0,
	)
	if err != nil {
		panic(err)
	}
	return inst
}

// BuildUpfrontPlan builds the plan for a single-product instance that buys
// the net demand of the whole horizon from the first supplier in period 1
func BuildUpfrontPlan(inst *entities.Instance) *entities.Plan {
	product := inst.Products[0]
	supplier := inst.Suppliers[0]

	qty := inst.TotalDemand(product.ID) - product.InitialInventory
	if qty < 0 {
		qty = 0
	}

	var ordering, holding float64
	stock := product.InitialInventory
	periods := make([]entities.PeriodPlan, inst.NumPeriods())
	for t := range periods {
		pp := entities.PeriodPlan{Period: entities.Period(t)}
		if t == 0 && qty > 0 {
			pp.ActiveSuppliers = []entities.SupplierID{supplier.ID}
			pp.Orders = []entities.OrderLine{{Product: product.ID, Supplier: supplier.ID, Period: 0, Quantity: qty}}
			ordering = supplier.OrderingCost
			stock += qty
		}
		stock -= inst.Demand[product.ID][t]
		pp.EndingInventory = []float64{stock}
		pp.StorageUsed = stock * product.StoragePerUnit
		holding += stock * product.HoldingCost
		periods[t] = pp
	}

	plan := &entities.Plan{
		Status:       entities.PlanOptimal,
		Costs:        entities.NewCostBreakdown(ordering, qty*inst.PurchaseCost[product.ID][supplier.ID], holding),
		Periods:      periods,
		TotalOrdered: []float64{qty},
	}
	plan.Objective = plan.Costs.Total.InexactFloat64()
	return plan
}
