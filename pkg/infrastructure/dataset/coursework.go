// Package dataset holds the literal problem data the planner ships with.
package dataset

import (
	"fmt"

	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/infrastructure/repositories/memory"
)

// CourseworkName is the repository key of the coursework instance
const CourseworkName = "coursework"

var (
	initialInventory = []float64{0, 0, 0, 0, 0}

	// demand[product][period]
	demand = [][]float64{
		{57, 72, 92},
		{90, 73, 89},
		{58, 95, 95},
		{92, 97, 53},
		{54, 88, 87},
	}

	// purchaseCost[product][supplier]
	purchaseCost = [][]float64{
		{209, 997, 578},
		{719, 362, 133},
		{503, 582, 750},
		{857, 731, 589},
		{530, 930, 467},
	}

	holdingCost    = []float64{15, 10, 15, 18, 16}
	orderingCost   = []float64{5895, 1856, 4106}
	capacity       = []float64{3500, 4200, 6000}
	storagePerUnit = []float64{10, 15, 20, 25, 30}
)

const bigM = 10000

// Coursework returns a fresh copy of the 5 product, 3 supplier, 3 period
// instance
func Coursework() *entities.Instance {
	inst, err := courseworkInstance()
	if err != nil {
		panic(fmt.Sprintf("coursework dataset is invalid: %v", err))
	}
	return inst
}

func courseworkInstance() (*entities.Instance, error) {
	products := make([]entities.Product, len(initialInventory))
	for i := range products {
		p, err := entities.NewProduct(entities.ProductID(i), "", initialInventory[i], holdingCost[i], storagePerUnit[i])
		if err != nil {
			return nil, err
		}
		products[i] = *p
	}

	suppliers := make([]entities.Supplier, len(orderingCost))
	for j := range suppliers {
		s, err := entities.NewSupplier(entities.SupplierID(j), "", orderingCost[j])
		if err != nil {
			return nil, err
		}
		suppliers[j] = *s
	}

	inst, err := entities.NewInstance(CourseworkName, products, suppliers, demand, purchaseCost, capacity, bigM)
	if err != nil {
		return nil, err
	}
	// NewInstance keeps the slices it is given
	return inst.Clone(), nil
}

// NewRepository returns an in-memory repository preloaded with every
// literal instance
func NewRepository() (*memory.InstanceRepository, error) {
	repo := memory.NewInstanceRepository(1)
	if err := repo.LoadInstances([]*entities.Instance{Coursework()}); err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}
	return repo, nil
}
