package entities

import "fmt"

// ProductID identifies a product by its zero-based position in an instance
type ProductID int

// Label returns the one-based label used in reports
func (p ProductID) Label() string {
	return fmt.Sprintf("Product %d", int(p)+1)
}

// Product represents a stocked product and its inventory parameters
type Product struct {
	ID               ProductID `json:"id"`
	Name             string    `json:"name"`
	InitialInventory float64   `json:"initial_inventory"`
	HoldingCost      float64   `json:"holding_cost"`
	StoragePerUnit   float64   `json:"storage_per_unit"`
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, name string, initialInventory, holdingCost, storagePerUnit float64) (*Product, error) {
	if id < 0 {
		return nil, fmt.Errorf("product id cannot be negative, got %d", id)
	}
	if initialInventory < 0 {
		return nil, fmt.Errorf("initial inventory cannot be negative, got %g", initialInventory)
	}
	if holdingCost < 0 {
		return nil, fmt.Errorf("holding cost cannot be negative, got %g", holdingCost)
	}
	if storagePerUnit < 0 {
		return nil, fmt.Errorf("storage per unit cannot be negative, got %g", storagePerUnit)
	}
	if name == "" {
		name = id.Label()
	}

	return &Product{
		ID:               id,
		Name:             name,
		InitialInventory: initialInventory,
		HoldingCost:      holdingCost,
		StoragePerUnit:   storagePerUnit,
	}, nil
}
