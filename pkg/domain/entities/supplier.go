package entities

import "fmt"

// SupplierID identifies a supplier by its zero-based position in an instance
type SupplierID int

// Label returns the one-based label used in reports
func (s SupplierID) Label() string {
	return fmt.Sprintf("Supplier %d", int(s)+1)
}

// Supplier represents a vendor that charges a fixed cost for every period it is used
type Supplier struct {
	ID           SupplierID `json:"id"`
	Name         string     `json:"name"`
	OrderingCost float64    `json:"ordering_cost"`
}

// NewSupplier creates a validated Supplier
func NewSupplier(id SupplierID, name string, orderingCost float64) (*Supplier, error) {
	if id < 0 {
		return nil, fmt.Errorf("supplier id cannot be negative, got %d", id)
	}
	if orderingCost < 0 {
		return nil, fmt.Errorf("ordering cost cannot be negative, got %g", orderingCost)
	}
	if name == "" {
		name = id.Label()
	}

	return &Supplier{
		ID:           id,
		Name:         name,
		OrderingCost: orderingCost,
	}, nil
}

// Period is a zero-based planning period index
type Period int

// Label returns the one-based label used in reports
func (p Period) Label() string {
	return fmt.Sprintf("Period %d", int(p)+1)
}
