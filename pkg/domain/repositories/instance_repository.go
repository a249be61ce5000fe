package repositories

import "github.com/vsinha/lotsizing/pkg/domain/entities"

// InstanceRepository provides access to lot-sizing instances by name
type InstanceRepository interface {
	GetInstance(name string) (*entities.Instance, error)
	GetAllInstances() ([]*entities.Instance, error)
	LoadInstances(instances []*entities.Instance) error
}
