package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/domain/repositories"
)

// InstanceRepository provides in-memory instance storage. Instances are
// copied on the way in and out so callers cannot mutate stored data.
type InstanceRepository struct {
	instances    []*entities.Instance
	instancesMap map[string]int
}

// NewInstanceRepository creates a new in-memory instance repository
func NewInstanceRepository(expectedInstances int) *InstanceRepository {
	return &InstanceRepository{
		instances:    make([]*entities.Instance, 0, expectedInstances),
		instancesMap: make(map[string]int, expectedInstances),
	}
}

// Verify interface compliance
var _ repositories.InstanceRepository = (*InstanceRepository)(nil)

// LoadInstances validates and loads instances, rejecting duplicate names
func (r *InstanceRepository) LoadInstances(instances []*entities.Instance) error {
	seen := make(map[string]bool, len(instances))
	var duplicates []string
	for _, inst := range instances {
		if seen[inst.Name] || r.has(inst.Name) {
			duplicates = append(duplicates, inst.Name)
		}
		seen[inst.Name] = true
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return fmt.Errorf("duplicate instance names found: %s", strings.Join(duplicates, ", "))
	}

	for _, inst := range instances {
		if err := r.SaveInstance(inst); err != nil {
			return err
		}
	}
	return nil
}

// SaveInstance validates and stores an instance under its name
func (r *InstanceRepository) SaveInstance(inst *entities.Instance) error {
	if inst.Name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}
	if r.has(inst.Name) {
		return fmt.Errorf("duplicate instance name: %s", inst.Name)
	}
	if err := inst.Validate(); err != nil {
		return fmt.Errorf("failed to save instance %s: %w", inst.Name, err)
	}

	r.instancesMap[inst.Name] = len(r.instances)
	r.instances = append(r.instances, inst.Clone())
	return nil
}

// GetInstance returns a copy of the named instance
func (r *InstanceRepository) GetInstance(name string) (*entities.Instance, error) {
	index, exists := r.instancesMap[name]
	if !exists {
		return nil, fmt.Errorf("instance not found: %s", name)
	}
	return r.instances[index].Clone(), nil
}

// GetAllInstances returns copies of all instances in load order
func (r *InstanceRepository) GetAllInstances() ([]*entities.Instance, error) {
	out := make([]*entities.Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst.Clone())
	}
	return out, nil
}

// Names returns the stored instance names in load order
func (r *InstanceRepository) Names() []string {
	names := make([]string, 0, len(r.instances))
	for _, inst := range r.instances {
		names = append(names, inst.Name)
	}
	return names
}

func (r *InstanceRepository) has(name string) bool {
	_, exists := r.instancesMap[name]
	return exists
}
