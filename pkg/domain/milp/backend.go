package milp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrUnknownBackend is returned by Lookup for names nobody registered
var ErrUnknownBackend = errors.New("unknown solver backend")

// Status is the outcome reported by a backend
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusTimeLimit
	StatusError
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "NotSolved"
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusTimeLimit:
		return "TimeLimit"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// SolveOptions carries backend-independent solver settings. Zero values leave
// the backend defaults in place.
type SolveOptions struct {
	Output    bool
	TimeLimit time.Duration
	MIPRelGap float64
	Threads   int
	Tolerance float64
}

// Solution is what a backend returns for a program
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	Backend   string
	Elapsed   time.Duration
}

// IsOptimal returns true if the status is optimal
func (s *Solution) IsOptimal() bool {
	return s != nil && s.Status == StatusOptimal
}

// Value returns the value of a variable, or 0 if no values are present
func (s *Solution) Value(v Var) float64 {
	if s == nil || int(v) < 0 || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// Backend solves programs
type Backend interface {
	Name() string
	Solve(ctx context.Context, program *Program, opts SolveOptions) (*Solution, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Backend)
	aliases    = make(map[string]string)
)

// Register makes a backend available under its name
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(b.Name())] = b
}

// RegisterAlias resolves alias to the backend registered as target
func RegisterAlias(alias, target string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	aliases[strings.ToLower(alias)] = strings.ToLower(target)
}

// Lookup returns the backend registered under name or one of its aliases.
// The second result reports whether an alias was followed.
func Lookup(name string) (Backend, bool, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	key := strings.ToLower(name)
	if b, ok := registry[key]; ok {
		return b, false, nil
	}
	if target, ok := aliases[key]; ok {
		if b, ok := registry[target]; ok {
			return b, true, nil
		}
	}
	return nil, false, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, name, strings.Join(backendNames(), ", "))
}

// Backends lists registered backend names in sorted order
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return backendNames()
}

func backendNames() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
