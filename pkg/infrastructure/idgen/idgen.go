// Package idgen issues time-ordered run identifiers with the Sonyflake
// algorithm.
package idgen

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/sonyflake"
)

// ErrCreateSonyflake is returned when the underlying generator cannot start
var ErrCreateSonyflake = errors.New("failed to create sonyflake instance")

const maxRetries = 3

// Epoch is the start time IDs are counted from
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator issues unique run IDs for one machine
type Generator struct {
	sf *sonyflake.Sonyflake
}

// NewGenerator creates a generator for machineID
func NewGenerator(machineID uint16) (*Generator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: Epoch,
		MachineID: func() (uint16, error) {
			return machineID, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateSonyflake, err)
	}
	return &Generator{sf: sf}, nil
}

// NextID returns the next ID, retrying briefly when the sequence of the
// current time slot is exhausted
func (g *Generator) NextID() (uint64, error) {
	var err error
	for range maxRetries {
		var id uint64
		if id, err = g.sf.NextID(); err == nil {
			return id, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return 0, fmt.Errorf("sonyflake generator failed after %d retries: %w", maxRetries, err)
}

// RunID formats the next ID as a run identifier, e.g. "R5274063296512"
func (g *Generator) RunID() (string, error) {
	id, err := g.NextID()
	if err != nil {
		return "", err
	}
	return "R" + strconv.FormatUint(id, 10), nil
}
