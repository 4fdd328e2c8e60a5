package agent

import (
	"math"

	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// slot holds the previous snapshot of one resource.
type slot[T any] struct {
	value T
	set   bool
}

// Previous returns the stored snapshot, or the zero value and false before
// the first Set.
func (s *slot[T]) Previous() (T, bool) {
	return s.value, s.set
}

func (s *slot[T]) Set(value T) {
	s.value = value
	s.set = true
}

// State is the cross-tick memory of the sampler. It is owned by the sampler
// goroutine and is never shared with the exposer.
type State struct {
	cpu             slot[models.CPUTimes]
	network         slot[models.NetStats]
	contextSwitches slot[uint64]

	// cpuUsage is the last published CPU usage, NaN until the first success.
	cpuUsage float64
}

// NewState returns a state with no previous samples.
func NewState() *State {
	return &State{cpuUsage: math.NaN()}
}
