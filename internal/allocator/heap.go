// Package allocator simulates a heap arena managed with first-fit, best-fit
// or worst-fit placement and reports its fragmentation and allocation cost.
package allocator

import (
	"fmt"
	"sync"
	"time"

	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// Strategy selects the free block an allocation is carved from.
type Strategy int

const (
	FirstFit Strategy = iota
	BestFit
	WorstFit
)

// Strategies lists every strategy in label order.
var Strategies = []Strategy{FirstFit, BestFit, WorstFit}

func (s Strategy) String() string {
	switch s {
	case FirstFit:
		return models.StrategyFirstFit
	case BestFit:
		return models.StrategyBestFit
	case WorstFit:
		return models.StrategyWorstFit
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

const alignment = 8

type block struct {
	offset int
	size   int
	free   bool
}

// Heap is an arena of blocks ordered by offset. Adjacent free blocks are
// always coalesced.
type Heap struct {
	mu          sync.Mutex
	strategy    Strategy
	blocks      []block
	allocations uint64
	allocTime   time.Duration
	now         func() time.Time
}

// NewHeap creates an arena of size bytes with a single free block.
func NewHeap(size int, strategy Strategy) *Heap {
	return &Heap{
		strategy: strategy,
		blocks:   []block{{offset: 0, size: size, free: true}},
		now:      time.Now,
	}
}

func align(size int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}

// Malloc reserves size bytes and returns the offset of the block.
func (h *Heap) Malloc(size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid allocation size %d", size)
	}
	size = align(size)

	h.mu.Lock()
	defer h.mu.Unlock()
	start := h.now()

	idx := h.find(size)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %d bytes with %s", internalerrors.ErrOutOfMemory, size, h.strategy)
	}
	b := h.blocks[idx]
	if b.size > size {
		rest := block{offset: b.offset + size, size: b.size - size, free: true}
		h.blocks = append(h.blocks, block{})
		copy(h.blocks[idx+2:], h.blocks[idx+1:])
		h.blocks[idx+1] = rest
	}
	h.blocks[idx] = block{offset: b.offset, size: size, free: false}

	h.allocations++
	h.allocTime += h.now().Sub(start)
	return b.offset, nil
}

// find returns the index of the free block the strategy picks, or -1.
func (h *Heap) find(size int) int {
	chosen := -1
	for i, b := range h.blocks {
		if !b.free || b.size < size {
			continue
		}
		switch h.strategy {
		case FirstFit:
			return i
		case BestFit:
			if chosen < 0 || b.size < h.blocks[chosen].size {
				chosen = i
			}
		case WorstFit:
			if chosen < 0 || b.size > h.blocks[chosen].size {
				chosen = i
			}
		}
	}
	return chosen
}

// Free releases the block starting at offset and merges it with free neighbours.
func (h *Heap) Free(offset int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := -1
	for i, b := range h.blocks {
		if b.offset == offset && !b.free {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: offset %d", internalerrors.ErrInvalidFree, offset)
	}
	h.blocks[idx].free = true

	if idx+1 < len(h.blocks) && h.blocks[idx+1].free {
		h.blocks[idx].size += h.blocks[idx+1].size
		h.blocks = append(h.blocks[:idx+1], h.blocks[idx+2:]...)
	}
	if idx > 0 && h.blocks[idx-1].free {
		h.blocks[idx-1].size += h.blocks[idx].size
		h.blocks = append(h.blocks[:idx], h.blocks[idx+1:]...)
	}
	return nil
}

// Fragmentation returns the external fragmentation in percent:
// (1 - largest free block / total free) * 100, or 0 with no free memory.
func (h *Heap) Fragmentation() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fragmentation()
}

func (h *Heap) fragmentation() float64 {
	var total, largest int
	for _, b := range h.blocks {
		if !b.free {
			continue
		}
		total += b.size
		largest = max(largest, b.size)
	}
	if total == 0 {
		return 0
	}
	return (1 - float64(largest)/float64(total)) * 100
}

// Stats reports the heap's instrumentation.
func (h *Heap) Stats() models.AllocatorStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := models.AllocatorStats{
		Strategy:          h.strategy.String(),
		FragmentationRate: h.fragmentation(),
		Allocations:       h.allocations,
	}
	if h.allocations > 0 {
		stats.AvgAllocationTime = h.allocTime.Seconds() / float64(h.allocations)
	}
	return stats
}
