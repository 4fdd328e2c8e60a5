package allocator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	models "github.com/Schera-ole/hostmetrics/internal/model"
)

const (
	maxLiveBlocks = 100
	minBlockSize  = 16
	blockSizeSpan = 256
)

// Simulator drives a random allocate/free workload against one heap per strategy.
type Simulator struct {
	mu    sync.Mutex
	heaps []*Heap
	live  [][]int
	rnd   *rand.Rand

	logger *zap.SugaredLogger
}

// NewSimulator creates one heap of heapSize bytes per strategy.
func NewSimulator(heapSize int, seed int64, logger *zap.SugaredLogger) *Simulator {
	s := &Simulator{
		rnd:    rand.New(rand.NewSource(seed)),
		live:   make([][]int, len(Strategies)),
		logger: logger,
	}
	for _, strategy := range Strategies {
		s.heaps = append(s.heaps, NewHeap(heapSize, strategy))
	}
	return s
}

// Step makes one random decision per heap: allocate a 16..271 byte block if
// fewer than 100 are live, otherwise (or on a coin flip) free a random one.
func (s *Simulator) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, heap := range s.heaps {
		if s.rnd.Intn(2) == 0 && len(s.live[i]) < maxLiveBlocks {
			size := s.rnd.Intn(blockSizeSpan) + minBlockSize
			if offset, err := heap.Malloc(size); err == nil {
				s.live[i] = append(s.live[i], offset)
			}
			continue
		}
		if n := len(s.live[i]); n > 0 {
			s.release(i, s.rnd.Intn(n))
		}
	}
}

// release frees the j-th live block of heap i and forgets it. A failed free
// means the live list and the heap disagree; the entry is dropped either way.
// The caller must hold mu.
func (s *Simulator) release(i, j int) {
	offset := s.live[i][j]
	if err := s.heaps[i].Free(offset); err != nil {
		s.logger.Warnw("Simulated free failed", "strategy", s.heaps[i].strategy.String(), "offset", offset, "error", err)
	}
	n := len(s.live[i])
	s.live[i][j] = s.live[i][n-1]
	s.live[i] = s.live[i][:n-1]
}

// Run steps the workload every interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// AllocatorStats reports every heap's instrumentation in strategy order.
func (s *Simulator) AllocatorStats(ctx context.Context) ([]models.AllocatorStats, error) {
	stats := make([]models.AllocatorStats, 0, len(s.heaps))
	for _, heap := range s.heaps {
		stats = append(stats, heap.Stats())
	}
	return stats, nil
}
