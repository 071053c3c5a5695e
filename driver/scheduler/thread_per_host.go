package scheduler

import (
	"sync"

	"github.com/netsim/hostdriver/driver/host"
	"github.com/netsim/hostdriver/driver/worker"
)

// threadPerHost assigns a fixed, disjoint subset of hosts to each worker
// for the scheduler's entire lifetime. Preferred when host count greatly
// exceeds core count and host state is expensive to move (§4.3).
type threadPerHost struct {
	buckets     [][]host.Host
	shared      *worker.Shared
	cpus        []int
	parallelism int
	closed      bool
	mu          sync.Mutex
}

func newThreadPerHost(hosts []host.Host, shared *worker.Shared, parallelism int, cpus []int) *threadPerHost {
	buckets := make([][]host.Host, parallelism)
	for i, h := range hosts {
		b := i % parallelism
		buckets[b] = append(buckets[b], h)
	}
	return &threadPerHost{buckets: buckets, shared: shared, cpus: cpus, parallelism: parallelism}
}

func (s *threadPerHost) Parallelism() int { return s.parallelism }

func (s *threadPerHost) Scope(run func(threadID int)) {
	s.guardOpen()
	var wg sync.WaitGroup
	wg.Add(s.parallelism)
	for i := 0; i < s.parallelism; i++ {
		go func(threadID int) {
			defer wg.Done()
			pinWorker(s.cpus, threadID)
			run(threadID)
		}(i)
	}
	wg.Wait()
}

func (s *threadPerHost) RunWithData(slots []*EventTimeSlot, f func(threadID int, hosts []host.Host, slot *EventTimeSlot)) {
	s.Scope(func(threadID int) {
		f(threadID, s.buckets[threadID], slots[threadID])
		if s.shared != nil && s.shared.PacketNextEventTime != nil {
			t, ok := s.shared.PacketNextEventTime(threadID)
			slots[threadID].Fold(t, ok)
		}
	})
}

func (s *threadPerHost) Join() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *threadPerHost) guardOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		panic("scheduler: Scope called after Join")
	}
}
