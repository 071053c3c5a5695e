package scheduler

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/netsim/hostdriver/driver/host"
	"github.com/netsim/hostdriver/driver/worker"
)

// workQueue is a mutex-guarded MPMC wrapper around eapache/queue.Queue.
// The underlying ring buffer is not itself safe for concurrent
// producers/consumers, so every access is taken under mu.
type workQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newWorkQueue(hosts []host.Host) *workQueue {
	wq := &workQueue{q: queue.New()}
	for _, h := range hosts {
		wq.q.Add(h)
	}
	return wq
}

func (wq *workQueue) pop() (host.Host, bool) {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	if wq.q.Length() == 0 {
		return nil, false
	}
	h := wq.q.Remove()
	return h.(host.Host), true
}

// threadPerCore work-steals hosts out of one shared queue via a pool sized
// to the clamped parallelism. With spinWait set, a worker that finds the
// queue empty checks it once more before it stops; since the queue is
// fully populated before the workers start, this does not change which
// hosts run or when.
type threadPerCore struct {
	hosts       []host.Host
	shared      *worker.Shared
	cpus        []int
	parallelism int
	spinWait    bool
	closed      bool
	mu          sync.Mutex
}

func newThreadPerCore(hosts []host.Host, shared *worker.Shared, parallelism int, cpus []int, spinWait bool) *threadPerCore {
	return &threadPerCore{hosts: hosts, shared: shared, cpus: cpus, parallelism: parallelism, spinWait: spinWait}
}

func (s *threadPerCore) Parallelism() int { return s.parallelism }

func (s *threadPerCore) Scope(run func(threadID int)) {
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

func (s *threadPerCore) RunWithData(slots []*EventTimeSlot, f func(threadID int, hosts []host.Host, slot *EventTimeSlot)) {
	wq := newWorkQueue(s.hosts)
	s.Scope(func(threadID int) {
		for {
			h, ok := wq.pop()
			if !ok {
				if s.spinWait {
					// Busy-poll briefly in case another worker is mid-Add;
					// newWorkQueue fully populates before Scope starts, so
					// in practice this exits immediately once drained.
					if _, ok2 := wq.pop(); !ok2 {
						break
					}
					continue
				}
				break
			}
			f(threadID, []host.Host{h}, slots[threadID])
		}
		if s.shared != nil && s.shared.PacketNextEventTime != nil {
			t, ok := s.shared.PacketNextEventTime(threadID)
			slots[threadID].Fold(t, ok)
		}
	})
}

func (s *threadPerCore) Join() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *threadPerCore) guardOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		panic("scheduler: Scope called after Join")
	}
}
