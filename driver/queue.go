package driver

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// TimeBackwardError reports an attempted push of an event whose time
// precedes the last popped event's time — a programmer bug, fatal per §7.
type TimeBackwardError struct {
	Attempted EmulatedTime
	LastPop   EmulatedTime
}

func (e *TimeBackwardError) Error() string {
	return fmt.Sprintf("event queue: time moves backward: pushed %s, last popped %s", e.Attempted, e.LastPop)
}

// entry wraps a pushed Event with the monotone sequence number used to
// break same-time ties deterministically (§4.1, §9 Open Question (a)).
type entry struct {
	event Event
	time  EmulatedTime
	seq   uint64
}

// innerHeap implements container/heap.Interface over entries, ordered by
// (time, seq) — the same two-key scheme the teacher's sim/cluster.EventHeap
// uses for (timestamp, event ID).
type innerHeap []entry

func (h innerHeap) Len() int { return len(h) }
func (h innerHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h innerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *innerHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// EventQueue is a per-host monotonic min-heap of timestamped events (§4.1).
// It is exclusively mutated under the lock the owning Host provides; the
// driver only ever peeks NextEventTime between windows.
type EventQueue struct {
	heap           innerHeap
	lastPoppedTime EmulatedTime
	nextSeq        uint64

	// observability counters (§4.1): advisory only, never affect ordering.
	pushCount uint64
	popCount  uint64

	// SampleEvery controls how often push/pop emit a debug counter line.
	// Zero disables sampling. Mutating after construction is safe; it is
	// read only from within push/pop, which already run under the host's
	// lock.
	SampleEvery uint64
	log         *logrus.Entry
}

// NewEventQueue creates an empty queue for the given host, used to tag its
// sampled observability log lines.
func NewEventQueue(hostID HostId) *EventQueue {
	q := &EventQueue{
		lastPoppedTime: SimulationStart,
		SampleEvery:    1000,
	}
	heap.Init(&q.heap)
	q.log = logrus.WithField("host", hostID)
	return q
}

// Push inserts e, panicking with a *TimeBackwardError if e.Timestamp() is
// earlier than the time of the last popped event (§4.1).
func (q *EventQueue) Push(e Event) {
	t := e.Timestamp()
	if t < q.lastPoppedTime {
		panic(&TimeBackwardError{Attempted: t, LastPop: q.lastPoppedTime})
	}
	q.nextSeq++
	heap.Push(&q.heap, entry{event: e, time: t, seq: q.nextSeq})
	q.pushCount++
	q.sample("push", q.pushCount)
}

// Pop removes and returns the earliest event, or (nil, false) if empty. It
// advances lastPoppedTime, enforcing the monotonic-pop invariant (§8 #1).
func (q *EventQueue) Pop() (Event, bool) {
	if q.heap.Len() == 0 {
		return nil, false
	}
	top := heap.Pop(&q.heap).(entry)
	q.lastPoppedTime = top.time
	q.popCount++
	q.sample("pop", q.popCount)
	return top.event, true
}

// NextEventTime returns the next event's time without mutating the queue.
func (q *EventQueue) NextEventTime() (EmulatedTime, bool) {
	if q.heap.Len() == 0 {
		return 0, false
	}
	return q.heap[0].time, true
}

// Len reports the number of queued events.
func (q *EventQueue) Len() int { return q.heap.Len() }

// LastPoppedTime returns the time of the most recently popped event, or
// SimulationStart if nothing has been popped yet.
func (q *EventQueue) LastPoppedTime() EmulatedTime { return q.lastPoppedTime }

func (q *EventQueue) sample(op string, count uint64) {
	if q.SampleEvery == 0 || count%q.SampleEvery != 0 {
		return
	}
	q.log.WithFields(logrus.Fields{
		"op":           op,
		"count":        count,
		"len":          q.heap.Len(),
		"last_pop_ns":  q.lastPoppedTime.Nanos(),
	}).Debug("event queue sample")
}
