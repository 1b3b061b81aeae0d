// Package queue implements the bounded, shared request queue that sits
// between the listener and the worker pool, per spec.md §4.3 and §4.4.
package queue

import (
	"bufio"
	"net"
	"sync"

	"github.com/ostep-projects/wsrv/pkg/config"
)

// Descriptor is the tuple {socket, peer address, size estimate} handed from
// the listener to the queue and from the queue to a worker.
type Descriptor struct {
	Conn         net.Conn
	Peer         net.Addr
	SizeEstimate int

	// Reader is the buffered reader the listener peeked the request through;
	// carrying it alongside Conn means the bytes the size estimator already
	// buffered are not lost to the worker that eventually serves the request
	// (spec.md §9).
	Reader *bufio.Reader

	// seq records enqueue order, used as the SFF tie-break key (oldest wins)
	// and as the natural FIFO order.
	seq uint64
}

// Queue is a fixed-capacity container of Descriptors guarded by one lock and
// two condition variables, per spec.md §4.3's design.
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items    []Descriptor
	capacity int
	policy   config.Policy
	nextSeq  uint64
}

// New creates a Queue with the given capacity and dispatch policy.
func New(capacity int, policy config.Policy) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{
		items:    make([]Descriptor, 0, capacity),
		capacity: capacity,
		policy:   policy,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Len reports the number of descriptors currently resident. Intended for
// tests and diagnostics; callers must not rely on it for synchronization.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Enqueue admits a descriptor, blocking while the queue is at capacity.
func (q *Queue) Enqueue(d Descriptor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == q.capacity {
		q.notFull.Wait()
	}
	d.seq = q.nextSeq
	q.nextSeq++
	q.items = append(q.items, d)
	q.notEmpty.Signal()
}

// Dequeue selects and removes the next descriptor per the active policy,
// blocking while the queue is empty.
func (q *Queue) Dequeue() Descriptor {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.notEmpty.Wait()
	}

	idx := 0
	if q.policy == config.SFF {
		idx = q.selectSFF()
	}

	d := q.items[idx]
	// Swap-with-head removal: move the head element into the freed slot and
	// drop the head, an O(1) alternative to shifting the tail down. This is
	// safe for SFF tie-breaking because ties are broken by each
	// descriptor's recorded enqueue sequence number, not by its position in
	// the backing slice — reordering slots never changes which descriptor
	// is "oldest".
	q.items[idx] = q.items[0]
	q.items = q.items[1:]

	q.notFull.Signal()
	return d
}

// selectSFF returns the index of the resident descriptor with the minimum
// SizeEstimate, ties broken by the oldest enqueue sequence. Must be called
// with q.mu held.
func (q *Queue) selectSFF() int {
	best := 0
	for i := 1; i < len(q.items); i++ {
		if q.items[i].SizeEstimate < q.items[best].SizeEstimate ||
			(q.items[i].SizeEstimate == q.items[best].SizeEstimate && q.items[i].seq < q.items[best].seq) {
			best = i
		}
	}
	return best
}
