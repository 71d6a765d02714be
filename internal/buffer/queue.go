package buffer

import "github.com/openthread-go/threadcore/internal/threaderr"

// Queue is a singly-linked FIFO of Messages (§3). Queues are associated
// with a destination context — a per-neighbor send queue, a reassembly
// queue, a tasklet-deferred queue — but the type itself is context-free.
// Membership is tracked on the Message itself so a Message can never be on
// two queues at once, per the invariant in spec §3(b).
type Queue struct {
	head *Message
	tail *Message
	size int
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Len returns the number of messages currently enqueued.
func (q *Queue) Len() int { return q.size }

// Enqueue appends m to the tail of the queue. It fails with InvalidState if
// m is already on a queue (its own or another's).
func (q *Queue) Enqueue(m *Message) threaderr.Error {
	if m.queue != nil {
		return threaderr.InvalidState
	}
	m.queue = q
	m.qnext = nil
	if q.tail == nil {
		q.head = m
		q.tail = m
	} else {
		q.tail.qnext = m
		q.tail = m
	}
	q.size++
	return threaderr.None
}

// Dequeue removes and returns the message at the head of the queue, or nil
// if the queue is empty.
func (q *Queue) Dequeue() *Message {
	m := q.head
	if m == nil {
		return nil
	}
	q.head = m.qnext
	if q.head == nil {
		q.tail = nil
	}
	m.qnext = nil
	m.queue = nil
	q.size--
	return m
}

// Peek returns the head message without removing it, or nil if empty.
func (q *Queue) Peek() *Message { return q.head }

// Remove unlinks m from the middle of the queue in O(n). It is a no-op
// (returning InvalidState) if m is not on this queue.
func (q *Queue) Remove(m *Message) threaderr.Error {
	if m.queue != q {
		return threaderr.InvalidState
	}
	if q.head == m {
		q.head = m.qnext
		if q.head == nil {
			q.tail = nil
		}
	} else {
		for p := q.head; p != nil; p = p.qnext {
			if p.qnext == m {
				p.qnext = m.qnext
				if q.tail == m {
					q.tail = p
				}
				break
			}
		}
	}
	m.qnext = nil
	m.queue = nil
	q.size--
	return threaderr.None
}

// Each calls fn for every message currently on the queue, head to tail.
// Mutating the queue from within fn is not supported.
func (q *Queue) Each(fn func(*Message)) {
	for m := q.head; m != nil; m = m.qnext {
		fn(m)
	}
}
