// Implements the two event queues of the kernel: the future queue holding
// events still ahead of the clock, and the per-entity deferred queues holding
// events whose time has arrived.

package sim

import (
	"container/heap"

	"golang.org/x/exp/slices"
)

// eventHeap implements heap.Interface and orders events by (Time, Serial).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].serial < h[j].serial
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

// FutureQueue holds events whose fire time is ahead of the clock.
// Ordering is non-decreasing fire time; equal times keep insertion order.
type FutureQueue struct {
	events eventHeap
}

// NewFutureQueue creates an empty future queue.
func NewFutureQueue() *FutureQueue {
	q := &FutureQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// Len returns the number of pending events.
func (q *FutureQueue) Len() int { return q.events.Len() }

// Add inserts an event.
func (q *FutureQueue) Add(ev *Event) {
	heap.Push(&q.events, ev)
}

// Peek returns the next event without removing it, or nil if empty.
func (q *FutureQueue) Peek() *Event {
	if q.events.Len() == 0 {
		return nil
	}
	return q.events[0]
}

// PopNext removes and returns the next event, or nil if empty.
func (q *FutureQueue) PopNext() *Event {
	if q.events.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.events).(*Event)
}

// RemoveAll drops every event for which match returns true and reports how many were removed.
func (q *FutureQueue) RemoveAll(match func(*Event) bool) int {
	before := len(q.events)
	q.events = slices.DeleteFunc(q.events, match)
	removed := before - len(q.events)
	if removed > 0 {
		heap.Init(&q.events)
	}
	return removed
}

// Sorted returns the pending events in dispatch order. The queue is not modified.
func (q *FutureQueue) Sorted() []*Event {
	out := slices.Clone([]*Event(q.events))
	slices.SortFunc(out, func(a, b *Event) int {
		switch {
		case a.time < b.time:
			return -1
		case a.time > b.time:
			return 1
		case a.serial < b.serial:
			return -1
		case a.serial > b.serial:
			return 1
		}
		return 0
	})
	return out
}

// DeferredQueue is the FIFO of events ready for immediate dispatch to one entity.
type DeferredQueue struct {
	events []*Event
}

// Len returns the number of ready events.
func (q *DeferredQueue) Len() int { return len(q.events) }

// Add appends an event.
func (q *DeferredQueue) Add(ev *Event) {
	q.events = append(q.events, ev)
}

// PopFront removes and returns the oldest event, or nil if empty.
func (q *DeferredQueue) PopFront() *Event {
	if len(q.events) == 0 {
		return nil
	}
	ev := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	return ev
}

// First returns the oldest event matching p without removing it.
func (q *DeferredQueue) First(p Predicate) *Event {
	for _, ev := range q.events {
		if p.Match(ev) {
			return ev
		}
	}
	return nil
}

// RemoveAll drops every event matching p and reports how many were removed.
func (q *DeferredQueue) RemoveAll(p Predicate) int {
	before := len(q.events)
	q.events = slices.DeleteFunc(q.events, p.Match)
	return before - len(q.events)
}

// Clear drops all events.
func (q *DeferredQueue) Clear() {
	q.events = nil
}
