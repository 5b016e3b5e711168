// The start-event queue: a min-heap keyed by (timestamp, enqueue ordinal).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap

package sim

import "container/heap"

// eventHeap implements heap.Interface ordering events by timestamp, with the
// enqueue ordinal as a stable tiebreak.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// eventQueue is the engine-facing wrapper. Removal by identity is never
// needed: completions are not stored.
type eventQueue struct {
	heap eventHeap
	seq  uint64
}

func (q *eventQueue) push(ev Event) {
	ev.seq = q.seq
	q.seq++
	heap.Push(&q.heap, ev)
}

func (q *eventQueue) pop() Event {
	return heap.Pop(&q.heap).(Event)
}

func (q *eventQueue) peek() (Event, bool) {
	if len(q.heap) == 0 {
		return Event{}, false
	}
	return q.heap[0], true
}

func (q *eventQueue) len() int { return len(q.heap) }

func (q *eventQueue) empty() bool { return len(q.heap) == 0 }
