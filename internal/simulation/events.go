package simulation

import "container/heap"

// EventType is the action a scenario step performs
type EventType int

const (
	EventAddBonus EventType = iota
	EventRemoveBonus
	EventInitialise
	EventAdd
	EventBuy
	EventSteal
	EventSample
)

var eventNames = map[string]EventType{
	"add_bonus":    EventAddBonus,
	"remove_bonus": EventRemoveBonus,
	"initialise":   EventInitialise,
	"add":          EventAdd,
	"buy":          EventBuy,
	"steal":        EventSteal,
	"sample":       EventSample,
}

// ParseEventType maps a scenario action name to its type
func ParseEventType(name string) (EventType, bool) {
	et, ok := eventNames[name]
	return et, ok
}

// String returns the scenario action name
func (et EventType) String() string {
	switch et {
	case EventAddBonus:
		return "add_bonus"
	case EventRemoveBonus:
		return "remove_bonus"
	case EventInitialise:
		return "initialise"
	case EventAdd:
		return "add"
	case EventBuy:
		return "buy"
	case EventSteal:
		return "steal"
	case EventSample:
		return "sample"
	default:
		return "unknown"
	}
}

// Priority returns the processing order for events at the same time.
// Lower runs first.
func (et EventType) Priority() int {
	switch et {
	case EventAddBonus, EventRemoveBonus:
		return 0 // bonuses settle ratio and limit first
	case EventInitialise:
		return 1
	case EventAdd, EventBuy, EventSteal:
		return 2
	case EventSample:
		return 10 // observe the settled state
	default:
		return 99
	}
}

// Event is one scheduled scenario step
type Event struct {
	Time     int64 // milliseconds from scenario start
	Type     EventType
	Step     Step
	Sequence int64 // insertion order, for stable sorting
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	if h[i].Type.Priority() != h[j].Type.Priority() {
		return h[i].Type.Priority() < h[j].Type.Priority()
	}
	return h[i].Sequence < h[j].Sequence
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// EventQueue is a min-heap of events ordered by (Time, Priority, Sequence)
type EventQueue struct {
	h   eventHeap
	seq int64
}

// NewEventQueue creates an empty queue
func NewEventQueue() *EventQueue {
	q := &EventQueue{h: make(eventHeap, 0)}
	heap.Init(&q.h)
	return q
}

// Push adds an event, numbering it after every event pushed before
func (q *EventQueue) Push(e Event) {
	q.seq++
	e.Sequence = q.seq
	heap.Push(&q.h, e)
}

// Pop removes and returns the earliest event; Time is -1 when empty
func (q *EventQueue) Pop() Event {
	if len(q.h) == 0 {
		return Event{Time: -1}
	}
	return heap.Pop(&q.h).(Event)
}

// Empty reports whether the queue has no events
func (q *EventQueue) Empty() bool {
	return len(q.h) == 0
}

// Len returns the number of queued events
func (q *EventQueue) Len() int {
	return len(q.h)
}
