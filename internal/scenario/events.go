package scenario

import (
	"container/heap"

	"github.com/napolitain/aether-sim/internal/models"
)

// EventType names a scripted action
type EventType string

const (
	EventBuild        EventType = "build"
	EventDestroy      EventType = "destroy"
	EventConstruction EventType = "construction"
	EventGrow         EventType = "grow"
	EventSpawn        EventType = "spawn"
	EventDeath        EventType = "death"
	EventCapture      EventType = "capture"
	EventRelease      EventType = "release"
	EventAssign       EventType = "assign"
	EventUnassign     EventType = "unassign"
	EventSpend        EventType = "spend"
	EventConvert      EventType = "convert"
	EventOvercharge   EventType = "overcharge"
	EventAttack       EventType = "attack"
	EventHeal         EventType = "heal"
)

// Priority returns the processing order within a tick.
// Lower priority = processed first.
func (et EventType) Priority() int {
	switch et {
	case EventBuild, EventDestroy, EventConstruction, EventGrow:
		return 0 // First: map structure and storage
	case EventSpawn, EventDeath:
		return 1 // Second: unit counts, so upkeep is current
	case EventCapture, EventRelease:
		return 2
	case EventAssign, EventUnassign:
		return 3
	case EventSpend, EventConvert, EventOvercharge:
		return 4
	case EventAttack, EventHeal:
		return 5 // Last: combat
	default:
		return -1
	}
}

// Valid reports whether et is a known event type
func (et EventType) Valid() bool {
	return et.Priority() >= 0
}

// Event is one scripted action, applied before the simulation tick it names
type Event struct {
	Tick     int                 `json:"tick"`
	Type     EventType           `json:"type"`
	Player   models.PlayerID     `json:"player,omitempty"`
	Worker   models.WorkerID     `json:"worker,omitempty"`
	Source   models.SourceID     `json:"source,omitempty"`
	Unit     models.UnitType     `json:"unit,omitempty"`
	ID       string              `json:"id,omitempty"` // combatant id for spawn/heal
	Pay      bool                `json:"pay,omitempty"`
	Count    int                 `json:"count,omitempty"`
	Active   bool                `json:"active,omitempty"`
	Kind     models.ResourceKind `json:"kind,omitempty"`
	From     models.ResourceKind `json:"from,omitempty"`
	To       models.ResourceKind `json:"to,omitempty"`
	Amount   int                 `json:"amount,omitempty"`
	Cost     models.Pool         `json:"cost"`
	Storage  models.Pool         `json:"storage"`
	Attacker string              `json:"attacker,omitempty"`
	Defender string              `json:"defender,omitempty"`
	Repeat   int                 `json:"repeat,omitempty"`

	seq int64
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Tick != h[j].Tick {
		return h[i].Tick < h[j].Tick
	}
	if h[i].Type.Priority() != h[j].Type.Priority() {
		return h[i].Type.Priority() < h[j].Type.Priority()
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
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// EventQueue orders events by (Tick, Priority, insertion order)
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

// Push adds an event
func (q *EventQueue) Push(e Event) {
	q.seq++
	e.seq = q.seq
	heap.Push(&q.h, e)
}

// PopDue removes and returns every event scheduled at or before tick, in order
func (q *EventQueue) PopDue(tick int) []Event {
	var due []Event
	for len(q.h) > 0 && q.h[0].Tick <= tick {
		due = append(due, heap.Pop(&q.h).(Event))
	}
	return due
}

// Len returns the number of pending events
func (q *EventQueue) Len() int {
	return len(q.h)
}

// LastTick returns the tick of the latest pending event, -1 if empty
func (q *EventQueue) LastTick() int {
	last := -1
	for _, e := range q.h {
		last = max(last, e.Tick)
	}
	return last
}
