package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

const (
	// emitGrace is how long Emit waits on a full channel for the
	// subscriber to drain before dropping the event.
	emitGrace = 100 * time.Millisecond
	// dropLogEvery throttles drop warnings to one per this many drops.
	dropLogEvery = 10
)

// EventEmitter fans queue activity out to a subscriber over a buffered
// channel. Emission never blocks the orchestrator for longer than
// emitGrace; events past that are dropped and counted, never queued.
type EventEmitter struct {
	events  chan Event
	dropped atomic.Uint64
}

// NewEventEmitter creates an emitter with the given channel buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{events: make(chan Event, bufferSize)}
}

// Emit delivers the event to the subscriber. A full channel gets one grace
// window to drain; after that the event is dropped and counted.
func (e *EventEmitter) Emit(event Event) {
	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(emitGrace):
		count := e.dropped.Add(1)
		if count%dropLogEvery == 1 {
			log.Printf("[orchestrator] event channel full, %d events dropped (latest: %s)", count, event.Type)
		}
	}
}

// DroppedCount returns how many events have been dropped so far.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.dropped.Load()
}

// Events returns the channel the subscriber receives from.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the event channel. Call only once the orchestrator has shut
// down; Emit on a closed emitter panics.
func (e *EventEmitter) Close() {
	close(e.events)
}
