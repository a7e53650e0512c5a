package notify

import (
	"encoding/json"
	"log"
	"time"
)

// Event is one admin-facing occurrence, e.g. a reservation landing.
type Event struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// Sink delivers an event somewhere. A failing sink never reaches the request
// path; the dispatcher logs and moves on.
type Sink interface {
	Deliver(Event) error
}

// Dispatcher fans events out to its sinks from a background worker, so a
// handler can fire an event and answer its caller without waiting.
type Dispatcher struct {
	sinks []Sink
	queue chan Event
	done  chan struct{}
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		sinks: sinks,
		queue: make(chan Event, 64),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch queues an event and returns immediately. A full queue drops the
// event with a log line rather than blocking a response.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case d.queue <- ev:
	default:
		log.Printf("notify: queue full, dropping %s", ev.Kind)
	}
}

func (d *Dispatcher) run() {
	for ev := range d.queue {
		for _, s := range d.sinks {
			if err := s.Deliver(ev); err != nil {
				log.Printf("notify: deliver %s: %v", ev.Kind, err)
			}
		}
	}
	close(d.done)
}

// Close drains queued events and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}
