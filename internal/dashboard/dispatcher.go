package dashboard

import (
	"errors"
	"fmt"
	"sync"
)

// Event names understood by the default dispatcher.
const (
	EventYear = "year"
	EventInfo = "info"
)

var (
	// ErrUnknownEvent is returned for events with no registered handler.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrInvalidEvent is returned when an event lacks a required field.
	ErrInvalidEvent = errors.New("invalid event")
)

// Event is a user interaction forwarded by a transport.
type Event struct {
	Name         string `json:"event"`
	Year         *int   `json:"year,omitempty"`
	OpenClicked  bool   `json:"open_clicked,omitempty"`
	CloseClicked bool   `json:"close_clicked,omitempty"`
	IsOpen       bool   `json:"is_open,omitempty"`
}

// InfoState is the reply to an info event.
type InfoState struct {
	IsOpen bool `json:"is_open"`
}

// HandlerFunc handles one kind of event and returns the value sent back to
// the client.
type HandlerFunc func(Event) (any, error)

// Dispatcher routes events to handlers by name.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewDispatcher returns a Dispatcher with the year and info events wired to c.
func NewDispatcher(c *Controller) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]HandlerFunc)}

	d.Handle(EventYear, func(ev Event) (any, error) {
		if ev.Year == nil {
			return nil, fmt.Errorf("%w: %s event without year", ErrInvalidEvent, EventYear)
		}
		return c.OnYearChange(*ev.Year), nil
	})
	d.Handle(EventInfo, func(ev Event) (any, error) {
		return InfoState{IsOpen: c.OnInfoToggle(ev.OpenClicked, ev.CloseClicked, ev.IsOpen)}, nil
	})

	return d
}

// Handle registers h for events named name, replacing any earlier handler.
func (d *Dispatcher) Handle(name string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Dispatch runs the handler registered for ev.Name.
func (d *Dispatcher) Dispatch(ev Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[ev.Name]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Name)
	}
	return h(ev)
}
