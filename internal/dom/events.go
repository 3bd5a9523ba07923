package dom

import (
	"context"
	"errors"
	"fmt"
)

// EventKind names a DOM event
type EventKind string

const (
	Click  EventKind = "click"
	Change EventKind = "change"
	Submit EventKind = "submit"
)

// Event is delivered to handlers bound to its target
type Event struct {
	Kind   EventKind
	Target *Element

	defaultPrevented bool
}

// PreventDefault marks the browser default action as cancelled
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a handler called PreventDefault
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Handler reacts to an event
type Handler func(ctx context.Context, ev *Event) error

// Binding is one row of the document's event-binding table
type Binding struct {
	Selector Selector
	Kind     EventKind
	Handler  Handler
}

// String describes the binding, e.g. `click [data-testid="icon-eye"]`
func (b Binding) String() string {
	return fmt.Sprintf("%s %s", b.Kind, b.Selector)
}

// Bind appends a row to the binding table
func (d *Document) Bind(sel Selector, kind EventKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings = append(d.bindings, Binding{Selector: sel, Kind: kind, Handler: h})
}

// Bindings returns a copy of the binding table
func (d *Document) Bindings() []Binding {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Binding(nil), d.bindings...)
}

// ClearBindings empties the binding table. Events being dispatched stop
// reaching the cleared rows.
func (d *Document) ClearBindings() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings = nil
	d.generation++
}

// Fire dispatches an event of kind to every binding matching target, in
// binding order. Handler errors are joined.
func (d *Document) Fire(ctx context.Context, target *Element, kind EventKind) (*Event, error) {
	if target == nil {
		return nil, errors.New("firing event on nil element")
	}

	d.mu.Lock()
	rows := append([]Binding(nil), d.bindings...)
	generation := d.generation
	d.mu.Unlock()

	ev := &Event{Kind: kind, Target: target}
	var errs []error
	for _, b := range rows {
		if d.currentGeneration() != generation {
			break
		}
		if b.Kind != kind || !b.Selector.Match(target) {
			continue
		}
		if err := b.Handler(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return ev, errors.Join(errs...)
}

// Generation counts the times the binding table was cleared
func (d *Document) Generation() int {
	return d.currentGeneration()
}

func (d *Document) currentGeneration() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}
