package node

// ListenerID identifies a registered listener so it can be removed later.
type ListenerID uint64

type listener[T any] struct {
	id ListenerID
	fn func(T)
}

// Emitter is a synchronous, single-threaded event source.
// The zero value is ready to use.
type Emitter[T any] struct {
	listeners []listener[T]
	next      ListenerID
}

// AddListener registers fn and returns an id for RemoveListener.
func (e *Emitter[T]) AddListener(fn func(T)) ListenerID {
	e.next++
	e.listeners = append(e.listeners, listener[T]{id: e.next, fn: fn})
	return e.next
}

// RemoveListener unregisters a listener. Returns false if id is unknown.
func (e *Emitter[T]) RemoveListener(id ListenerID) bool {
	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAllListeners drops every listener.
func (e *Emitter[T]) RemoveAllListeners() {
	e.listeners = nil
}

// Count returns the number of registered listeners.
func (e *Emitter[T]) Count() int {
	return len(e.listeners)
}

// Emit calls every listener in registration order. Listeners added or
// removed during Emit take effect on the next Emit.
func (e *Emitter[T]) Emit(v T) {
	if len(e.listeners) == 0 {
		return
	}
	snapshot := e.listeners
	for _, l := range snapshot {
		l.fn(v)
	}
}

// BoolChange is the payload of a BoolProperty change.
type BoolChange struct {
	New, Old bool
}

// BoolProperty is an observable boolean.
type BoolProperty struct {
	value   bool
	changed Emitter[BoolChange]
}

// NewBoolProperty creates a property with an initial value.
func NewBoolProperty(v bool) *BoolProperty {
	return &BoolProperty{value: v}
}

// Value returns the current value.
func (p *BoolProperty) Value() bool {
	return p.value
}

// Set updates the value, notifying lazy links only on a transition.
func (p *BoolProperty) Set(v bool) {
	if p.value == v {
		return
	}
	old := p.value
	p.value = v
	p.changed.Emit(BoolChange{New: v, Old: old})
}

// LazyLink registers fn for future changes (it is not called immediately).
func (p *BoolProperty) LazyLink(fn func(newValue, oldValue bool)) ListenerID {
	return p.changed.AddListener(func(c BoolChange) { fn(c.New, c.Old) })
}

// Unlink removes a listener registered with LazyLink.
func (p *BoolProperty) Unlink(id ListenerID) bool {
	return p.changed.RemoveListener(id)
}

// ListenerCount returns the number of linked listeners.
func (p *BoolProperty) ListenerCount() int {
	return p.changed.Count()
}
