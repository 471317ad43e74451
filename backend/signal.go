package qbackend

// Subscription is a single connection between a signal and a slot.
type Subscription interface {
	// Disconnect removes the slot from its signal. It is safe to call more
	// than once, and safe to call from within the slot itself.
	Disconnect()
}

type slot[T any] struct {
	signal   *Signal[T]
	receiver interface{}
	fn       func(T)
	dead     bool
}

func (s *slot[T]) Disconnect() {
	if s.dead {
		return
	}
	s.dead = true
	s.signal.remove(s)
}

// Signal is a synchronous notification with any number of connected slots.
//
// Slots are called in connection order on the goroutine calling Emit. A slot
// connected during an emission is not called until the next one; a slot
// disconnected during an emission is not called again, even if it had not
// been reached yet.
//
// The zero value is ready to use. Signals are not safe for concurrent use.
type Signal[T any] struct {
	slots []*slot[T]
}

// Connect calls fn on every Emit until the returned Subscription is
// disconnected. The receiver identifies the connecting party for
// Disconnect(receiver) and may be nil.
func (s *Signal[T]) Connect(receiver interface{}, fn func(T)) Subscription {
	sl := &slot[T]{signal: s, receiver: receiver, fn: fn}
	s.slots = append(s.slots, sl)
	return sl
}

// Disconnect removes every slot connected with receiver and returns how many
// were removed.
func (s *Signal[T]) Disconnect(receiver interface{}) int {
	n := 0
	for _, sl := range append([]*slot[T](nil), s.slots...) {
		if sl.receiver == receiver {
			sl.Disconnect()
			n++
		}
	}
	return n
}

// DisconnectAll removes every slot.
func (s *Signal[T]) DisconnectAll() {
	for _, sl := range s.slots {
		sl.dead = true
	}
	s.slots = nil
}

// Emit calls every connected slot with v.
func (s *Signal[T]) Emit(v T) {
	if len(s.slots) == 0 {
		return
	}
	snapshot := append([]*slot[T](nil), s.slots...)
	for _, sl := range snapshot {
		if !sl.dead {
			sl.fn(v)
		}
	}
}

// Len returns the number of connected slots.
func (s *Signal[T]) Len() int {
	return len(s.slots)
}

func (s *Signal[T]) remove(target *slot[T]) {
	for i, sl := range s.slots {
		if sl == target {
			s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
			return
		}
	}
}

// Subscriptions groups subscriptions that are disconnected together.
type Subscriptions []Subscription

// Disconnect disconnects every subscription and empties the group.
func (subs *Subscriptions) Disconnect() {
	for _, s := range *subs {
		s.Disconnect()
	}
	*subs = nil
}
