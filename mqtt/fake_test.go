package mqtt

import "sync"

// fakePublisher records published events. Safe for use from the forwarder goroutine.
type fakePublisher struct {
	mu sync.Mutex

	grips  []GripEvent
	states []StateEvent
	closed bool

	// Returned by every Publish* call when set.
	err error
}

func (f *fakePublisher) PublishGrip(event GripEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.grips = append(f.grips, event)
	return nil
}

func (f *fakePublisher) PublishState(event StateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.states = append(f.states, event)
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *fakePublisher) snapshot() (grips []GripEvent, states []StateEvent, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]GripEvent(nil), f.grips...), append([]StateEvent(nil), f.states...), f.closed
}
