package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution; late arrivals block and share the leader's result. Results are
// not retained once the flight lands, so callers wanting memoization layer a
// cache on top.
type SingleFlight struct {
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	done  chan struct{}
	value any
	err   error
}

// Do runs fn once per key among concurrent callers. The bool reports whether
// this caller shared another flight's result.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.flights == nil {
		g.flights = make(map[string]*flight)
	}
	if f, inFlight := g.flights[key]; inFlight {
		g.mu.Unlock()
		<-f.done
		return f.value, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	g.flights[key] = f
	g.mu.Unlock()

	f.value, f.err = fn()
	close(f.done)

	g.mu.Lock()
	delete(g.flights, key)
	g.mu.Unlock()

	return f.value, f.err, false
}
