package xconn

import "sync/atomic"

// maxRequestID keeps generated ids within 2^53, the largest integer a
// JSON number round-trips exactly.
const maxRequestID = int64(1) << 53

// idGenerator is a session-scoped, strictly-increasing source of
// request ids (registration and subscription ids are assigned by the
// router). A single atomic counter satisfies invariant I3 (never
// colliding with a still-pending id) for the lifetime of one session;
// on reaching 2^53 the counter restarts at 1.
type idGenerator struct {
	counter atomic.Int64
}

func newIDGenerator() *idGenerator {
	return &idGenerator{}
}

func (g *idGenerator) next() int64 {
	id := g.counter.Add(1)
	if id >= maxRequestID {
		g.counter.Store(0)
		return g.next()
	}
	return id
}
