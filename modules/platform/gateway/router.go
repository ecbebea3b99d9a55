package gateway

import (
	"econdash/modules/platform/logger"
)

// Store is the mutation surface the router drives. The state store is the
// only writer target; handlers never reach past it.
type Store interface {
	ApplyMetrics(MetricsFrame)
	ApplyWorldDelta(WorldDeltaFrame)
	ApplyEvent(EventFrame)
	ApplyPolicyVote(PolicyVoteFrame)
}

// Router demultiplexes inbound envelopes by topic into store mutations
type Router struct {
	store Store
	log   *logger.Logger
}

// NewRouter creates a topic router bound to a store
func NewRouter(store Store, log *logger.Logger) *Router {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Router{store: store, log: log}
}

// Dispatch applies the mutation implied by one envelope. Unknown topics
// and malformed payloads are logged and dropped.
func (r *Router) Dispatch(env *Envelope) {
	frame, err := DecodeFrame(env)
	if err != nil {
		if _, ok := err.(*ErrUnknownTopic); ok {
			r.log.Debug("ignoring %v", err)
		} else {
			r.log.Warn("dropping frame: %v", err)
		}
		return
	}

	switch f := frame.(type) {
	case MetricsFrame:
		r.store.ApplyMetrics(f)
	case WorldDeltaFrame:
		r.store.ApplyWorldDelta(f)
	case EventFrame:
		r.store.ApplyEvent(f)
	case PolicyVoteFrame:
		r.store.ApplyPolicyVote(f)
	}
}

// Run consumes the inbound queue until it is closed or done is signalled.
// One goroutine runs this loop, so store mutations happen in arrival order.
func (r *Router) Run(frames <-chan *Envelope, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case env, ok := <-frames:
			if !ok {
				return
			}
			r.Dispatch(env)
		}
	}
}
