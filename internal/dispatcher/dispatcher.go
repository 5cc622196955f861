// Package dispatcher implements the single-consumer message router that
// sits between every session's read loop and the Room. Routing messages
// through one goroutine is what lets Room mutate its own state without a
// lock: BTSMessageReader played the same role over the original's
// mIncoming queue, single-threaded by construction.
package dispatcher

import (
	"log"
	"sync/atomic"

	"github.com/bluetetris/server/internal/protocol"
	"github.com/bluetetris/server/internal/session"
)

// Router is implemented by Room. HandleGlobal/HandleRoom/HandleGame and
// Admit are called from the Dispatcher's single consumer goroutine only, so
// Room's own RWMutex never sees contention in practice; it stays in place
// anyway, matching the lock-every-map-access convention Room's seat table
// was built around.
type Router interface {
	HandleGlobal(s *session.Session, h protocol.Header, payload []byte)
	HandleRoom(s *session.Session, h protocol.Header, payload []byte)
	HandleGame(s *session.Session, h protocol.Header, payload []byte)

	// Admit seats a newly accepted connection, returning ok=false if the
	// room is full.
	Admit(s *session.Session) (slot uint8, ok bool)
	// CurrentScope reports the Scope a message must carry (or Global) to be
	// considered valid against the room's present state.
	CurrentScope() protocol.Scope
}

// envelope is one queued, not-yet-validated inbound message.
type envelope struct {
	session *session.Session
	header  protocol.Header
	payload []byte
}

// admitRequest carries a newly accepted connection from its own goroutine
// (typically the listener's accept loop) to the single consumer goroutine,
// which alone is allowed to mutate Room state. BTSClientRead performed
// admission synchronously, inline in the connection thread, before that
// thread's read loop began; routing it through this channel preserves the
// "only the Dispatcher goroutine touches Room state" invariant while still
// blocking the caller until the seat is assigned.
type admitRequest struct {
	session *session.Session
	result  chan admitResult
}

type admitResult struct {
	slot uint8
	ok   bool
}

const queueDepth = 256

// Dispatcher owns the MPSC queue every session's read loop feeds into, and
// the single goroutine that drains it.
type Dispatcher struct {
	router  Router
	queue   chan envelope
	admit   chan admitRequest
	stop    chan struct{}
	invalid uint64 // atomic: messages dropped for scope mismatch or unknown scope
}

// New creates a Dispatcher that routes validated messages to router.
func New(router Router) *Dispatcher {
	return &Dispatcher{
		router: router,
		queue:  make(chan envelope, queueDepth),
		admit:  make(chan admitRequest),
		stop:   make(chan struct{}),
	}
}

// Dispatch implements session.Sink: it's the only entry point session read
// loops call, on as many goroutines as there are connections. Enqueuing is
// the one thing those goroutines are allowed to do to Room state.
func (d *Dispatcher) Dispatch(s *session.Session, h protocol.Header, payload []byte) {
	select {
	case d.queue <- envelope{session: s, header: h, payload: payload}:
	case <-d.stop:
	}
}

// Admit blocks until the consumer goroutine has seated s in the Room,
// mirroring BTSClientRead's admission-before-read-loop sequence without
// letting the caller's own goroutine mutate Room state directly. Call it
// from the listener's accept loop, before starting the session's Serve
// loop.
func (d *Dispatcher) Admit(s *session.Session) (uint8, bool) {
	req := admitRequest{session: s, result: make(chan admitResult, 1)}
	select {
	case d.admit <- req:
	case <-d.stop:
		return 0, false
	}
	select {
	case res := <-req.result:
		return res.slot, res.ok
	case <-d.stop:
		return 0, false
	}
}

// Run drains the queue until Stop is called. Call it from its own
// goroutine; it is the single consumer the package comment promises.
func (d *Dispatcher) Run() {
	for {
		select {
		case <-d.stop:
			return
		case env := <-d.queue:
			d.route(env)
		case req := <-d.admit:
			slot, ok := d.router.Admit(req.session)
			req.result <- admitResult{slot: slot, ok: ok}
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.stop)
}

// InvalidCount returns the number of messages dropped for failing the
// scope-validity check, the counter BTServer.h tracked as mInvalidMessages.
func (d *Dispatcher) InvalidCount() uint64 {
	return atomic.LoadUint64(&d.invalid)
}

// route validates that the header's scope is Global or matches the room's
// current state scope, then forwards to the matching Room handler. A
// message that fails either check is counted and dropped silently, the way
// BTSCheckValidity discarded anything that failed its checks instead of
// taking the server down.
func (d *Dispatcher) route(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatcher: recovered from panic handling %+v: %v", env.header, r)
		}
	}()

	if env.header.Scope != protocol.ScopeGlobal {
		if err := env.header.ExpectScope(d.router.CurrentScope()); err != nil {
			atomic.AddUint64(&d.invalid, 1)
			return
		}
	}

	switch env.header.Scope {
	case protocol.ScopeGlobal:
		d.router.HandleGlobal(env.session, env.header, env.payload)
	case protocol.ScopeRoom:
		d.router.HandleRoom(env.session, env.header, env.payload)
	case protocol.ScopeGame:
		d.router.HandleGame(env.session, env.header, env.payload)
	default:
		atomic.AddUint64(&d.invalid, 1)
		log.Printf("dispatcher: unknown scope %d from %s", env.header.Scope, env.session.RemoteAddr())
	}
}
