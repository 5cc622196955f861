// Package session implements the per-connection read/send loops that sit
// between a raw TCP socket and the Dispatcher.
package session

import (
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/bluetetris/server/internal/protocol"
)

// Sink receives fully-framed, header-validated messages read off a
// session's socket. internal/dispatcher.Dispatcher implements this; keeping
// it as an interface here (rather than importing the dispatcher package
// directly) avoids a session<->dispatcher import cycle.
type Sink interface {
	Dispatch(s *Session, h protocol.Header, payload []byte)
}

// Session is one connected client: a socket plus the two goroutines
// (read loop, send loop) that service it, and the outbound queue between
// them.
type Session struct {
	conn   net.Conn
	sink   Sink
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	mu   sync.RWMutex
	slot uint8
	seated bool
}

const sendBufferSize = 64

// New wraps an accepted connection. Call Serve to start its goroutines.
func New(conn net.Conn, sink Sink) *Session {
	return &Session{
		conn: conn,
		sink: sink,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send queues a message for delivery. Non-blocking: a session that can't
// keep up has the new message dropped rather than stalling the sender.
func (s *Session) Send(data []byte) error {
	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return errors.New("session: closed")
	default:
		return nil
	}
}

func (s *Session) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.conn.Close()
}

func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// Slot returns the seat this session currently occupies and whether it has
// been seated at all.
func (s *Session) Slot() (uint8, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slot, s.seated
}

// SetSlot records which seat the Room assigned this session. Called only
// by the Dispatcher goroutine, which is the sole mutator of Room/slot
// state.
func (s *Session) SetSlot(slot uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot = slot
	s.seated = true
}

func (s *Session) ClearSlot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seated = false
}

// Serve starts the read and send loops and blocks until the connection is
// closed. Call it from its own goroutine.
func (s *Session) Serve() {
	go s.sendLoop()
	s.readLoop()
}

func (s *Session) sendLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := protocol.WriteFrame(s.conn, msg); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			// Keepalive: an empty Global/Connect frame, never a payload the
			// other side needs to interpret.
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			hdr := protocol.EncodeHeader(protocol.Header{Scope: protocol.ScopeGlobal, Slot: protocol.NoSlot, Opcode: protocol.OpConnect})
			if err := protocol.WriteFrame(s.conn, hdr[:]); err != nil {
				s.Close()
				return
			}
		}
	}
}

func (s *Session) readLoop() {
	defer s.cleanup()

	fr := protocol.NewFrameReader(s.conn)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		raw, err := fr.ReadFrame()
		if err != nil {
			return
		}
		hdr, err := protocol.DecodeHeader(raw)
		if err != nil {
			log.Printf("session %s: %v", s.RemoteAddr(), err)
			continue
		}
		s.sink.Dispatch(s, hdr, raw[2:])
	}
}

func (s *Session) cleanup() {
	s.sink.Dispatch(s, protocol.Header{Scope: protocol.ScopeGlobal, Slot: protocol.NoSlot, Opcode: protocol.OpDisconnect}, nil)
	s.Close()
}
