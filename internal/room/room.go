// Package room implements the Blue Tetris room: a fixed four-seat state
// machine (Waiting -> Starting -> Playing) driving one authoritative Board
// per occupied seat. Room's methods are only ever called from the
// Dispatcher's single consumer goroutine, so its mutex never sees contention
// from them; every method still takes it, which keeps read-side accessors
// such as SeatCount safe to call from other goroutines.
package room

import (
	"log"
	"sync"

	"github.com/bluetetris/server/config"
	"github.com/bluetetris/server/internal/board"
	"github.com/bluetetris/server/internal/protocol"
	"github.com/bluetetris/server/internal/scorestore"
	"github.com/bluetetris/server/internal/session"
)

// State is the room's own state machine, independent of any one seat's
// Board.State.
type State uint8

const (
	StateWaiting State = iota
	StateStarting
	StatePlaying
)

// seat is one of the room's four fixed slots.
type seat struct {
	occupied bool
	session  *session.Session
	ready    bool
	acked    bool // acknowledged EnterGameState during Starting
	active   bool // still in the game (hasn't topped out) during Playing
	board    *board.Board
}

// Room is the single fixed room this server hosts. There is no
// matchmaking: every connection joins this one room or is turned away.
type Room struct {
	mu    sync.RWMutex // guards the fields below; taken by every method
	state State
	seats [config.RoomSlots]seat
	scores scorestore.Store
}

func New(scores scorestore.Store) *Room {
	return &Room{scores: scores}
}

// CurrentScope reports the Scope messages must carry to be valid against the
// room's present state: Room while seats are still filling or acking
// EnterGameState, Game once a round is underway.
func (r *Room) CurrentScope() protocol.Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state == StatePlaying {
		return protocol.ScopeGame
	}
	return protocol.ScopeRoom
}

// SeatCount returns how many of the four seats are currently occupied.
func (r *Room) SeatCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.seats {
		if s.occupied {
			n++
		}
	}
	return n
}

// --- dispatcher.Router ---

func (r *Room) HandleGlobal(s *session.Session, h protocol.Header, payload []byte) {
	switch h.Opcode {
	case protocol.OpDisconnect:
		r.removeSession(s)

	case protocol.OpConnect:
		// Keepalive only.

	case protocol.OpRequestScore:
		r.sendScoreList(s)

	case protocol.OpHighScoreSubmit:
		r.handleHighScoreSubmit(s, payload)

	case protocol.OpAppearance, protocol.OpFrame, protocol.OpGrid:
		r.relayPassthrough(s, h.Opcode, payload)

	default:
		log.Printf("room: unhandled global opcode %d", h.Opcode)
	}
}

func (r *Room) HandleRoom(s *session.Session, h protocol.Header, payload []byte) {
	switch h.Opcode {
	case protocol.OpLeave:
		r.removeSession(s)

	case protocol.OpReady:
		r.setReady(s, true)

	case protocol.OpNotReady:
		r.setReady(s, false)

	case protocol.OpEnterGameState:
		r.handleEnterGameState(s)

	case protocol.OpAppearance, protocol.OpFrame, protocol.OpGrid:
		r.relayPassthrough(s, h.Opcode, payload)

	default:
		log.Printf("room: unhandled room opcode %d", h.Opcode)
	}
}

func (r *Room) HandleGame(s *session.Session, h protocol.Header, payload []byte) {
	switch h.Opcode {
	case protocol.OpLockdown:
		r.handleLockdown(s, payload)

	case protocol.OpRequestFix:
		r.handleRequestFix(s, payload)

	case protocol.OpTetrad:
		r.handleTetrad(s, payload)

	default:
		// GameEnd/GameOver/Board are server->client only; a client sending
		// them is ignored rather than treated as an error.
	}
}

// --- Admission ---

// Admit seats a newly accepted connection in the lowest free slot, sends it
// an AssignId frame, and reports every seat's Connect/Disconnect,
// Ready/NotReady and Playing/Idle state directly back to it. There is no
// Join/name handshake: BTSClientRead performs exactly this sequence, slot
// assignment then BTSReportClientStates, inside the connection thread
// before its read loop ever starts, and the new client is never itself
// announced to the others. Returns ok=false if every slot is occupied.
func (r *Room) Admit(s *session.Session) (uint8, bool) {
	slot, ok := r.firstFreeSlot()
	if !ok {
		return 0, false
	}

	r.mu.Lock()
	r.seats[slot] = seat{occupied: true, session: s}
	r.mu.Unlock()
	s.SetSlot(slot)

	s.Send(protocol.EncodeAssignID(slot))
	r.reportClientStates(slot)
	return slot, true
}

func (r *Room) firstFreeSlot() (uint8, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, s := range r.seats {
		if !s.occupied {
			return uint8(i), true
		}
	}
	return 0, false
}

// reportClientStates tells a newly seated slot the connect, ready and
// playing state of all four slots (itself included), directed at it alone
// rather than broadcast, matching BTSReportClientStates's exact
// three-message, Global-scope-regardless-of-opcode loop over every slot.
func (r *Room) reportClientStates(newSlot uint8) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recipient := r.seats[newSlot].session
	for i, s := range r.seats {
		connectOp := protocol.OpDisconnect
		if s.occupied {
			connectOp = protocol.OpConnect
		}
		recipient.Send(directedState(uint8(i), connectOp))

		readyOp := protocol.OpNotReady
		if s.ready {
			readyOp = protocol.OpReady
		}
		recipient.Send(directedState(uint8(i), readyOp))

		playingOp := protocol.OpIdle
		if s.playing() {
			playingOp = protocol.OpPlaying
		}
		recipient.Send(directedState(uint8(i), playingOp))
	}
}

func directedState(slot uint8, op protocol.Opcode) []byte {
	hdr := protocol.EncodeHeader(protocol.Header{Scope: protocol.ScopeGlobal, Slot: slot, Opcode: op})
	return hdr[:]
}

func (sea seat) playing() bool { return sea.active }

func (r *Room) setReady(s *session.Session, ready bool) {
	slot, ok := s.Slot()
	if !ok {
		return
	}
	r.mu.Lock()
	if !r.seats[slot].occupied {
		r.mu.Unlock()
		return
	}
	r.seats[slot].ready = ready
	r.mu.Unlock()

	if ready {
		r.relayToOthers(slot, protocol.EncodeReady(slot))
	} else {
		r.relayToOthers(slot, protocol.EncodeNotReady(slot))
	}
	r.maybeStart()
}

// maybeStart transitions Waiting -> Starting once every occupied seat is
// ready, and broadcasts EnterGameState so each client can ack in turn.
func (r *Room) maybeStart() {
	r.mu.Lock()
	if r.state != StateWaiting {
		r.mu.Unlock()
		return
	}
	occupied := 0
	ready := 0
	for _, s := range r.seats {
		if s.occupied {
			occupied++
			if s.ready {
				ready++
			}
		}
	}
	if occupied == 0 || ready != occupied {
		r.mu.Unlock()
		return
	}
	r.state = StateStarting
	r.mu.Unlock()

	r.broadcast(func(slot uint8) []byte {
		return encodeGameStateSignal(slot, protocol.OpEnterGameState, protocol.ScopeRoom)
	})
}

// --- Starting ---

func (r *Room) handleEnterGameState(s *session.Session) {
	slot, ok := s.Slot()
	if !ok {
		return
	}
	r.mu.Lock()
	if r.state != StateStarting || !r.seats[slot].occupied {
		r.mu.Unlock()
		return
	}
	r.seats[slot].acked = true

	allAcked := true
	for _, seat := range r.seats {
		if seat.occupied && !seat.acked {
			allAcked = false
			break
		}
	}
	r.mu.Unlock()

	if !allAcked {
		return
	}
	r.startGame()
}

func (r *Room) startGame() {
	r.mu.Lock()
	for i := range r.seats {
		if !r.seats[i].occupied {
			continue
		}
		b, err := board.NewBoard(config.DefaultBoardWidth, config.DefaultBoardHeight, config.DefaultLevel, config.DefaultPermute)
		if err != nil {
			log.Printf("room: failed to start board for slot %d: %v", i, err)
			continue
		}
		b.Start()
		r.seats[i].board = b
		r.seats[i].active = true
	}
	r.state = StatePlaying
	r.mu.Unlock()

	r.broadcast(func(slot uint8) []byte {
		return encodeGameStateSignal(slot, protocol.OpStartGame, protocol.ScopeRoom)
	})

	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, s := range r.seats {
		if s.occupied && s.board != nil {
			pieces := boardPieceBytes(s.board.NextPieces())
			s.session.Send(protocol.EncodeNextList(uint8(i), pieces))
		}
	}
}

func boardPieceBytes(pieces []board.PieceType) []uint8 {
	out := make([]uint8, len(pieces))
	for i, p := range pieces {
		out[i] = uint8(p)
	}
	return out
}

// --- Playing ---

func (r *Room) handleLockdown(s *session.Session, payload []byte) {
	slot, ok := s.Slot()
	if !ok {
		return
	}
	msg, err := protocol.DecodeLockdown(payload)
	if err != nil {
		return
	}

	r.mu.Lock()
	sea := &r.seats[slot]
	if !sea.occupied || !sea.active || sea.board == nil {
		r.mu.Unlock()
		return
	}
	var claimed [4]board.Unit
	var types [4]board.PieceType
	for i, u := range msg.Units {
		claimed[i] = board.Unit{X: int(u.X), Y: int(u.Y)}
		types[i] = board.PieceType(u.PieceType)
	}
	_, toppedOut, consistent := sea.board.ApplyLock(types, claimed)
	nextPieces := boardPieceBytes(sea.board.NextPieces())
	snapshot := sea.board.Snapshot()
	width, height := sea.board.Width, sea.board.Height
	if toppedOut {
		sea.active = false
	}
	r.mu.Unlock()

	if !consistent {
		s.Send(protocol.EncodeBoard(slot, protocol.BoardMessage{Width: uint8(width), Height: uint8(height), Cells: snapshot}))
	}
	r.relayToOthers(slot, protocol.EncodeLockdown(slot, msg))
	s.Send(protocol.EncodeNextList(slot, nextPieces))

	if toppedOut {
		r.relayToOthers(slot, protocol.EncodeGameOver(slot))
		r.checkGameEnd()
	}
}

// handleRequestFix decodes the target slot whose board the requester wants
// (BTSFixBoard's first argument) and replies with that slot's Board dump,
// addressed as the target's slot but sent only to the requester.
func (r *Room) handleRequestFix(s *session.Session, payload []byte) {
	if _, ok := s.Slot(); !ok {
		return
	}
	target, err := protocol.DecodeRequestFix(payload)
	if err != nil {
		return
	}
	if int(target) >= len(r.seats) {
		return
	}
	r.mu.RLock()
	sea := r.seats[target]
	r.mu.RUnlock()
	if !sea.occupied || sea.board == nil {
		return
	}
	s.Send(protocol.EncodeBoard(target, protocol.BoardMessage{
		Width:  uint8(sea.board.Width),
		Height: uint8(sea.board.Height),
		Cells:  sea.board.Snapshot(),
	}))
}

// handleTetrad relays a player's active-piece position report to the other
// seats unchanged, matching BTSHandleGame's M_TETRAD case.
func (r *Room) handleTetrad(s *session.Session, payload []byte) {
	slot, ok := s.Slot()
	if !ok {
		return
	}
	msg, err := protocol.DecodeTetrad(payload)
	if err != nil {
		return
	}
	r.relayToOthers(slot, protocol.EncodeTetrad(slot, msg))
}

// checkGameEnd ends the round once at most one seat remains active, and
// unconditionally resets the room to Waiting (Open Question resolved:
// required, not optional).
func (r *Room) checkGameEnd() {
	r.mu.Lock()
	active := 0
	for _, s := range r.seats {
		if s.occupied && s.active {
			active++
		}
	}
	if active > 1 {
		r.mu.Unlock()
		return
	}
	for i := range r.seats {
		r.seats[i].ready = false
		r.seats[i].acked = false
		r.seats[i].active = false
		r.seats[i].board = nil
	}
	r.state = StateWaiting
	r.mu.Unlock()

	r.broadcast(func(slot uint8) []byte {
		return encodeGameStateSignal(slot, protocol.OpGameEnd, protocol.ScopeGame)
	})
}

// --- shared plumbing ---

func encodeGameStateSignal(slot uint8, op protocol.Opcode, scope protocol.Scope) []byte {
	hdr := protocol.EncodeHeader(protocol.Header{Scope: scope, Slot: slot, Opcode: op})
	return hdr[:]
}

// broadcast sends build(slot)'s result to every occupied seat, keyed by
// each recipient's own slot so EncodeHeader carries the right addressee.
func (r *Room) broadcast(build func(slot uint8) []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, s := range r.seats {
		if s.occupied {
			s.session.Send(build(uint8(i)))
		}
	}
}

// relayToOthers forwards msg, as built for the sender's own slot, to every
// other occupied seat.
func (r *Room) relayToOthers(from uint8, msg []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, s := range r.seats {
		if s.occupied && uint8(i) != from {
			s.session.Send(msg)
		}
	}
}

func (r *Room) relayPassthrough(s *session.Session, op protocol.Opcode, payload []byte) {
	slot, ok := s.Slot()
	if !ok {
		return
	}
	r.relayToOthers(slot, protocol.EncodePassthrough(slot, op, payload))
}

func (r *Room) removeSession(s *session.Session) {
	slot, ok := s.Slot()
	if !ok {
		return
	}
	r.mu.Lock()
	if !r.seats[slot].occupied {
		r.mu.Unlock()
		return
	}
	r.seats[slot] = seat{}
	r.mu.Unlock()
	s.ClearSlot()

	r.relayToOthers(slot, encodeGameStateSignal(slot, protocol.OpLeave, protocol.ScopeRoom))
}

func (r *Room) sendScoreList(s *session.Session) {
	entries, err := r.scores.RetrieveTop10()
	result := protocol.ScoreListSuccess
	if err != nil {
		log.Printf("room: RetrieveTop10: %v", err)
		result = protocol.ScoreListFailure
		entries = nil
	}
	s.Send(protocol.EncodeScoreList(result, entries))
}

func (r *Room) handleHighScoreSubmit(s *session.Session, payload []byte) {
	entry, err := protocol.DecodeHighScoreSubmit(payload)
	if err != nil {
		return
	}
	accepted, _, err := r.scores.Submit(entry.Name, entry.Score)
	if err != nil {
		log.Printf("room: Submit: %v", err)
		return
	}
	hdr := protocol.EncodeHeader(protocol.Header{Scope: protocol.ScopeGlobal, Slot: protocol.NoSlot, Opcode: protocol.OpHighScoreAchieved})
	if !accepted {
		hdr = protocol.EncodeHeader(protocol.Header{Scope: protocol.ScopeGlobal, Slot: protocol.NoSlot, Opcode: protocol.OpNoHighScore})
	}
	s.Send(hdr[:])
}
