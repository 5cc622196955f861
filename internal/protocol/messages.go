package protocol

// Unit is one of a tetrad's four occupied cells, relative or absolute
// depending on context (active-piece units are board-absolute).
type Unit struct {
	X, Y int8
}

const unitsPerTetrad = 4

// EncodeReady / EncodeNotReady / EncodeEnterGameState / EncodeStartGame /
// EncodeGameEnd / EncodeLeave carry no payload beyond the header; the opcode
// alone is the message.
func encodeRoomSignal(slot uint8, op Opcode) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeRoom, Slot: slot, Opcode: op})
	return hdr[:]
}

func EncodeReady(slot uint8) []byte          { return encodeRoomSignal(slot, OpReady) }
func EncodeNotReady(slot uint8) []byte       { return encodeRoomSignal(slot, OpNotReady) }
func EncodeEnterGameState(slot uint8) []byte { return encodeRoomSignal(slot, OpEnterGameState) }
func EncodeStartGame(slot uint8) []byte      { return encodeRoomSignal(slot, OpStartGame) }
func EncodeLeave(slot uint8) []byte          { return encodeRoomSignal(slot, OpLeave) }

func encodeGameSignal(slot uint8, op Opcode) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGame, Slot: slot, Opcode: op})
	return hdr[:]
}

func EncodeGameEnd(slot uint8) []byte  { return encodeGameSignal(slot, OpGameEnd) }
func EncodeGameOver(slot uint8) []byte { return encodeGameSignal(slot, OpGameOver) }

// EncodeRequestFix asks the server to send back the Board frame for target
// (BTSFixBoard's first argument), addressed as coming from the requester's
// own slot.
func EncodeRequestFix(slot, target uint8) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGame, Slot: slot, Opcode: OpRequestFix})
	return append(hdr[:], target+numeralOffset)
}

func DecodeRequestFix(payload []byte) (uint8, error) {
	if len(payload) < 1 {
		return 0, ErrShortBuffer
	}
	return payload[0] - numeralOffset, nil
}

// EncodeAssignID tells a newly seated connection which slot it occupies.
// Sent at Global scope, matching BTServer.h's C_GLOBAL + S_GLOBAL*8 header
// for M_ASSIGN_ID rather than the Room scope most of AssignId's siblings use.
func EncodeAssignID(slot uint8) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGlobal, Slot: slot, Opcode: OpAssignID})
	return append(hdr[:], slot+numeralOffset)
}

func DecodeAssignID(payload []byte) (uint8, error) {
	if len(payload) < 1 {
		return 0, ErrShortBuffer
	}
	return payload[0] - numeralOffset, nil
}

// LockUnit is one of a locked tetrad's four cells: its own piece type (the
// original's parallel type[4]/x[4]/y[4] arrays keep a type per cell, not one
// shared across all four) plus its absolute board position.
type LockUnit struct {
	PieceType uint8
	X, Y      int8
}

// LockdownMessage carries the four cells of a tetrad the client claims to
// have locked.
type LockdownMessage struct {
	Units [unitsPerTetrad]LockUnit
}

func EncodeLockdown(slot uint8, msg LockdownMessage) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGame, Slot: slot, Opcode: OpLockdown})
	buf := make([]byte, 2+unitsPerTetrad*3)
	copy(buf, hdr[:])
	for i, u := range msg.Units {
		off := 2 + i*3
		buf[off] = u.PieceType + numeralOffset
		buf[off+1] = byte(u.X) + numeralOffset
		buf[off+2] = byte(u.Y) + numeralOffset
	}
	return buf
}

func DecodeLockdown(payload []byte) (LockdownMessage, error) {
	if len(payload) < unitsPerTetrad*3 {
		return LockdownMessage{}, ErrShortBuffer
	}
	var msg LockdownMessage
	for i := 0; i < unitsPerTetrad; i++ {
		off := i * 3
		msg.Units[i] = LockUnit{
			PieceType: payload[off] - numeralOffset,
			X:         int8(payload[off+1] - numeralOffset),
			Y:         int8(payload[off+2] - numeralOffset),
		}
	}
	return msg, nil
}

// TetradMessage reports the position of a player's active piece so other
// seats can render it; unlike Lockdown, every cell shares one piece type.
type TetradMessage struct {
	PieceType uint8
	Units     [unitsPerTetrad]Unit
}

func EncodeTetrad(slot uint8, msg TetradMessage) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGame, Slot: slot, Opcode: OpTetrad})
	buf := make([]byte, 2+1+unitsPerTetrad*2)
	copy(buf, hdr[:])
	buf[2] = msg.PieceType + numeralOffset
	for i, u := range msg.Units {
		off := 3 + i*2
		buf[off] = byte(u.X) + numeralOffset
		buf[off+1] = byte(u.Y) + numeralOffset
	}
	return buf
}

func DecodeTetrad(payload []byte) (TetradMessage, error) {
	if len(payload) < 1+unitsPerTetrad*2 {
		return TetradMessage{}, ErrShortBuffer
	}
	msg := TetradMessage{PieceType: payload[0] - numeralOffset}
	for i := 0; i < unitsPerTetrad; i++ {
		off := 1 + i*2
		msg.Units[i] = Unit{
			X: int8(payload[off] - numeralOffset),
			Y: int8(payload[off+1] - numeralOffset),
		}
	}
	return msg, nil
}

// BoardMessage is a full authoritative board dump sent in response to a
// reconciliation failure (RequestFix, or a server-detected Lockdown
// inconsistency).
type BoardMessage struct {
	Width, Height uint8
	Cells         []uint8 // row-major, 0 = empty, 1-7 = piece type occupying the cell
}

func EncodeBoard(slot uint8, msg BoardMessage) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGame, Slot: slot, Opcode: OpBoard})
	buf := make([]byte, 2+2+len(msg.Cells))
	copy(buf, hdr[:])
	buf[2] = msg.Width
	buf[3] = msg.Height
	copy(buf[4:], msg.Cells)
	return buf
}

func DecodeBoard(payload []byte) (BoardMessage, error) {
	if len(payload) < 2 {
		return BoardMessage{}, ErrShortBuffer
	}
	w, h := payload[0], payload[1]
	need := int(w) * int(h)
	if len(payload)-2 < need {
		return BoardMessage{}, ErrShortBuffer
	}
	cells := make([]uint8, need)
	copy(cells, payload[2:2+need])
	return BoardMessage{Width: w, Height: h, Cells: cells}, nil
}

// EncodeNextList reports the upcoming piece queue for a board, supplementing
// the distilled spec with the original's BTSReportNextList behavior.
func EncodeNextList(slot uint8, pieces []uint8) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGame, Slot: slot, Opcode: OpNext})
	buf := make([]byte, 2+len(pieces))
	copy(buf, hdr[:])
	for i, p := range pieces {
		buf[2+i] = p + numeralOffset
	}
	return buf
}

func DecodeNextList(payload []byte) []uint8 {
	out := make([]uint8, len(payload))
	for i, b := range payload {
		out[i] = b - numeralOffset
	}
	return out
}

// ScoreEntry is one (name, score) pair as reported in a score list.
type ScoreEntry struct {
	Name  string
	Score uint64
}

// ScoreListSize is the number of entries a ScoreList frame always carries,
// padded with SentinelEntry past however many real rows the table holds.
const ScoreListSize = 10

// SentinelName/SentinelEntry mark an unused score table row, mirroring the
// local score file's ("No Entry", 0) placeholder for rows past the real
// high scores.
const SentinelName = "No Entry"

var SentinelEntry = ScoreEntry{Name: SentinelName, Score: 0}

// EncodeScoreList encodes the high score table as exactly ScoreListSize
// entries, padding with SentinelEntry past len(entries).
func EncodeScoreList(result uint8, entries []ScoreEntry) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeGlobal, Slot: NoSlot, Opcode: OpScoreList})
	buf := make([]byte, 2+1+ScoreListSize*(nameLength+scoreLength))
	copy(buf, hdr[:])
	buf[2] = result
	off := 3
	for i := 0; i < ScoreListSize; i++ {
		e := SentinelEntry
		if i < len(entries) {
			e = entries[i]
		}
		nameBuf, _ := EncodeName(e.Name)
		copy(buf[off:], nameBuf)
		copy(buf[off+nameLength:], EncodeScore(e.Score))
		off += nameLength + scoreLength
	}
	return buf
}

func DecodeScoreList(payload []byte) (uint8, []ScoreEntry, error) {
	if len(payload) < 1 {
		return 0, nil, ErrShortBuffer
	}
	result := payload[0]
	rest := payload[1:]
	entryLen := nameLength + scoreLength
	if len(rest)%entryLen != 0 {
		return 0, nil, ErrShortBuffer
	}
	entries := make([]ScoreEntry, 0, len(rest)/entryLen)
	for off := 0; off+entryLen <= len(rest); off += entryLen {
		name, err := DecodeName(rest[off : off+nameLength])
		if err != nil {
			return 0, nil, err
		}
		score, err := DecodeScore(rest[off+nameLength : off+entryLen])
		if err != nil {
			return 0, nil, err
		}
		entries = append(entries, ScoreEntry{Name: name, Score: score})
	}
	return result, entries, nil
}

// EncodeHighScoreSubmit submits a name/score pair for ranking.
func EncodeHighScoreSubmit(name string, score uint64) ([]byte, error) {
	nameBuf, err := EncodeName(name)
	if err != nil {
		return nil, err
	}
	hdr := EncodeHeader(Header{Scope: ScopeGlobal, Slot: NoSlot, Opcode: OpHighScoreSubmit})
	buf := make([]byte, 2+nameLength+scoreLength)
	copy(buf, hdr[:])
	copy(buf[2:], nameBuf)
	copy(buf[2+nameLength:], EncodeScore(score))
	return buf, nil
}

func DecodeHighScoreSubmit(payload []byte) (ScoreEntry, error) {
	if len(payload) < nameLength+scoreLength {
		return ScoreEntry{}, ErrShortBuffer
	}
	name, err := DecodeName(payload[:nameLength])
	if err != nil {
		return ScoreEntry{}, err
	}
	score, err := DecodeScore(payload[nameLength : nameLength+scoreLength])
	if err != nil {
		return ScoreEntry{}, err
	}
	return ScoreEntry{Name: name, Score: score}, nil
}

// EncodePassthrough wraps an opaque payload (Appearance, Frame, Grid) that
// the server never interprets, only relays to the other seated slots:
// cosmetic board-skin bytes the server treats as a black box.
func EncodePassthrough(slot uint8, op Opcode, payload []byte) []byte {
	hdr := EncodeHeader(Header{Scope: ScopeRoom, Slot: slot, Opcode: op})
	return append(hdr[:], payload...)
}
