// Package board implements the authoritative per-player Tetris simulation:
// piece generation, movement, locking, line clearing and scoring. A Board
// never touches the network; Room feeds it client claims and reads back
// whether they were consistent with server-side state.
package board

import (
	"errors"
	"math/rand"
)

var (
	ErrBadWidth  = errors.New("board: width out of range")
	ErrBadHeight = errors.New("board: height out of range")
)

// Width/height bounds, carried from the original's checkWidth/checkHeight.
const (
	MinWidth  = 4
	MaxWidth  = 20
	MinHeight = 6
	MaxHeight = 30
)

// lineScore is indexed by (lines cleared - 1); values match the original's
// lineScore table exactly.
var lineScore = [4]uint64{40, 100, 300, 1200}

// State is the board's lifecycle stage, independent of the Room's own
// Waiting/Starting/Playing state machine. A board is only ever Active
// while its room is Playing.
type State uint8

const (
	StatePregame State = iota
	StateActive
	StatePostgame
	StatePaused
)

// Board is one player's authoritative Tetris grid.
type Board struct {
	Width, Height int
	Level         uint32
	Lines         uint32
	Score         uint64
	State         State
	Permute       bool // true: 7-bag generation; false: uniform random

	grid []uint8 // row-major, 0 = empty, else PieceType+1

	active Tetrad
	bag    []PieceType
	next   PieceType
}

// NewBoard constructs a board with the given dimensions and generation
// mode. Width/height are validated against the original's bounds.
func NewBoard(width, height int, level uint32, permute bool) (*Board, error) {
	if width < MinWidth || width > MaxWidth {
		return nil, ErrBadWidth
	}
	if height < MinHeight || height > MaxHeight {
		return nil, ErrBadHeight
	}
	b := &Board{
		Width:   width,
		Height:  height,
		Level:   level,
		Permute: permute,
		grid:    make([]uint8, width*height),
		State:   StatePregame,
	}
	b.primeTetrads()
	return b, nil
}

// Start clears the board, resets level, lines and score, re-primes the next
// piece and transitions the board to Active. It does not spawn an active
// tetrad: Active returns the zero Tetrad until the first lock promotes the
// primed piece. Called once per player when the room advances to Playing.
func (b *Board) Start() {
	b.clear()
	b.Level = 0
	b.Lines = 0
	b.Score = 0
	b.primeTetrads()
	b.State = StateActive
}

// primeTetrads seeds the next-piece slot so the first call to spawnNext has
// something to promote, mirroring the original's two-ahead priming.
func (b *Board) primeTetrads() {
	b.bag = nil
	b.next = b.drawTetrad()
}

// spawnNext promotes the primed "next" piece into the active tetrad and
// draws a fresh next piece, returning the piece type that is now active.
func (b *Board) spawnNext() PieceType {
	t := b.next
	spawnX := b.Width / 2
	b.active = NewTetrad(t, spawnX, 0)
	b.next = b.drawTetrad()
	return t
}

// NextPieces returns the upcoming queue, deepest-first, for reporting to
// clients (BTSReportNextList equivalent). Only the single primed piece is
// tracked today, but the slice shape keeps room for deeper lookahead.
func (b *Board) NextPieces() []PieceType {
	return []PieceType{b.next}
}

// drawTetrad returns the next piece type, either from a shuffled 7-bag or
// uniformly at random, depending on b.Permute.
func (b *Board) drawTetrad() PieceType {
	if !b.Permute {
		return PieceType(rand.Intn(int(pieceCount)))
	}
	if len(b.bag) == 0 {
		b.refillBag()
	}
	t := b.bag[len(b.bag)-1]
	b.bag = b.bag[:len(b.bag)-1]
	return t
}

// refillBag draws a fresh permutation of all seven piece types.
func (b *Board) refillBag() {
	bag := make([]PieceType, pieceCount)
	for i := range bag {
		bag[i] = PieceType(i)
	}
	rand.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
	b.bag = bag
}

// clear empties the grid and resets the active piece.
func (b *Board) clear() {
	for i := range b.grid {
		b.grid[i] = 0
	}
	b.active = Tetrad{}
}

func (b *Board) cellAt(x, y int) uint8 {
	return b.grid[y*b.Width+x]
}

func (b *Board) setCell(x, y int, v uint8) {
	b.grid[y*b.Width+x] = v
}

func (b *Board) inBounds(u Unit) bool {
	return u.X >= 0 && u.X < b.Width && u.Y >= 0 && u.Y < b.Height
}

// check reports whether tet can legally occupy its cells: in bounds and
// not overlapping any locked cell.
func (b *Board) check(tet Tetrad) bool {
	for _, u := range tet.Units {
		if !b.inBounds(u) {
			return false
		}
		if u.Y >= 0 && b.cellAt(u.X, u.Y) != 0 {
			return false
		}
	}
	return true
}

// Active returns the current falling tetrad.
func (b *Board) Active() Tetrad { return b.active }

// MoveLeft / MoveRight attempt to shift the active piece one cell; they are
// no-ops (return false) if the destination collides.
func (b *Board) MoveLeft() bool  { return b.tryMove(b.active.MovedLeft()) }
func (b *Board) MoveRight() bool { return b.tryMove(b.active.MovedRight()) }

func (b *Board) tryMove(next Tetrad) bool {
	if !b.check(next) {
		return false
	}
	b.active = next
	return true
}

// RotateRight / RotateLeft attempt to rotate the active piece, reverting to
// the pre-rotation orientation if the rotated position collides.
func (b *Board) RotateRight() bool { return b.tryMove(b.active.RotatedRight()) }
func (b *Board) RotateLeft() bool  { return b.tryMove(b.active.RotatedLeft()) }

// ForceDown drops the active piece one row if possible. It returns false
// (and leaves the piece in place) when the piece has landed, signaling the
// caller to lock it. When scoreDrop is true, a soft-drop point is added to
// the board's score, matching the original's two forceDown overloads.
func (b *Board) ForceDown(scoreDrop bool) bool {
	moved := b.tryMove(b.active.MovedDown())
	if moved && scoreDrop {
		b.Score++
	}
	return moved
}

// SonicLock hard-drops the active piece to the lowest legal row and locks
// it immediately, awarding one point per row dropped.
func (b *Board) SonicLock() (cleared int, toppedOut bool) {
	rows := 0
	for b.ForceDown(false) {
		rows++
	}
	b.Score += uint64(rows)
	return b.lockActive()
}

// Lock locks the active tetrad in place, clears any completed lines, and
// reports whether the board has topped out. This is the server-authoritative
// counterpart of a client's Lockdown claim.
func (b *Board) Lock() (cleared int, toppedOut bool) {
	return b.lockActive()
}

func (b *Board) lockActive() (cleared int, toppedOut bool) {
	var types [4]PieceType
	for i := range types {
		types[i] = b.active.Type
	}
	cleared, toppedOut, _ = b.lockUnits(types, b.active.Units)
	return cleared, toppedOut
}

// lockUnits sets the given cells (each carrying its own piece type, the way
// BTSLock reads a parallel type[4]/x[4]/y[4] array rather than one shared
// type), clears completed lines, checks for top-out and, if the board
// survives, spawns the next piece. It reports ok=false without mutating the
// grid if any cell is out of bounds or already occupied.
func (b *Board) lockUnits(types [4]PieceType, units [4]Unit) (cleared int, toppedOut bool, ok bool) {
	for _, u := range units {
		if !b.inBounds(u) {
			return 0, false, false
		}
		if u.Y >= 0 && b.cellAt(u.X, u.Y) != 0 {
			return 0, false, false
		}
	}
	for i, u := range units {
		if u.Y < 0 {
			continue
		}
		b.setCell(u.X, u.Y, uint8(types[i])+1)
	}
	cleared = b.clearLines()
	if b.overflowCheck() {
		b.State = StatePostgame
		toppedOut = true
	} else {
		b.spawnNext()
	}
	return cleared, toppedOut, true
}

// ApplyLock validates a client-submitted Lockdown: the claimed cells must be
// in bounds and not already occupied by a previously locked piece. A
// consistent claim is locked normally. An inconsistent one, typically
// because a line clear the client hasn't heard about yet changed the grid
// underneath it, is rejected without mutating the grid, so the caller can
// push an authoritative Board fix-up message instead of trusting it,
// mirroring BTSLock's occupancy check against server state.
func (b *Board) ApplyLock(types [4]PieceType, claimed [4]Unit) (cleared int, toppedOut bool, consistent bool) {
	cleared, toppedOut, ok := b.lockUnits(types, claimed)
	return cleared, toppedOut, ok
}

// overflowCheck reports whether either of the top two rows holds a locked
// cell, the original's top-out condition.
func (b *Board) overflowCheck() bool {
	for y := 0; y < 2 && y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.cellAt(x, y) != 0 {
				return true
			}
		}
	}
	return false
}

// clearLines removes every full row, shifts the rows above it down, awards
// score per the original's line-score table, and returns the number of
// rows cleared.
func (b *Board) clearLines() int {
	full := make([]int, 0, b.Height)
	for y := 0; y < b.Height; y++ {
		if b.checkLine(y) {
			full = append(full, y)
		}
	}
	for _, y := range full {
		b.clearLine(y)
	}
	n := len(full)
	if n > 0 {
		b.Lines += uint32(n)
		idx := n - 1
		if idx > len(lineScore)-1 {
			idx = len(lineScore) - 1
		}
		b.Score += lineScore[idx] * uint64(b.Level+1)
		b.levelCheck()
	}
	return n
}

func (b *Board) checkLine(y int) bool {
	for x := 0; x < b.Width; x++ {
		if b.cellAt(x, y) == 0 {
			return false
		}
	}
	return true
}

// clearLine removes row y and shifts every row above it down by one.
func (b *Board) clearLine(y int) {
	b.shiftDown(y)
}

func (b *Board) shiftDown(toRow int) {
	for y := toRow; y > 0; y-- {
		for x := 0; x < b.Width; x++ {
			b.setCell(x, y, b.cellAt(x, y-1))
		}
	}
	for x := 0; x < b.Width; x++ {
		b.setCell(x, 0, 0)
	}
}

// levelCheck advances the level every 10 lines, the original's pacing.
func (b *Board) levelCheck() {
	b.Level = b.Lines / 10
}

// Snapshot returns a row-major copy of the locked grid for a Board fix-up
// message (cell values are PieceType+1, 0 is empty).
func (b *Board) Snapshot() []uint8 {
	out := make([]uint8, len(b.grid))
	copy(out, b.grid)
	return out
}
