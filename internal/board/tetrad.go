package board

// PieceType indexes the seven standard tetrominoes. Index order matches the
// original client's color table: I, O, L, J, S, Z, T.
type PieceType uint8

const (
	PieceI PieceType = iota
	PieceO
	PieceL
	PieceJ
	PieceS
	PieceZ
	PieceT
	pieceCount
)

// Unit is one occupied cell of a tetrad, in absolute board coordinates.
type Unit struct {
	X, Y int
}

// Tetrad is a falling piece. Units[0] is always the pivot cell: rotation
// turns every other unit around it, the I-piece included (its translateI /
// ccTranslateI shifts cancel out); the O-piece never rotates at all.
type Tetrad struct {
	Type  PieceType
	Units [4]Unit
}

// spawnOffsets gives each piece's four cells relative to its pivot (unit[0])
// at its initial (spawn) orientation; y grows downward, so a +1 y offset sits
// one row below the pivot. The pivot itself is offsets[0] == {0,0}.
var spawnOffsets = map[PieceType][4]Unit{
	PieceI: {{0, 0}, {-1, 0}, {1, 0}, {2, 0}},
	PieceO: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	PieceL: {{0, 0}, {-1, 0}, {1, 0}, {1, 1}},
	PieceJ: {{0, 0}, {-1, 0}, {1, 0}, {-1, 1}},
	PieceS: {{0, 0}, {-1, 1}, {0, 1}, {1, 0}},
	PieceZ: {{0, 0}, {1, 1}, {0, 1}, {-1, 0}},
	PieceT: {{0, 0}, {-1, 0}, {1, 0}, {0, 1}},
}

// NewTetrad places a freshly generated piece of the given type with its
// pivot at (spawnX, spawnY).
func NewTetrad(t PieceType, spawnX, spawnY int) Tetrad {
	offsets := spawnOffsets[t]
	var tet Tetrad
	tet.Type = t
	for i, o := range offsets {
		tet.Units[i] = Unit{X: spawnX + o.X, Y: spawnY + o.Y}
	}
	return tet
}

// Translated returns a copy of t shifted by (dx, dy).
func (t Tetrad) Translated(dx, dy int) Tetrad {
	out := t
	for i := range out.Units {
		out.Units[i].X += dx
		out.Units[i].Y += dy
	}
	return out
}

// RotatedRight returns t rotated clockwise around its pivot. The O-piece is
// returned unchanged; the I-piece is shifted by translateI before the
// rotation and back by ccTranslateI after it, which leaves it rotated around
// units[0] exactly like the other pieces.
func (t Tetrad) RotatedRight() Tetrad {
	if t.Type == PieceO {
		return t
	}
	work := t
	if t.Type == PieceI {
		work = work.translateI()
	}
	pivot := work.Units[0]
	out := work
	for i := 1; i < len(out.Units); i++ {
		u := work.Units[i]
		dx, dy := u.X-pivot.X, u.Y-pivot.Y
		out.Units[i] = Unit{X: pivot.X + dy, Y: pivot.Y - dx}
	}
	if t.Type == PieceI {
		out = out.ccTranslateI()
	}
	return out
}

// RotatedLeft is the counterclockwise counterpart of RotatedRight.
func (t Tetrad) RotatedLeft() Tetrad {
	if t.Type == PieceO {
		return t
	}
	work := t
	if t.Type == PieceI {
		work = work.translateI()
	}
	pivot := work.Units[0]
	out := work
	for i := 1; i < len(out.Units); i++ {
		u := work.Units[i]
		dx, dy := u.X-pivot.X, u.Y-pivot.Y
		out.Units[i] = Unit{X: pivot.X - dy, Y: pivot.Y + dx}
	}
	if t.Type == PieceI {
		out = out.ccTranslateI()
	}
	return out
}

// translateI/ccTranslateI shift the whole I-piece, pivot included, by
// (1,-1) and back by (-1,1). Because the pivot moves with the piece, the
// pair does not change the result of a rotation: the I-piece turns around
// units[0], not around a point between grid cells.
func (t Tetrad) translateI() Tetrad   { return t.Translated(1, -1) }
func (t Tetrad) ccTranslateI() Tetrad { return t.Translated(-1, 1) }

// MovedLeft / MovedRight / MovedDown return t shifted by one cell; the
// caller is responsible for checking collisions and reverting.
func (t Tetrad) MovedLeft() Tetrad  { return t.Translated(-1, 0) }
func (t Tetrad) MovedRight() Tetrad { return t.Translated(1, 0) }
func (t Tetrad) MovedDown() Tetrad  { return t.Translated(0, 1) }
