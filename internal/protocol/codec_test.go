package protocol

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	cases := []Header{
		{Scope: ScopeGlobal, Slot: NoSlot, Opcode: OpConnect},
		{Scope: ScopeRoom, Slot: 2, Opcode: OpReady},
		{Scope: ScopeGame, Slot: 3, Opcode: OpLockdown},
	}
	for _, h := range cases {
		b := EncodeHeader(h)
		got, err := DecodeHeader(b[:])
		if err != nil {
			t.Fatalf("DecodeHeader(%+v): %v", h, err)
		}
		if got != h {
			t.Errorf("round trip mismatch: want %+v, got %+v", h, got)
		}
	}
}

func TestDecodeHeaderRejectsBadSignature(t *testing.T) {
	b := []byte{0x00, 0x00}
	if _, err := DecodeHeader(b); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := []byte{0xA2, 0x04, 0x01, 0x02}
	if err := WriteFrame(&buf, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	fr := NewFrameReader(&buf)
	got, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("frame mismatch: want %v, got %v", msg, got)
	}
}

func TestNameRoundTrip(t *testing.T) {
	name := "Tom"
	enc, err := EncodeName(name)
	if err != nil {
		t.Fatalf("EncodeName: %v", err)
	}
	if len(enc) != nameLength {
		t.Fatalf("expected %d bytes, got %d", nameLength, len(enc))
	}
	dec, err := DecodeName(enc)
	if err != nil {
		t.Fatalf("DecodeName: %v", err)
	}
	if dec != name {
		t.Errorf("name mismatch: want %q, got %q", name, dec)
	}
}

func TestNameTooLong(t *testing.T) {
	if _, err := EncodeName("WayTooLongAName"); err != ErrNameTooLong {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}

func TestScoreRoundTrip(t *testing.T) {
	scores := []uint64{0, 9, 1234567, 999999999999}
	for _, s := range scores {
		enc := EncodeScore(s)
		if len(enc) != scoreLength {
			t.Fatalf("expected %d bytes, got %d", scoreLength, len(enc))
		}
		dec, err := DecodeScore(enc)
		if err != nil {
			t.Fatalf("DecodeScore: %v", err)
		}
		if dec != s {
			t.Errorf("score mismatch: want %d, got %d", s, dec)
		}
		for _, b := range enc {
			if b == MessageTerminatorByte {
				t.Errorf("encoded score byte collides with terminator: %v", enc)
			}
		}
	}
}

const MessageTerminatorByte = 0xF0

func TestScoreListRoundTrip(t *testing.T) {
	entries := []ScoreEntry{{Name: "Ada", Score: 42}, {Name: "Tom", Score: 100}}
	buf := EncodeScoreList(ScoreListSuccess, entries)
	hdr, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Opcode != OpScoreList {
		t.Fatalf("expected OpScoreList, got %v", hdr.Opcode)
	}
	result, got, err := DecodeScoreList(buf[2:])
	if err != nil {
		t.Fatalf("DecodeScoreList: %v", err)
	}
	if result != ScoreListSuccess {
		t.Errorf("result mismatch: want %d, got %d", ScoreListSuccess, result)
	}
	if len(got) != ScoreListSize {
		t.Fatalf("entry count mismatch: want %d, got %d", ScoreListSize, len(got))
	}
	for i, e := range entries {
		if got[i] != e {
			t.Errorf("entry %d mismatch: want %+v, got %+v", i, e, got[i])
		}
	}
	for i := len(entries); i < ScoreListSize; i++ {
		if got[i] != SentinelEntry {
			t.Errorf("padding entry %d mismatch: want sentinel, got %+v", i, got[i])
		}
	}
}

func TestLockdownRoundTrip(t *testing.T) {
	msg := LockdownMessage{
		Units: [4]LockUnit{
			{PieceType: 3, X: 1, Y: 1},
			{PieceType: 3, X: 1, Y: 2},
			{PieceType: 3, X: 2, Y: 1},
			{PieceType: 3, X: 2, Y: 2},
		},
	}
	buf := EncodeLockdown(1, msg)
	hdr, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Scope != ScopeGame || hdr.Opcode != OpLockdown || hdr.Slot != 1 {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	got, err := DecodeLockdown(buf[2:])
	if err != nil {
		t.Fatalf("DecodeLockdown: %v", err)
	}
	if got != msg {
		t.Errorf("lockdown mismatch: want %+v, got %+v", msg, got)
	}
}

func TestTetradRoundTrip(t *testing.T) {
	msg := TetradMessage{
		PieceType: 5,
		Units:     [4]Unit{{1, 1}, {1, 2}, {2, 1}, {2, 2}},
	}
	buf := EncodeTetrad(2, msg)
	hdr, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Scope != ScopeGame || hdr.Opcode != OpTetrad || hdr.Slot != 2 {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	got, err := DecodeTetrad(buf[2:])
	if err != nil {
		t.Fatalf("DecodeTetrad: %v", err)
	}
	if got != msg {
		t.Errorf("tetrad mismatch: want %+v, got %+v", msg, got)
	}
}

func TestRequestFixRoundTrip(t *testing.T) {
	buf := EncodeRequestFix(1, 3)
	hdr, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Scope != ScopeGame || hdr.Opcode != OpRequestFix || hdr.Slot != 1 {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	target, err := DecodeRequestFix(buf[2:])
	if err != nil {
		t.Fatalf("DecodeRequestFix: %v", err)
	}
	if target != 3 {
		t.Errorf("target mismatch: want 3, got %d", target)
	}
}
