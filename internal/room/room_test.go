package room

import (
	"net"
	"testing"
	"time"

	"github.com/bluetetris/server/internal/dispatcher"
	"github.com/bluetetris/server/internal/protocol"
	"github.com/bluetetris/server/internal/scorestore"
	"github.com/bluetetris/server/internal/session"
)

// testClient wraps one end of an in-memory connection so tests can read
// and write frames without a real socket.
type testClient struct {
	conn net.Conn
}

func newTestClient(t *testing.T, d *dispatcher.Dispatcher) *testClient {
	t.Helper()
	server, client := net.Pipe()
	s := session.New(server, d)
	if _, ok := d.Admit(s); !ok {
		t.Fatalf("Admit: room full")
	}
	go s.Serve()
	t.Cleanup(func() { client.Close() })
	return &testClient{conn: client}
}

func (c *testClient) send(msg []byte) error {
	return protocol.WriteFrame(c.conn, msg)
}

func (c *testClient) recv(t *testing.T) protocol.Header {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	fr := protocol.NewFrameReader(c.conn)
	raw, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	hdr, err := protocol.DecodeHeader(raw)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	return hdr
}

func newTestRoom(t *testing.T) (*Room, *dispatcher.Dispatcher) {
	t.Helper()
	store, err := scorestore.NewStore("", t.TempDir()+"/scores.dat")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	r := New(store)
	d := dispatcher.New(r)
	go d.Run()
	t.Cleanup(d.Stop)
	return r, d
}

func TestAdmitAssignsSlotAndRepliesAssignID(t *testing.T) {
	r, d := newTestRoom(t)
	c := newTestClient(t, d)

	hdr := c.recv(t)
	if hdr.Scope != protocol.ScopeGlobal || hdr.Opcode != protocol.OpAssignID {
		t.Fatalf("expected AssignID, got %+v", hdr)
	}
	if r.SeatCount() != 1 {
		t.Fatalf("expected 1 seated player, got %d", r.SeatCount())
	}
}

func TestReadyUpStartsGameWhenAllSeatsReady(t *testing.T) {
	r, d := newTestRoom(t)
	c := newTestClient(t, d)

	c.recv(t) // AssignID
	for i := 0; i < 4*3; i++ {
		c.recv(t) // reportClientStates: 3 messages per slot, 4 slots
	}

	c.send(protocol.EncodeReady(0))
	hdr := c.recv(t)
	if hdr.Opcode != protocol.OpEnterGameState {
		t.Fatalf("expected EnterGameState once all seats ready, got %+v", hdr)
	}

	c.send(protocol.EncodeEnterGameState(0))
	hdr = c.recv(t)
	if hdr.Opcode != protocol.OpStartGame {
		t.Fatalf("expected StartGame once all seats acked, got %+v", hdr)
	}

	hdr = c.recv(t)
	if hdr.Opcode != protocol.OpNext {
		t.Fatalf("expected next-piece report after start, got %+v", hdr)
	}

	if r.state != StatePlaying {
		t.Fatalf("expected room state Playing, got %v", r.state)
	}
}
