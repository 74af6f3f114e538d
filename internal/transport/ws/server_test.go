package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gridfactory.ai/internal/protocol"
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/host"
	"gridfactory.ai/internal/sim/world"
)

func startServer(t *testing.T, cfg Config) string {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	flat := func(x, y float64, octaves int, seed int64) float64 { return 0 }
	w, err := world.New(world.WorldConfig{
		ID:           "ws-test",
		Width:        16,
		Height:       16,
		TickRateHz:   60,
		StarterItems: map[string]int{"CHEST": 3},
	}, cats, flat)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	r := host.New(w, host.Config{Frame: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(NewServer(r, cfg).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type client struct {
	conn   *websocket.Conn
	events []protocol.Event
}

func dial(t *testing.T, url string) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &client{conn: conn}
}

func (c *client) send(t *testing.T, v any) {
	t.Helper()
	if err := c.conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readType reads until a message of type typ arrives. Event batches seen on
// the way are kept.
func (c *client) readType(t *testing.T, typ string, out any) {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %s: %v", typ, err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type == protocol.TypeEvents {
			var em protocol.EventsMsg
			if err := json.Unmarshal(msg, &em); err != nil {
				t.Fatalf("unmarshal events: %v", err)
			}
			c.events = append(c.events, em.Events...)
		}
		if base.Type != typ {
			continue
		}
		if err := json.Unmarshal(msg, out); err != nil {
			t.Fatalf("unmarshal %s: %v", typ, err)
		}
		return
	}
}

func (c *client) placedEvent() (protocol.Event, bool) {
	for _, e := range c.events {
		if e.Type == world.EventStructurePlaced {
			return e, true
		}
	}
	return protocol.Event{}, false
}

func (c *client) hello(t *testing.T) protocol.WelcomeMsg {
	t.Helper()
	c.send(t, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})
	var welcome protocol.WelcomeMsg
	c.readType(t, protocol.TypeWelcome, &welcome)
	return welcome
}

func cmd(id string, c protocol.Command) protocol.CmdMsg {
	return protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ReqID: id, Cmd: c}
}

func TestServer_HandshakeAndCommands(t *testing.T) {
	c := dial(t, startServer(t, Config{TuningDigest: "tune"}))

	welcome := c.hello(t)
	if welcome.SessionID == "" || welcome.WorldID != "ws-test" || welcome.WorldParams.Width != 16 {
		t.Fatalf("welcome=%+v", welcome)
	}
	if welcome.Catalogs.RecipesDigest == "" || welcome.Catalogs.TuningDigest != "tune" {
		t.Fatalf("catalogs=%+v", welcome.Catalogs)
	}
	var state protocol.StateMsg
	c.readType(t, protocol.TypeState, &state)
	if len(state.Inventory) != 1 || state.Inventory[0].Count != 3 || state.Digest == "" {
		t.Fatalf("state=%+v", state)
	}

	c.send(t, cmd("c1", protocol.Command{Kind: world.CmdPlace, Item: "CHEST", Pos: [2]int{2, 3}}))
	var ack protocol.AckMsg
	c.readType(t, protocol.TypeAck, &ack)
	if !ack.Accepted || ack.AckFor != "c1" || ack.Result == nil || ack.Result.StructureID == 0 {
		t.Fatalf("ack=%+v", ack)
	}

	c.send(t, cmd("c2", protocol.Command{Kind: world.CmdPlace, Item: "CHEST", Pos: [2]int{2, 3}}))
	ack = protocol.AckMsg{}
	c.readType(t, protocol.TypeAck, &ack)
	if ack.Accepted || ack.AckFor != "c2" || ack.Code != protocol.ErrOccupied {
		t.Fatalf("ack=%+v", ack)
	}

	c.send(t, cmd("c3", protocol.Command{Kind: "FLY"}))
	ack = protocol.AckMsg{}
	c.readType(t, protocol.TypeAck, &ack)
	if ack.Code != protocol.ErrUnknownCommand {
		t.Fatalf("ack=%+v", ack)
	}

	// The placement shows up in an event batch on a later frame.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if e, ok := c.placedEvent(); ok {
			if e.Pos != [2]int{2, 3} || e.Item != "CHEST" {
				t.Fatalf("event=%+v", e)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no STRUCTURE_PLACED event")
		}
		var ignored protocol.EventsMsg
		c.readType(t, protocol.TypeEvents, &ignored)
	}
}

func TestServer_RateLimit(t *testing.T) {
	c := dial(t, startServer(t, Config{CommandsPerSec: 0.001, CommandBurst: 2}))
	c.hello(t)

	codes := map[string]int{}
	for i := 0; i < 4; i++ {
		c.send(t, cmd(fmt.Sprint(i), protocol.Command{Kind: world.CmdRotateTool}))
		var ack protocol.AckMsg
		c.readType(t, protocol.TypeAck, &ack)
		codes[ack.Code]++
	}
	if codes[""] != 2 || codes[protocol.ErrRateLimit] != 2 {
		t.Fatalf("codes=%v", codes)
	}
}

func TestServer_RejectsBadHello(t *testing.T) {
	c := dial(t, startServer(t, Config{}))
	c.send(t, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1"})
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := c.conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.ClosePolicyViolation {
		t.Fatalf("err=%v", err)
	}
}

func TestCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("place: %w", world.ErrOccupied), protocol.ErrOccupied},
		{world.ErrOutOfBounds, protocol.ErrOutOfBounds},
		{fmt.Errorf("move: %w", world.ErrCapacityExceeded), protocol.ErrCapacityExceeded},
		{errors.New("boom"), protocol.ErrInternal},
	}
	for _, tc := range cases {
		got := CodeFor(tc.err)
		if got != tc.want {
			t.Fatalf("CodeFor(%v)=%q want %q", tc.err, got, tc.want)
		}
		if !protocol.IsKnownCode(got) {
			t.Fatalf("unknown code %q", got)
		}
	}
}
