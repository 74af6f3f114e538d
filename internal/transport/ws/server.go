package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"gridfactory.ai/internal/logging"
	"gridfactory.ai/internal/protocol"
	"gridfactory.ai/internal/sim/host"
	"gridfactory.ai/internal/sim/world"
	"gridfactory.ai/internal/sim/world/terrain/store"
)

var log = logging.Component("ws")

// Host is the part of host.Runner the transport needs.
type Host interface {
	Submit(ctx context.Context, cmd world.Command) (host.Response, error)
	Query(ctx context.Context, fn func(*world.World)) error
	Subscribe(buf int) (<-chan host.Batch, func())
}

type Config struct {
	// CommandsPerSec and CommandBurst bound each connection's CMD rate.
	CommandsPerSec float64
	CommandBurst   int
	// TuningDigest is echoed in WELCOME so clients can detect config drift.
	TuningDigest string
}

type Server struct {
	host Host
	cfg  Config

	upgrader websocket.Upgrader
}

func NewServer(h Host, cfg Config) *Server {
	if cfg.CommandsPerSec <= 0 {
		cfg.CommandsPerSec = 20
	}
	if cfg.CommandBurst <= 0 {
		cfg.CommandBurst = 40
	}
	return &Server{
		host: h,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sessionID := s.handshake(ctx, conn)
		if sessionID == "" {
			return
		}
		slog := log.WithField("session_id", sessionID)
		slog.Info("session started")
		defer slog.Info("session ended")

		batches, unsubscribe := s.host.Subscribe(64)
		defer unsubscribe()
		out := make(chan []byte, 64)

		// Writer goroutine: the only writer once the handshake is done.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-batches:
					if !ok {
						cancel()
						return
					}
					msg, _ := json.Marshal(eventsMsg(b))
					if !s.write(conn, msg) {
						cancel()
						return
					}
				case msg := <-out:
					if !s.write(conn, msg) {
						cancel()
						return
					}
				}
			}
		}()

		limiter := rate.NewLimiter(rate.Limit(s.cfg.CommandsPerSec), s.cfg.CommandBurst)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			ack := s.handleCmd(ctx, msg, limiter)
			b, _ := json.Marshal(ack)
			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, msg) == nil
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return ""
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return ""
	}

	sessionID := uuid.NewString()
	var welcome protocol.WelcomeMsg
	var state protocol.StateMsg
	err = s.host.Query(ctx, func(w *world.World) {
		welcome = s.welcome(w, sessionID)
		state = stateMsg(w)
	})
	if err != nil {
		closeWith(conn, "world unavailable")
		return ""
	}
	if err := writeJSON(conn, welcome); err != nil {
		return ""
	}
	if err := writeJSON(conn, state); err != nil {
		return ""
	}
	log.WithFields(logrus.Fields{"session_id": sessionID, "client": hello.ClientName}).Debug("handshake ok")
	return sessionID
}

func (s *Server) welcome(w *world.World, sessionID string) protocol.WelcomeMsg {
	cfg := w.Config()
	cats := w.Catalogs()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldID:         w.ID(),
		Tick:            w.CurrentTick(),
		WorldParams: protocol.WorldParams{
			TickRateHz: cfg.TickRateHz,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Unbounded:  cfg.Unbounded,
			ChunkSize:  [2]int{store.ChunkSize, store.ChunkSize},
			Seed:       cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			ItemPalette:      protocol.DigestRef{Digest: cats.Items.PaletteDigest, Count: len(cats.Items.Palette)},
			StructuresDigest: cats.Structures.Digest,
			RecipesDigest:    cats.Recipes.Digest,
			TuningDigest:     s.cfg.TuningDigest,
		},
	}
}

func (s *Server) handleCmd(ctx context.Context, msg []byte, limiter *rate.Limiter) protocol.AckMsg {
	ack := protocol.AckMsg{Type: protocol.TypeAck, ProtocolVersion: protocol.Version}
	var cm protocol.CmdMsg
	if err := json.Unmarshal(msg, &cm); err != nil {
		ack.Code, ack.Message = protocol.ErrProtoBadRequest, "invalid CMD"
		return ack
	}
	ack.AckFor = cm.ReqID
	if cm.ProtocolVersion != protocol.Version {
		ack.Code, ack.Message = protocol.ErrProtoBadRequest, "bad protocol_version"
		return ack
	}
	if cm.Cmd.Kind == "" {
		ack.Code, ack.Message = protocol.ErrBadRequest, "missing cmd.kind"
		return ack
	}
	if !limiter.Allow() {
		ack.Code, ack.Message = protocol.ErrRateLimit, "too many commands"
		return ack
	}

	resp, err := s.host.Submit(ctx, toWorldCommand(cm.Cmd))
	if err != nil {
		ack.Code, ack.Message = protocol.ErrWorldBusy, err.Error()
		return ack
	}
	ack.ServerTick = resp.Tick
	if resp.Err != nil {
		ack.Code, ack.Message = CodeFor(resp.Err), resp.Err.Error()
		return ack
	}
	ack.Accepted = true
	ack.Result = cmdResult(resp.Result)
	return ack
}

// CodeFor maps a world error to its wire code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, world.ErrOccupied):
		return protocol.ErrOccupied
	case errors.Is(err, world.ErrOutOfBounds):
		return protocol.ErrOutOfBounds
	case errors.Is(err, world.ErrInvalidTerrain):
		return protocol.ErrInvalidTerrain
	case errors.Is(err, world.ErrUnknownKind):
		return protocol.ErrUnknownKind
	case errors.Is(err, world.ErrNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, world.ErrInvalidRecipe):
		return protocol.ErrInvalidRecipe
	case errors.Is(err, world.ErrNotRotatable):
		return protocol.ErrNotRotatable
	case errors.Is(err, world.ErrUnknownCommand):
		return protocol.ErrUnknownCommand
	case errors.Is(err, world.ErrInsufficientItems):
		return protocol.ErrInsufficientItems
	case errors.Is(err, world.ErrIncompatibleKind):
		return protocol.ErrIncompatibleKind
	case errors.Is(err, world.ErrCapacityExceeded):
		return protocol.ErrCapacityExceeded
	default:
		return protocol.ErrInternal
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
