package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

const outQueue = 64

type Server struct {
	world  *world.World
	log    *log.Logger
	limits tuning.RateLimits

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		world:  w,
		log:    logger,
		limits: w.Tuning().RateLimits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.limits.CommandsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(s.limits.CommandsPerSecond), max(s.limits.Burst, 1))
}

// restoreWindow admits the slot sets and the finalize of one restore
// without spending rate tokens. BEGIN_RESTORE itself pays a token and opens
// the window for at most inventory.RestoreCommandLimit commands.
type restoreWindow struct {
	left int
}

func (r *restoreWindow) admit(t protocol.CommandType) bool {
	switch t {
	case protocol.CmdSetInventorySlot, protocol.CmdSetBagSlot, protocol.CmdSetHotbarSlot, protocol.CmdSetSpecialSlot:
		if r.left > 1 {
			r.left--
			return true
		}
	case protocol.CmdFinalizeRestore:
		if r.left > 0 {
			r.left = 0
			return true
		}
	case protocol.CmdBeginRestore:
		r.left = 0
	}
	return false
}

func (r *restoreWindow) open() { r.left = inventory.RestoreCommandLimit }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		limiter := s.newLimiter()
		var restore restoreWindow

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeCmd {
				continue
			}
			var cm protocol.CmdMsg
			if err := json.Unmarshal(msg, &cm); err != nil {
				continue
			}
			if cm.ProtocolVersion != protocol.Version {
				reject(out, cm.Cmd.ID, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			if !restore.admit(cm.Cmd.Type) {
				if !limiter.Allow() {
					reject(out, cm.Cmd.ID, protocol.ErrRateLimit, "too many commands")
					continue
				}
				if cm.Cmd.Type == protocol.CmdBeginRestore {
					restore.open()
				}
			}
			select {
			case s.world.Inbox() <- world.CommandEnvelope{SessionID: sessionID, Cmd: cm.Cmd}:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		s.world.Leave() <- sessionID
		s.log.Printf("session %s closed", sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if hello.PeerName == "" {
		hello.PeerName = "peer"
	}

	out = make(chan []byte, outQueue)
	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{
		SessionID:   uuid.NewString(),
		Name:        hello.PeerName,
		CharacterID: strings.TrimSpace(hello.CharacterID),
		Out:         out,
		Resp:        respCh,
	}
	resp := <-respCh
	if resp.Code != "" {
		closeWith(conn, resp.Code)
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- resp.Welcome.SessionID
		return "", nil
	}
	return resp.Welcome.SessionID, out
}

// reject answers a command the transport refused before it reached the
// world. The queue is shared with the world, so a full queue drops it.
func reject(out chan []byte, cmdID, code, msg string) {
	b, err := json.Marshal(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          cmdID,
		Code:            code,
		Message:         msg,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
