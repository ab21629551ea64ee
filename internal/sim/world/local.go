package world

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"

// LocalSender delivers proxy commands of an in-process peer to the inbox
// under the given session.
type LocalSender struct {
	World     *World
	SessionID string
}

func (s LocalSender) Send(cmd protocol.Command) error {
	select {
	case s.World.inbox <- CommandEnvelope{SessionID: s.SessionID, Cmd: cmd}:
		return nil
	default:
		return ErrInboxFull
	}
}

// DrainInbox removes everything queued on the inbox. Tests and tools that
// drive the world with StepOnce use it to collect LocalSender traffic.
func (w *World) DrainInbox() []CommandEnvelope {
	var out []CommandEnvelope
	for {
		select {
		case env := <-w.inbox:
			out = append(out, env)
		default:
			return out
		}
	}
}
