package world

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"

type dedupeKey struct {
	CharacterID string
	CmdID       string
}

type dedupeEntry struct {
	Ack         protocol.AckMsg
	ExpiresTick uint64
}

// checkDedupe returns the remembered ACK for a command already applied
// within the TTL.
func (w *World) checkDedupe(characterID string, cmd protocol.Command, now uint64) (protocol.AckMsg, bool) {
	if cmd.ID == "" || cmd.Type.Idempotent() {
		return protocol.AckMsg{}, false
	}
	entry, ok := w.dedupe[dedupeKey{CharacterID: characterID, CmdID: cmd.ID}]
	if !ok || now >= entry.ExpiresTick {
		return protocol.AckMsg{}, false
	}
	return entry.Ack, true
}

func (w *World) rememberAck(characterID string, cmd protocol.Command, ack protocol.AckMsg, now uint64) {
	if cmd.ID == "" || cmd.Type.Idempotent() {
		return
	}
	w.dedupe[dedupeKey{CharacterID: characterID, CmdID: cmd.ID}] = dedupeEntry{
		Ack:         ack,
		ExpiresTick: now + uint64(w.tun.DedupeTTLTicks),
	}
}

func (w *World) pruneDedupe(now uint64) {
	for k, v := range w.dedupe {
		if now >= v.ExpiresTick {
			delete(w.dedupe, k)
		}
	}
}
