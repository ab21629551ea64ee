package main

import (
	"fmt"

	persistlog "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/log"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

type result struct {
	Stepped uint64
	Checked uint64
}

// replayTicks steps w through the tick log in ticksDir and compares every
// digest from verifyFrom on. toTick 0 means the end of the log.
func replayTicks(w *world.World, ticksDir string, verifyFrom, toTick uint64) (result, error) {
	var res result
	startTick := w.CurrentTick()
	err := persistlog.EachTick(ticksDir, func(entry world.TickLogEntry) (bool, error) {
		if entry.Tick < startTick {
			return true, nil
		}
		if toTick != 0 && entry.Tick > toTick {
			return false, nil
		}
		if entry.Tick != w.CurrentTick() {
			return false, fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}

		joins := make([]world.JoinRequest, 0, len(entry.Joins))
		for _, j := range entry.Joins {
			joins = append(joins, world.JoinRequest{SessionID: j.SessionID, CharacterID: j.CharacterID, Name: j.Name})
		}
		cmds := make([]world.CommandEnvelope, 0, len(entry.Commands))
		for _, rc := range entry.Commands {
			cmds = append(cmds, world.CommandEnvelope{SessionID: rc.SessionID, Cmd: rc.Cmd})
		}

		tick, got := w.StepOnce(joins, entry.Leaves, cmds)
		if tick != entry.Tick {
			return false, fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
		}
		res.Stepped++
		if tick >= verifyFrom {
			res.Checked++
			if got != entry.Digest {
				return false, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, entry.Digest)
			}
		}
		return true, nil
	})
	return res, err
}
