package inventory

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

type FishingPhase uint8

const (
	FishingInactive FishingPhase = iota
	FishingReady
	FishingCasting
	FishingLureInFlight
	FishingWaiting
	FishingFighting
)

var fishingNames = [...]string{
	FishingInactive:     "INACTIVE",
	FishingReady:        "READY",
	FishingCasting:      "CASTING",
	FishingLureInFlight: "LURE_IN_FLIGHT",
	FishingWaiting:      "WAITING",
	FishingFighting:     "FIGHTING",
}

func (p FishingPhase) String() string {
	if int(p) < len(fishingNames) {
		return fishingNames[p]
	}
	return "UNKNOWN"
}

func ParseFishingPhase(s string) FishingPhase {
	for i, n := range fishingNames {
		if n == s {
			return FishingPhase(i)
		}
	}
	return FishingInactive
}

// FishingState is the replicated fishing lifecycle. HitsSucceeded and InZone
// may hold an optimistic proxy echo and are display only.
type FishingState struct {
	Phase         FishingPhase
	HitsSucceeded int
	HitsRequired  int
	InZone        bool
}

type fishingState struct {
	FishingState
	// timer counts down the current timed phase in ticks.
	timer int
	// biting is set once the bite timer in Waiting has run out; the hook
	// must be set before the window closes.
	biting bool
}

func (inv *Inventory) Fishing() FishingState { return inv.fishing.FishingState }

// ToggleFishingPole raises the fishing pole, or lowers it if raised.
func (inv *Inventory) ToggleFishingPole() ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdToggleFishingPole})
	}
	if inv.active == items.CategoryFishingPole {
		inv.endToolUse(items.CategoryFishingPole, true)
		return StatusOK
	}
	if st := inv.BeginToolUse(items.CategoryFishingPole); st != StatusOK {
		return st
	}
	inv.fishing = fishingState{FishingState: FishingState{Phase: FishingReady}}
	return StatusOK
}

// CastLure starts a cast from Ready.
func (inv *Inventory) CastLure() ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdCastLure})
	}
	if inv.fishing.Phase != FishingReady {
		return StatusInvalidState
	}
	inv.fishing.Phase = FishingCasting
	inv.fishing.timer = inv.fishingCfg.CastTicks
	return StatusOK
}

// SubmitHookSetResult resolves the hook-set minigame while a fish bites.
func (inv *Inventory) SubmitHookSetResult(success bool) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdHookSetResult, Success: success})
	}
	if inv.fishing.Phase != FishingWaiting || !inv.fishing.biting {
		return StatusInvalidState
	}
	if !success {
		inv.resetFishing()
		return StatusOK
	}
	inv.fishing = fishingState{FishingState: FishingState{
		Phase:        FishingFighting,
		HitsRequired: inv.fishingCfg.HitsRequired,
	}}
	return StatusOK
}

// SetHookSetZone reports whether the hook-set cursor is inside the zone. A
// proxy applies it locally at once and also forwards it.
func (inv *Inventory) SetHookSetZone(inZone bool) ItemStatus {
	inv.fishing.InZone = inZone
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdHookSetZone, InZone: inZone})
	}
	return StatusOK
}

// SubmitFightingProgress records minigame hits. A proxy applies it locally
// at once and also forwards it; the authority clamps to its own requirement.
func (inv *Inventory) SubmitFightingProgress(succeeded, required int) ItemStatus {
	if succeeded < 0 || required < 0 {
		return StatusInvalidQuantity
	}
	if !inv.IsAuthority() {
		if inv.fishing.Phase == FishingFighting {
			inv.fishing.HitsSucceeded = succeeded
			inv.fishing.HitsRequired = required
		}
		return inv.request(protocol.Command{
			Type: protocol.CmdFightingProgress, Succeeded: succeeded, Required: required,
		})
	}
	if inv.fishing.Phase != FishingFighting {
		return StatusInvalidState
	}
	inv.fishing.HitsSucceeded = min(succeeded, inv.fishing.HitsRequired)
	return StatusOK
}

// SubmitFightingResult ends the fight. The catch is granted only when the
// authority's own progress reached the requirement.
func (inv *Inventory) SubmitFightingResult(success bool) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdFightingResult, Success: success})
	}
	if inv.fishing.Phase != FishingFighting {
		return StatusInvalidState
	}
	won := success && inv.fishing.HitsRequired > 0 && inv.fishing.HitsSucceeded >= inv.fishing.HitsRequired
	inv.resetFishing()
	if won && inv.fishingCfg.CatchItem != 0 {
		inv.GiveOrDrop(inv.fishingCfg.CatchItem, max(1, inv.fishingCfg.CatchCount), items.ConfigHash{})
	}
	return StatusOK
}

func (inv *Inventory) resetFishing() {
	inv.fishing = fishingState{FishingState: FishingState{Phase: FishingReady}}
}

// stepFishing advances the timed phases by one tick.
func (inv *Inventory) stepFishing() {
	f := &inv.fishing
	if f.Phase != FishingInactive && inv.active != items.CategoryFishingPole {
		inv.fishing = fishingState{}
		return
	}
	switch f.Phase {
	case FishingCasting, FishingLureInFlight, FishingWaiting:
	default:
		return
	}
	if f.timer > 0 {
		f.timer--
	}
	if f.timer > 0 {
		return
	}
	switch f.Phase {
	case FishingCasting:
		f.Phase = FishingLureInFlight
		f.timer = inv.fishingCfg.LureFlightTicks
	case FishingLureInFlight:
		f.Phase = FishingWaiting
		f.timer = inv.fishingCfg.BiteTicks
	case FishingWaiting:
		if f.biting {
			// The fish got away.
			inv.resetFishing()
			return
		}
		f.biting = true
		f.timer = inv.fishingCfg.BiteTicks
	}
}

// Biting reports whether the hook can be set right now.
func (inv *Inventory) Biting() bool {
	return inv.fishing.Phase == FishingWaiting && inv.fishing.biting
}
