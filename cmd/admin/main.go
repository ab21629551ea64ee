package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	persistlog "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/log"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/snapshot"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "rollback":
			rollbackCmd(os.Args[2:])
			return
		case "item":
			itemCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// itemCmd looks up item definitions by name, suggesting close names on a miss.
func itemCmd(args []string) {
	fs := flag.NewFlagSet("item", flag.ExitOnError)
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: admin item [-configs DIR] NAME...")
		os.Exit(2)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	missing := false
	for _, name := range fs.Args() {
		def, ok, suggestions := lookupItem(&cats.Items, name)
		if ok {
			printJSON(def)
			continue
		}
		missing = true
		if len(suggestions) > 0 {
			fmt.Fprintf(os.Stderr, "unknown item %q; did you mean %s?\n", name, strings.Join(suggestions, ", "))
		} else {
			fmt.Fprintf(os.Stderr, "unknown item %q\n", name)
		}
	}
	if missing {
		os.Exit(1)
	}
}

func lookupItem(c *catalogs.ItemCatalog, name string) (def any, ok bool, suggestions []string) {
	if id, err := strconv.Atoi(name); err == nil {
		if d, ok := c.Definition(id); ok {
			return d, true, nil
		}
	}
	if d, ok := c.ByNameFold(name); ok {
		return d, true, nil
	}
	return nil, false, c.Suggest(name, 3)
}

// rollbackCmd reverts one character's slot and gold changes recorded in the
// audit log since a tick, writing a new snapshot the server can resume from.
func rollbackCmd(args []string) {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path to rollback from (optional; defaults to latest)")
	character := fs.String("character", "", "character id (required)")
	sinceTick := fs.Uint64("since_tick", 0, "rollback changes since tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "rollback changes up to tick (inclusive, optional; defaults to snapshot tick)")
	outPath := fs.String("out", "", "output snapshot path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	if strings.TrimSpace(*character) == "" {
		fmt.Fprintln(os.Stderr, "missing -character")
		os.Exit(2)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" {
		snapshotToLoad = latestSnapshot(worldDir)
	}
	if snapshotToLoad == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(snapshotToLoad)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	endTick := *toTick
	if endTick == 0 || endTick > snap.Header.Tick {
		endTick = snap.Header.Tick
	}

	recs, err := readAudit(filepath.Join(worldDir, "audit"), *character, *sinceTick, endTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("no matching audit entries; nothing to rollback")
		return
	}

	applied, skipped := applyRollback(&snap, *character, recs)

	if strings.TrimSpace(*outPath) == "" {
		*outPath = filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.rollback.snap.zst", snap.Header.Tick))
	}
	if err := snapshot.WriteSnapshot(*outPath, snap); err != nil {
		fmt.Fprintln(os.Stderr, "write snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("rollback ok: snapshot=%s tick=%d character=%s since=%d to=%d entries=%d applied=%d skipped=%d out=%s\n",
		filepath.Base(snapshotToLoad), snap.Header.Tick, *character, *sinceTick, endTick, len(recs), applied, skipped, *outPath)
}

type auditRec struct {
	Seq   uint64
	Entry world.AuditEntry
}

// readAudit returns the character's SLOT and GOLD entries in the tick range,
// newest first.
func readAudit(dir, character string, sinceTick, toTick uint64) ([]auditRec, error) {
	var (
		out []auditRec
		seq uint64
	)
	err := persistlog.EachAudit(dir, func(e world.AuditEntry) error {
		seq++
		if e.Actor != character || (e.Action != "SLOT" && e.Action != "GOLD") {
			return nil
		}
		if e.Tick < sinceTick || e.Tick > toTick {
			return nil
		}
		out = append(out, auditRec{Seq: seq, Entry: e})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reverse chronological apply: highest tick first; for same tick use reverse read order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entry.Tick != out[j].Entry.Tick {
			return out[i].Entry.Tick > out[j].Entry.Tick
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

func applyRollback(snap *snapshot.SnapshotV1, character string, recs []auditRec) (applied, skipped int) {
	if snap == nil || len(recs) == 0 {
		return 0, 0
	}
	var save *inventory.SaveData
	for i := range snap.Characters {
		if snap.Characters[i].ID == character {
			save = &snap.Characters[i].Save
			break
		}
	}
	if save == nil {
		return 0, len(recs)
	}

	for _, r := range recs {
		e := r.Entry
		if e.Action == "GOLD" {
			save.Gold = e.GoldFrom
			applied++
			continue
		}
		ref, ok := inventory.Resolve(e.Index)
		if !ok {
			skipped++
			continue
		}
		var slot *items.ItemSlot
		switch ref.Kind {
		case inventory.KindGeneral:
			if ref.N < len(save.Inventory) {
				slot = &save.Inventory[ref.N]
			}
		case inventory.KindBag:
			if ref.N < len(save.Bags) {
				slot = &save.Bags[ref.N]
			}
		case inventory.KindHotbar:
			// Hotbar slot 0 is the unarmed slot and is not saved.
			if ref.N >= 1 && ref.N-1 < len(save.Hotbar) {
				slot = &save.Hotbar[ref.N-1]
			}
		case inventory.KindSpecial:
			if ref.N < len(save.Special) {
				slot = &save.Special[ref.N].Item
			}
		}
		if slot == nil {
			skipped++
			continue
		}
		*slot = e.From
		applied++
	}
	return applied, skipped
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
