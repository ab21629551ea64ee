package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64 `json:"seed"`
	TickRate int   `json:"tick_rate_hz"`

	Characters []CharacterV1 `json:"characters"`
	Vendors    []VendorV1    `json:"vendors"`
	Nodes      []NodeV1      `json:"nodes"`
	Pickups    []PickupV1    `json:"pickups,omitempty"`

	Counters CountersV1 `json:"counters"`
}

// CharacterV1 stores a character through its save shape, so snapshots and
// cloud saves share one format.
type CharacterV1 struct {
	ID   string             `json:"id"`
	Name string             `json:"name"`
	Pos  [2]float64         `json:"pos"`
	Save inventory.SaveData `json:"save"`
}

type VendorV1 struct {
	ID    string           `json:"id"`
	Stock []items.ItemSlot `json:"stock"`
}

type NodeV1 struct {
	ID           string  `json:"id"`
	State        string  `json:"state"`
	Progress     float64 `json:"progress"`
	RespawnTimer float64 `json:"respawn_timer"`
	AgentRef     string  `json:"agent_ref,omitempty"`
}

type PickupV1 struct {
	ID     string         `json:"id"`
	Owner  string         `json:"owner,omitempty"`
	Item   items.ItemSlot `json:"item"`
	Pos    [2]float64     `json:"pos"`
	Landed bool           `json:"landed"`
	// LandsIn is the number of steps until an airborne pickup lands.
	LandsIn int `json:"lands_in,omitempty"`
}

type CountersV1 struct {
	NextCharacter uint64 `json:"next_character"`
	NextSession   uint64 `json:"next_session"`
	NextEntity    uint64 `json:"next_entity"`
	NextPickup    uint64 `json:"next_pickup"`
	NextRoll      uint64 `json:"next_roll"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the leading JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Read header line (ignore it, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d, want %d", snap.Header.Version, Version)
	}
	return snap, nil
}
