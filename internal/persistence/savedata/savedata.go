// Package savedata stores character inventories as opaque compressed blobs.
package savedata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
)

var ErrBadKey = errors.New("savedata: bad key")

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// Encode turns a save into the blob handed to a BlobStore.
func Encode(s inventory.SaveData) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode save: %w", err)
	}
	return encoder.EncodeAll(b, nil), nil
}

func Decode(blob []byte) (inventory.SaveData, error) {
	var s inventory.SaveData
	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return s, fmt.Errorf("decompress save: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("decode save: %w", err)
	}
	if s.Version != inventory.SaveVersion {
		return s, fmt.Errorf("save version %d, want %d", s.Version, inventory.SaveVersion)
	}
	return s, nil
}

// BlobStore keeps opaque bytes by key.
type BlobStore interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, blob []byte) error
}

// Store adapts a BlobStore to the world's save collaborator.
type Store struct {
	Blobs BlobStore
}

func (s Store) Load(characterID string) (inventory.SaveData, bool, error) {
	blob, ok, err := s.Blobs.Get(characterID)
	if err != nil || !ok {
		return inventory.SaveData{}, false, err
	}
	d, err := Decode(blob)
	if err != nil {
		return inventory.SaveData{}, false, fmt.Errorf("%s: %w", characterID, err)
	}
	return d, true, nil
}

func (s Store) Save(d inventory.SaveData) error {
	blob, err := Encode(d)
	if err != nil {
		return err
	}
	return s.Blobs.Put(d.CharacterID, blob)
}

type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *MemoryStore) Put(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// DirStore keeps one <key>.save.zst file per key.
type DirStore struct {
	Dir string
}

func (d DirStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return filepath.Join(d.Dir, key+".save.zst"), nil
}

func (d DirStore) Get(key string) ([]byte, bool, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Put writes through a temp file so a crash never leaves a torn save.
func (d DirStore) Put(key string, blob []byte) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Keys lists stored keys in directory order.
func (d DirStore) Keys() ([]string, error) {
	ents, err := os.ReadDir(d.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if name, ok := strings.CutSuffix(e.Name(), ".save.zst"); ok && !e.IsDir() {
			out = append(out, name)
		}
	}
	return out, nil
}
