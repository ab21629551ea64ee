package items

import (
	"crypto/sha256"
	"encoding/binary"
)

// DeriveHash deterministically generates a configuration hash. The same
// (seed, tick, serial) always yields the same hash so replays stay in step.
func DeriveHash(seed int64, tick uint64, serial uint64, def int) ConfigHash {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:16], tick)
	binary.LittleEndian.PutUint64(buf[16:24], serial)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(def))
	sum := sha256.Sum256(buf[:])
	var h ConfigHash
	copy(h[:], sum[:ConfigHashSize])
	if h.IsZero() {
		h[0] = 1
	}
	return h
}

// Roll decodes stat number stat from the hash into [-1, 1].
// A zero hash always rolls 0.
func Roll(h ConfigHash, stat int) float64 {
	if h.IsZero() {
		return 0
	}
	off := (stat * 2) % (ConfigHashSize - 1)
	v := binary.LittleEndian.Uint16(h[off : off+2])
	return float64(v)/32767.5 - 1
}
