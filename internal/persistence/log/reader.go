package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

// ListFiles returns prefix-*.jsonl.zst files in dir in name order.
func ListFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// EachLine calls fn for every line of a JSONL zstd file. fn returning
// false stops the scan.
func EachLine(path string, fn func(line []byte) (bool, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		more, err := fn(sc.Bytes())
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if !more {
			return nil
		}
	}
	return sc.Err()
}

// EachTick walks every tick entry under dir in tick order.
func EachTick(dir string, fn func(world.TickLogEntry) (bool, error)) error {
	files, err := ListFiles(dir, "ticks")
	if err != nil {
		return err
	}
	for _, path := range files {
		stop := false
		err := EachLine(path, func(line []byte) (bool, error) {
			var e world.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return false, fmt.Errorf("unmarshal: %w", err)
			}
			more, err := fn(e)
			stop = !more
			return more, err
		})
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// EachAudit walks every audit entry under dir.
func EachAudit(dir string, fn func(world.AuditEntry) error) error {
	files, err := ListFiles(dir, "audit")
	if err != nil {
		return err
	}
	for _, path := range files {
		err := EachLine(path, func(line []byte) (bool, error) {
			var e world.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return false, fmt.Errorf("unmarshal: %w", err)
			}
			return true, fn(e)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
