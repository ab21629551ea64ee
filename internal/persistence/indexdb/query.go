package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

// Reader runs the admin queries against an index written by SQLiteIndex.
type Reader struct {
	db *sql.DB
}

func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

type TickRange struct {
	First, Last uint64
	Count       int
}

func (r *Reader) Ticks(ctx context.Context) (TickRange, error) {
	var tr TickRange
	var first, last sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MIN(tick), MAX(tick), COUNT(*) FROM ticks`).Scan(&first, &last, &tr.Count)
	if err != nil {
		return tr, err
	}
	tr.First, tr.Last = uint64(first.Int64), uint64(last.Int64)
	return tr, nil
}

// DigestAt returns the recorded state digest of one tick.
func (r *Reader) DigestAt(ctx context.Context, tick uint64) (string, bool, error) {
	var d string
	err := r.db.QueryRowContext(ctx, `SELECT digest FROM ticks WHERE tick=?`, int64(tick)).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	return d, err == nil, err
}

type CommandRow struct {
	Tick      uint64
	SessionID string
	Cmd       protocol.Command
}

// Commands lists the newest commands of a character, newest first.
func (r *Reader) Commands(ctx context.Context, characterID string, limit int) ([]CommandRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tick, session_id, cmd_json FROM commands WHERE character_id=? ORDER BY tick DESC, seq DESC LIMIT ?`,
		characterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommandRow
	for rows.Next() {
		var (
			c    CommandRow
			tick int64
			raw  string
		)
		if err := rows.Scan(&tick, &c.SessionID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &c.Cmd); err != nil {
			return nil, err
		}
		c.Tick = uint64(tick)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Audits lists the newest audit entries of an actor, newest first.
func (r *Reader) Audits(ctx context.Context, actor string, limit int) ([]world.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT raw_json FROM audits WHERE actor=? ORDER BY tick DESC, seq DESC LIMIT ?`, actor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []world.AuditEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e world.AuditEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type SnapshotRow struct {
	Tick       uint64
	Path       string
	Characters int
}

func (r *Reader) Snapshots(ctx context.Context) ([]SnapshotRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tick, path, characters FROM snapshots ORDER BY tick`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotRow
	for rows.Next() {
		var (
			s    SnapshotRow
			tick int64
		)
		if err := rows.Scan(&tick, &s.Path, &s.Characters); err != nil {
			return nil, err
		}
		s.Tick = uint64(tick)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Save returns the last indexed save of a character.
func (r *Reader) Save(ctx context.Context, characterID string) (inventory.SaveData, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT raw_json FROM saves WHERE character_id=?`, characterID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.SaveData{}, false, nil
	}
	if err != nil {
		return inventory.SaveData{}, false, err
	}
	var d inventory.SaveData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return d, false, err
	}
	return d, true, nil
}
