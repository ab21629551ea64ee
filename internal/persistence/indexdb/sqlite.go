// Package indexdb keeps a queryable SQLite copy of the tick log, the audit
// log, snapshots and stored saves. The JSONL logs stay the source of truth;
// the index may drop rows when it falls behind.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/snapshot"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

const schemaVersion = "1"

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
	reqSave
	reqSync
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	audit    world.AuditEntry
	snapshot snapshotRow
	save     inventory.SaveData
	done     chan struct{}
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Seed       int64
	Characters int
	Vendors    int
	Nodes      int
	Pickups    int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			joins INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			commands INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS joins (
			tick INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			character_id TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (tick, session_id)
		);`,
		`CREATE TABLE IF NOT EXISTS leaves (
			tick INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			PRIMARY KEY (tick, session_id)
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			character_id TEXT NOT NULL,
			cmd_id TEXT NOT NULL,
			type TEXT NOT NULL,
			cmd_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_character_tick ON commands(character_id, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			slot_index INTEGER NOT NULL,
			from_def INTEGER NOT NULL,
			from_qty INTEGER NOT NULL,
			to_def INTEGER NOT NULL,
			to_qty INTEGER NOT NULL,
			gold_from INTEGER NOT NULL,
			gold_to INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			characters INTEGER NOT NULL,
			vendors INTEGER NOT NULL,
			nodes INTEGER NOT NULL,
			pickups INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			character_id TEXT PRIMARY KEY,
			gold INTEGER NOT NULL,
			items INTEGER NOT NULL,
			weapon_slot INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped counts requests discarded because the writer fell behind.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// Sync waits until everything queued so far is committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	s.enqueue(req{kind: reqTick, tick: entry})
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	s.enqueue(req{kind: reqAudit, audit: entry})
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	s.enqueue(req{kind: reqSnapshot, snapshot: snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Seed:       snap.Seed,
		Characters: len(snap.Characters),
		Vendors:    len(snap.Vendors),
		Nodes:      len(snap.Nodes),
		Pickups:    len(snap.Pickups),
	}})
}

func (s *SQLiteIndex) RecordSave(d inventory.SaveData) {
	s.enqueue(req{kind: reqSave, save: d})
}

// UpsertCatalogs stores the raw catalog files with their digests and the
// tuning actually applied.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	read := func(name, file, digest string) {
		if configDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil || len(b) == 0 {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	read("items", "items.json", cats.Items.Digest)
	read("recipes", "recipes.json", cats.Recipes.Digest)
	read("resources", "resources.json", cats.Resources.Digest)
	read("vendors", "vendors.json", cats.Vendors.Digest)

	if b, err := json.Marshal(tune); err == nil {
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type statements struct {
	tick, join, leave, command, audit, snapshot, save *sql.Stmt
}

func (s *SQLiteIndex) prepare() (statements, error) {
	var st statements
	var err error
	prep := func(dst **sql.Stmt, q string) {
		if err != nil {
			return
		}
		*dst, err = s.db.Prepare(q)
	}
	prep(&st.tick, `INSERT OR REPLACE INTO ticks(tick,digest,joins,leaves,commands,raw_json) VALUES(?,?,?,?,?,?)`)
	prep(&st.join, `INSERT OR REPLACE INTO joins(tick,session_id,character_id,name) VALUES(?,?,?,?)`)
	prep(&st.leave, `INSERT OR REPLACE INTO leaves(tick,session_id) VALUES(?,?)`)
	prep(&st.command, `INSERT OR REPLACE INTO commands(tick,seq,session_id,character_id,cmd_id,type,cmd_json) VALUES(?,?,?,?,?,?,?)`)
	prep(&st.audit, `INSERT OR REPLACE INTO audits(tick,seq,actor,action,slot_index,from_def,from_qty,to_def,to_qty,gold_from,gold_to,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	prep(&st.snapshot, `INSERT OR REPLACE INTO snapshots(tick,path,seed,characters,vendors,nodes,pickups) VALUES(?,?,?,?,?,?,?)`)
	prep(&st.save, `INSERT OR REPLACE INTO saves(character_id,gold,items,weapon_slot,raw_json,updated_at) VALUES(?,?,?,?,?,?)`)
	return st, err
}

func (st statements) close() {
	for _, p := range []*sql.Stmt{st.tick, st.join, st.leave, st.command, st.audit, st.snapshot, st.save} {
		if p != nil {
			_ = p.Close()
		}
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	st, err := s.prepare()
	defer st.close()
	if err != nil {
		// Nothing can be written; keep draining so producers never block.
		for r := range s.ch {
			if r.done != nil {
				close(r.done)
			}
		}
		return
	}

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(stmt *sql.Stmt, args ...any) bool {
		if tx == nil {
			return false
		}
		if _, err := tx.Stmt(stmt).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			b, _ := json.Marshal(e)
			if !exec(st.tick, int64(e.Tick), e.Digest, len(e.Joins), len(e.Leaves), len(e.Commands), string(b)) {
				continue
			}
			for _, j := range e.Joins {
				if !exec(st.join, int64(e.Tick), j.SessionID, j.CharacterID, j.Name) {
					break
				}
			}
			for _, id := range e.Leaves {
				if !exec(st.leave, int64(e.Tick), id) {
					break
				}
			}
			for i, c := range e.Commands {
				cmdJSON, _ := json.Marshal(c.Cmd)
				if !exec(st.command, int64(e.Tick), i, c.SessionID, c.Cmd.CharacterID, c.Cmd.ID, string(c.Cmd.Type), string(cmdJSON)) {
					break
				}
			}

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			exec(st.audit,
				int64(a.Tick), seq, a.Actor, a.Action, a.Index,
				a.From.DefinitionID, int(a.From.Quantity),
				a.To.DefinitionID, int(a.To.Quantity),
				a.GoldFrom, a.GoldTo, a.Reason, string(raw),
			)

		case reqSnapshot:
			sn := r.snapshot
			exec(st.snapshot, int64(sn.Tick), sn.Path, sn.Seed, sn.Characters, sn.Vendors, sn.Nodes, sn.Pickups)

		case reqSave:
			d := r.save
			raw, _ := json.Marshal(d)
			exec(st.save, d.CharacterID, d.Gold, countItems(d), d.CurrentWeaponSlot, string(raw), time.Now().UTC().Format(time.RFC3339Nano))
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func countItems(d inventory.SaveData) int {
	n := 0
	for _, it := range d.Inventory {
		n += int(it.Quantity)
	}
	for _, it := range d.Bags {
		n += int(it.Quantity)
	}
	for _, it := range d.Hotbar {
		n += int(it.Quantity)
	}
	for _, sp := range d.Special {
		n += int(sp.Item.Quantity)
	}
	return n
}

// SaveRecorder passes saves through to Store and indexes each one that was
// stored.
type SaveRecorder struct {
	Store world.SaveStore
	Index *SQLiteIndex
}

func (r SaveRecorder) Load(characterID string) (inventory.SaveData, bool, error) {
	return r.Store.Load(characterID)
}

func (r SaveRecorder) Save(d inventory.SaveData) error {
	if err := r.Store.Save(d); err != nil {
		return err
	}
	r.Index.RecordSave(d)
	return nil
}
