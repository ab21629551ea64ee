package world

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/snapshot"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/resources"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/vendor"
)

var ErrInboxFull = errors.New("world inbox full")

// World is the single-threaded authority. All state must be accessed only
// from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	tun      tuning.Tuning
	catalogs *catalogs.Catalogs
	registry *items.Registry
	log      *log.Logger

	tick atomic.Uint64

	characters map[string]*Character
	sessions   map[string]*session

	vendors     map[string]*vendor.Vendor
	vendorOrder []string
	nodes       map[string]*resources.Node
	nodeOrder   []string
	pickups     map[string]*Pickup
	entities    map[inventory.EntityID]entityRecord

	deferred replication.DeferredQueue
	dedupe   map[dedupeKey]dedupeEntry

	inbox chan CommandEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextCharacterNum atomic.Uint64
	nextSessionNum   atomic.Uint64
	nextEntityNum    atomic.Uint64
	nextPickupNum    atomic.Uint64
	nextRollNum      atomic.Uint64

	tuningDigest string

	// Optional collaborators (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger
	saves       SaveStore

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	accepted uint64
	rejected uint64
	metrics  atomic.Value // WorldMetrics
}

type session struct {
	ID          string
	CharacterID string
	Out         chan []byte
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, logger *log.Logger) (*World, error) {
	if cats == nil {
		return nil, errors.New("world: nil catalogs")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	reg := items.NewRegistry()
	if err := items.RegisterDefinitions(reg, cats.Items.Ordered); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	tb, _ := json.Marshal(cfg.Tuning)
	sum := sha256.Sum256(tb)

	w := &World{
		cfg:          cfg,
		tun:          cfg.Tuning,
		catalogs:     cats,
		registry:     reg,
		log:          logger,
		characters:   map[string]*Character{},
		sessions:     map[string]*session{},
		vendors:      map[string]*vendor.Vendor{},
		nodes:        map[string]*resources.Node{},
		pickups:      map[string]*Pickup{},
		entities:     map[inventory.EntityID]entityRecord{},
		dedupe:       map[dedupeKey]dedupeEntry{},
		inbox:        make(chan CommandEnvelope, 1024),
		join:         make(chan JoinRequest, 64),
		leave:        make(chan string, 64),
		stop:         make(chan struct{}),
		tuningDigest: hex.EncodeToString(sum[:]),
	}
	for _, def := range cats.Vendors.Vendors {
		w.vendors[def.ID] = vendor.New(def, &cats.Items, replication.RoleAuthority)
		w.vendorOrder = append(w.vendorOrder, def.ID)
	}
	for _, def := range cats.Resources.Nodes {
		n := resources.NewNode(def, replication.RoleAuthority)
		n.ToolMultiplier = cfg.Tuning.Resources.ToolSpeedMultiplier
		n.Resolve = w.resolveAgent
		w.nodes[def.ID] = n
		w.nodeOrder = append(w.nodeOrder, def.ID)
	}
	sort.Strings(w.vendorOrder)
	sort.Strings(w.nodeOrder)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSaveStore(s SaveStore)                      { w.saves = s }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- CommandEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest      { return w.join }
func (w *World) Leave() chan<- string          { return w.leave }

func (w *World) ID() string                   { return w.cfg.ID }
func (w *World) CurrentTick() uint64          { return w.tick.Load() }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }
func (w *World) Tuning() tuning.Tuning        { return w.tun }

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingCommands []CommandEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return ctx.Err()
		case <-w.stop:
			w.shutdown()
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingCommands = append(pendingCommands, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingCommands)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingCommands = pendingCommands[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// shutdown stores every connected character.
func (w *World) shutdown() {
	for _, ch := range w.sortedCharacters() {
		w.persist(ch)
	}
}

func (w *World) step(joins []JoinRequest, leaves []string, cmds []CommandEnvelope) string {
	started := time.Now()
	nowTick := w.tick.Load()

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if w.handleLeave(id) {
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp := w.handleJoin(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
		if resp.Code == "" {
			recordedJoins = append(recordedJoins, RecordedJoin{
				SessionID:   resp.Welcome.SessionID,
				CharacterID: resp.Welcome.CharacterID,
				Name:        req.Name,
			})
		}
	}

	w.pruneDedupe(nowTick)

	// Apply commands in receive order (the inbox order).
	recorded := make([]RecordedCommand, 0, len(cmds))
	for _, env := range cmds {
		if _, ok := w.sessions[env.SessionID]; !ok {
			continue
		}
		recorded = append(recorded, RecordedCommand{SessionID: env.SessionID, Cmd: env.Cmd})
		w.handleCommand(env, nowTick)
	}

	// Systems: inventories -> nodes -> deferred (pickup landing).
	for _, ch := range w.sortedCharacters() {
		ch.Inv.Tick(nowTick)
	}
	w.systemNodes()
	w.deferred.Drain()

	for _, ch := range w.sortedCharacters() {
		ch.Inv.Observe()
	}

	st := w.buildState(nowTick)
	if b, err := json.Marshal(st); err == nil {
		for _, id := range w.sortedSessionIDs() {
			sendLatest(w.sessions[id].Out, b)
		}
	}

	digest := digestState(st)
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Joins: recordedJoins, Leaves: recordedLeaves, Commands: recorded, Digest: digest}); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}

	every := uint64(w.tun.SnapshotEveryTicks)
	if w.snapshotSink != nil && every > 0 && nowTick != 0 && nowTick%every == 0 {
		snap := w.ExportSnapshot(nowTick)
		select {
		case w.snapshotSink <- snap:
		default:
			// Drop snapshot if sink is backed up.
		}
	}

	w.publishMetrics(nowTick, started)
	w.tick.Add(1)
	return digest
}

// StepOnce advances the world by a single tick using the same ordering
// semantics as Run. It is intended for deterministic replays and tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, cmds []CommandEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	return tick, w.step(joins, leaves, cmds)
}

func (w *World) handleJoin(req JoinRequest) JoinResponse {
	sid := req.SessionID
	if sid == "" {
		sid = fmt.Sprintf("S%d", w.nextSessionNum.Add(1))
	}
	if _, ok := w.sessions[sid]; ok {
		return JoinResponse{Code: protocol.ErrBadRequest, Message: "session already joined"}
	}

	ch := w.characters[req.CharacterID]
	switch {
	case ch != nil && ch.Session != "":
		return JoinResponse{Code: protocol.ErrWorldBusy, Message: "character already controlled"}
	case ch == nil:
		id := req.CharacterID
		if id == "" {
			id = fmt.Sprintf("C%d", w.nextCharacterNum.Add(1))
		}
		ch = w.spawnCharacter(id, req.Name)
	}
	ch.Session = sid
	w.sessions[sid] = &session{ID: sid, CharacterID: ch.ID, Out: req.Out}
	w.log.Printf("join session=%s character=%s", sid, ch.ID)
	return JoinResponse{Welcome: w.welcome(sid, ch.ID)}
}

func (w *World) handleLeave(sessionID string) bool {
	s, ok := w.sessions[sessionID]
	if !ok {
		return false
	}
	delete(w.sessions, sessionID)
	if ch := w.characters[s.CharacterID]; ch != nil {
		w.removeCharacter(ch)
	}
	w.log.Printf("leave session=%s character=%s", sessionID, s.CharacterID)
	return true
}

func (w *World) welcome(sessionID, characterID string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		CharacterID:     characterID,
		WorldParams: protocol.WorldParams{
			TickRateHz:       w.tun.TickRateHz,
			Seed:             w.cfg.Seed,
			BaseGeneralSlots: inventory.BaseGeneralSlots,
			MaxGeneralSlots:  inventory.MaxGeneralSlots,
			BagSlots:         inventory.BagSlots,
			HotbarSlots:      inventory.HotbarSlots,
		},
		Catalogs: protocol.CatalogDigests{
			ItemsDigest:     w.catalogs.Items.Digest,
			ItemsCount:      len(w.catalogs.Items.Ordered),
			RecipesDigest:   w.catalogs.Recipes.Digest,
			ResourcesDigest: w.catalogs.Resources.Digest,
			VendorsDigest:   w.catalogs.Vendors.Digest,
			TuningDigest:    w.tuningDigest,
		},
	}
}

func (w *World) sortedCharacters() []*Character {
	out := make([]*Character, 0, len(w.characters))
	for _, ch := range w.characters {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) sortedSessionIDs() []string {
	out := make([]string, 0, len(w.sessions))
	for id := range w.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (w *World) send(sessionID string, v any) {
	s := w.sessions[sessionID]
	if s == nil || s.Out == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	sendLatest(s.Out, b)
}

func sendLatest(ch chan []byte, b []byte) {
	if ch == nil {
		return
	}
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

// rollHash gives items with a variance facet a fresh configuration hash.
func (w *World) rollHash(def int) items.ConfigHash {
	d, ok := w.catalogs.Items.Definition(def)
	if !ok || d.Variance == nil {
		return items.ConfigHash{}
	}
	return items.DeriveHash(w.cfg.Seed, w.tick.Load(), w.nextRollNum.Add(1), def)
}

func (w *World) audit(e AuditEntry) {
	if w.auditLogger == nil {
		return
	}
	if err := w.auditLogger.WriteAudit(e); err != nil {
		w.log.Printf("audit log: %v", err)
	}
}
