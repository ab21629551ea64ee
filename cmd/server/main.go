package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/indexdb"
	persistlog "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/log"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/r2s3"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/savedata"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/snapshot"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := loadConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(cfg.DataDir, "worlds", cfg.WorldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(cfg.TuningPath)
	if tp == "" {
		tp = filepath.Join(cfg.ConfigDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(cfg.SnapshotPath)
	if snapshotToLoad == "" && cfg.LoadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	// Read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !cfg.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cfg.ConfigDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	w, err := openWorld(cfg, tune, cats, snapshotToLoad, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	blobs, err := saveBlobs(cfg)
	if err != nil {
		logger.Fatalf("cloud saves: %v", err)
	}
	var saves world.SaveStore = savedata.Store{Blobs: blobs}
	if idx != nil {
		saves = indexdb.SaveRecorder{Store: saves, Index: idx}
	}
	w.SetSaveStore(saves)

	tickLog := persistlog.NewTickLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer tickLog.Close()
	defer auditLog.Close()
	if idx != nil {
		w.SetTickLogger(persistlog.MultiTick{tickLog, idx})
		w.SetAuditLogger(persistlog.MultiAudit{auditLog, idx})
	} else {
		w.SetTickLogger(tickLog)
		w.SetAuditLogger(auditLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	var dropped droppedCounter
	if idx != nil {
		dropped = idx
	}
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, cfg.WorldID, w.CurrentTick(), w.Metrics(), dropped)
	})
	if cfg.EnableAdminHTTP {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string             `json:"world_id"`
				Tick    uint64             `json:"tick"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				WorldID: cfg.WorldID,
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (FMMO_ENABLE_ADMIN_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s world=%s tick=%d", cfg.Addr, cfg.WorldID, w.CurrentTick())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	// Connected characters are saved by the world on shutdown.
	<-worldDone
}

// openWorld creates a fresh world or resumes one from a snapshot.
func openWorld(cfg serverConfig, tune tuning.Tuning, cats *catalogs.Catalogs, snapPath string, logger *log.Logger) (*world.World, error) {
	if snapPath == "" {
		w, err := world.New(world.WorldConfig{ID: cfg.WorldID, Seed: cfg.Seed, Tuning: tune}, cats, logger)
		if err != nil {
			return nil, fmt.Errorf("world: %w", err)
		}
		return w, nil
	}

	snap, err := snapshot.ReadSnapshot(snapPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if snap.Header.WorldID != "" && snap.Header.WorldID != cfg.WorldID {
		return nil, fmt.Errorf("snapshot world id mismatch: flag=%s snap=%s", cfg.WorldID, snap.Header.WorldID)
	}
	if snap.TickRate > 0 {
		tune.TickRateHz = snap.TickRate
	}
	w, err := world.New(world.WorldConfig{ID: cfg.WorldID, Seed: snap.Seed, Tuning: tune}, cats, logger)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapPath), w.CurrentTick())
	return w, nil
}

func saveBlobs(cfg serverConfig) (savedata.BlobStore, error) {
	if !cfg.SavesS3.enabled() {
		dir := strings.TrimSpace(cfg.SavesDir)
		if dir == "" {
			dir = filepath.Join(cfg.DataDir, "saves")
		}
		return savedata.DirStore{Dir: dir}, nil
	}
	s3 := cfg.SavesS3
	client, err := r2s3.New(s3.Endpoint, s3.Bucket, s3.AccessKeyID, s3.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	prefix := s3.Prefix
	if prefix == "" {
		prefix = cfg.WorldID + "/saves/"
	}
	return r2s3.SaveBlobs{Client: client, Prefix: prefix}, nil
}

type droppedCounter interface {
	Dropped() uint64
}

// writeMetrics renders a minimal Prometheus exposition.
func writeMetrics(rw http.ResponseWriter, worldID string, tick uint64, m world.WorldMetrics, idx droppedCounter) {
	fmt.Fprintf(rw, "# HELP fmmo_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE fmmo_world_tick gauge\n")
	fmt.Fprintf(rw, "fmmo_world_tick{world=%q} %d\n", worldID, tick)

	fmt.Fprintf(rw, "# HELP fmmo_world_characters Characters currently in the world.\n")
	fmt.Fprintf(rw, "# TYPE fmmo_world_characters gauge\n")
	fmt.Fprintf(rw, "fmmo_world_characters{world=%q} %d\n", worldID, m.Characters)

	fmt.Fprintf(rw, "# HELP fmmo_world_sessions Connected sessions.\n")
	fmt.Fprintf(rw, "# TYPE fmmo_world_sessions gauge\n")
	fmt.Fprintf(rw, "fmmo_world_sessions{world=%q} %d\n", worldID, m.Sessions)

	fmt.Fprintf(rw, "# HELP fmmo_world_pickups Pickups lying in the world.\n")
	fmt.Fprintf(rw, "# TYPE fmmo_world_pickups gauge\n")
	fmt.Fprintf(rw, "fmmo_world_pickups{world=%q} %d\n", worldID, m.Pickups)

	fmt.Fprintf(rw, "# HELP fmmo_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE fmmo_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "fmmo_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "fmmo_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "join", m.QueueDepths.Join)
	fmt.Fprintf(rw, "fmmo_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "leave", m.QueueDepths.Leave)

	fmt.Fprintf(rw, "# HELP fmmo_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE fmmo_world_step_ms gauge\n")
	fmt.Fprintf(rw, "fmmo_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(rw, "# HELP fmmo_world_commands_total Acknowledged commands by outcome.\n")
	fmt.Fprintf(rw, "# TYPE fmmo_world_commands_total counter\n")
	fmt.Fprintf(rw, "fmmo_world_commands_total{world=%q,outcome=%q} %d\n", worldID, "accepted", m.Accepted)
	fmt.Fprintf(rw, "fmmo_world_commands_total{world=%q,outcome=%q} %d\n", worldID, "rejected", m.Rejected)

	if idx != nil {
		fmt.Fprintf(rw, "# HELP fmmo_index_dropped_total Index writes dropped under backpressure.\n")
		fmt.Fprintf(rw, "# TYPE fmmo_index_dropped_total counter\n")
		fmt.Fprintf(rw, "fmmo_index_dropped_total{world=%q} %d\n", worldID, idx.Dropped())
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
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

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
