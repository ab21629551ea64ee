package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	character := fs.String("character", "", "character id (commands, audits, save)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index.db")
	}
	if *limit <= 0 {
		*limit = 20
	}

	r, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer r.Close()

	if err := runQuery(context.Background(), r, q, *character, *limit); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func runQuery(ctx context.Context, r *indexdb.Reader, q, character string, limit int) error {
	needCharacter := func() error {
		if strings.TrimSpace(character) == "" {
			return fmt.Errorf("%s: missing -character", q)
		}
		return nil
	}
	switch q {
	case "snapshots":
		rows, err := r.Snapshots(ctx)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
		for _, row := range rows {
			printJSON(row)
		}
	case "ticks":
		tr, err := r.Ticks(ctx)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		printJSON(tr)
	case "commands":
		if err := needCharacter(); err != nil {
			return err
		}
		rows, err := r.Commands(ctx, character, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, row := range rows {
			printJSON(row)
		}
	case "audits":
		if err := needCharacter(); err != nil {
			return err
		}
		rows, err := r.Audits(ctx, character, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, row := range rows {
			printJSON(row)
		}
	case "save":
		if err := needCharacter(); err != nil {
			return err
		}
		d, ok, err := r.Save(ctx, character)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if !ok {
			return fmt.Errorf("no save indexed for %s", character)
		}
		printJSON(d)
	default:
		return fmt.Errorf("unknown query: %s\nusage: admin db [-data ./data] [-world WORLD|-db PATH] [-character ID] snapshots|ticks|commands|audits|save", q)
	}
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
