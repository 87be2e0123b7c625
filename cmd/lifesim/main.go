// Command lifesim plays a life simulation in the terminal, one year per turn.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/talgya/lifesim/internal/api"
	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/config"
	"github.com/talgya/lifesim/internal/engine"
	"github.com/talgya/lifesim/internal/entropy"
	"github.com/talgya/lifesim/internal/llm"
	"github.com/talgya/lifesim/internal/persistence"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// ── Content ───────────────────────────────────────────────────────
	var cat *catalog.Catalog
	if cfg.ContentPath != "" {
		cat, err = catalog.LoadFile(cfg.ContentPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		slog.Error("failed to load content", "path", cfg.ContentPath, "error", err)
		os.Exit(1)
	}
	slog.Info("content loaded", "categories", len(cat.Categories()), "careers", len(cat.Careers()), "talents", len(cat.Talents))

	// ── Randomness ────────────────────────────────────────────────────
	var rng entropy.Source
	if client := entropy.NewClient(cfg.RandomOrgKey); client != nil {
		rng = client
		slog.Info("random.org entropy enabled")
	} else {
		seeded, seed, err := entropy.NewSeeded(cfg.Seed)
		if err != nil {
			slog.Error("failed to seed random source", "error", err)
			os.Exit(1)
		}
		rng = seeded
		slog.Info("random source seeded", "seed", seed)
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	sess := engine.NewSession(cat, rng)
	sess.Saver = db
	sess.AutosaveEvery = cfg.AutosaveYears

	// ── Start ─────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	t := newTerminal(os.Stdin, os.Stdout, sess, db, rng)
	if client := llm.NewClient(cfg.AnthropicKey); client != nil {
		t.narrator = client
		slog.Info("eulogies enabled")
	}
	if cfg.HTTPAddr != "" {
		t.observer = api.NewObserver()
		srv := &api.Server{Observer: t.observer, Addr: cfg.HTTPAddr, TrustedProxies: cfg.Proxies}
		srv.Start(ctx)
	}

	if cfg.Autoplay {
		t.autoplay(ctx, cfg)
	} else {
		t.interactive(ctx)
	}

	finalSave(sess)
	fmt.Fprintln(t.out, "再见。")
}

func finalSave(sess *engine.Session) {
	if sess.Character == nil {
		return
	}
	slog.Info("final save...")
	if err := sess.Save(context.Background()); err != nil {
		slog.Error("final save failed", "error", err)
	}
}
