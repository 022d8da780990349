// Package main provides the parlor server binary: it loads the content tree,
// restores the last saved world and serves players over Telnet and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/config"
	"github.com/cory-johannsen/parlor/internal/frontend/handlers"
	"github.com/cory-johannsen/parlor/internal/frontend/telnet"
	"github.com/cory-johannsen/parlor/internal/frontend/ws"
	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/command"
	"github.com/cory-johannsen/parlor/internal/game/dice"
	"github.com/cory-johannsen/parlor/internal/game/hooks"
	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/recipe"
	"github.com/cory-johannsen/parlor/internal/game/session"
	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/observability"
	"github.com/cory-johannsen/parlor/internal/scripting"
	"github.com/cory-johannsen/parlor/internal/server"
	"github.com/cory-johannsen/parlor/internal/storage"
	"github.com/cory-johannsen/parlor/internal/storage/boltstore"
	"github.com/cory-johannsen/parlor/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	fresh := flag.Bool("fresh", false, "ignore the saved world and start from content")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Server.Name)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load world
	loadStart := time.Now()
	prefabs, err := prefab.LoadDir(filepath.Join(cfg.Content.Dir, "prefabs"))
	if err != nil {
		logger.Fatal("loading prefabs", zap.Error(err))
	}
	content, err := world.LoadContentDir(cfg.Content.Dir, cfg.Game.DefaultEquipmentSlots)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	w, err := world.Build(prefabs, content, logger)
	if err != nil {
		logger.Fatal("building world", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.Int("prefabs", len(prefabs.All())),
		zap.Int("recipes", len(prefabs.Recipes())),
		zap.Int("zones", len(w.Zones())),
		zap.Int("rooms", len(w.Rooms())),
		zap.Int("players", len(w.Players())),
		zap.Duration("elapsed", time.Since(loadStart)),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening snapshot store", zap.Error(err))
	}
	defer closeStore()

	if !*fresh {
		restored, err := storage.Restore(ctx, w, store)
		if err != nil {
			logger.Fatal("restoring world", zap.Error(err))
		}
		logger.Info("world state", zap.Bool("restored", restored), zap.String("driver", cfg.Storage.Driver))
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	sessions := session.NewManager(cfg.Game.OutboxSize, logger)
	sessions.Metrics = metrics

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	env := &action.Env{
		World:    w,
		Narrator: sessions,
		Roller:   roller,
		Dice:     dice.Bounds{Min: cfg.Game.DiceMin, Max: cfg.Game.DiceMax},
		Metrics:  metrics,
		Logger:   logger,
	}

	processor := recipe.NewProcessor(env, cfg.Game.RecipeTick, cfg.Game.AutoDeactivateAfter, logger)
	processor.Metrics = metrics

	scripts := scripting.NewManager(roller, logger)
	defer scripts.Close()
	if err := loadScripts(scripts, cfg, w, logger); err != nil {
		logger.Fatal("loading scripts", zap.Error(err))
	}
	bridge := hooks.New(env, scripts, logger)
	env.Hooks = bridge
	processor.Hooks = bridge

	executor := command.NewExecutor(env, command.DefaultRegistry(), logger)
	executor.Observer = metrics
	game := handlers.NewGameHandler(w, sessions, executor, logger)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)

	tickCtx, stopTicks := context.WithCancel(ctx)
	lifecycle.Add("recipes", &server.FuncService{
		StartFn: func() error {
			processor.Start(tickCtx)
			<-tickCtx.Done()
			return nil
		},
		StopFn: stopTicks,
	})

	if cfg.Telnet.Enabled {
		acceptor := telnet.NewAcceptor(cfg.Telnet, game, logger)
		lifecycle.Add("telnet", &server.FuncService{
			StartFn: acceptor.ListenAndServe,
			StopFn:  acceptor.Stop,
		})
	}

	if cfg.WebSocket.Enabled {
		wsServer := ws.NewServer(cfg.WebSocket, game, logger)
		lifecycle.Add("websocket", &server.FuncService{
			StartFn: wsServer.ListenAndServe,
			StopFn: func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := wsServer.Stop(stopCtx); err != nil {
					logger.Warn("stopping websocket server", zap.Error(err))
				}
			},
		})
	}

	if cfg.Metrics.Enabled {
		refresh := func() {
			_ = w.Do(func() error {
				metrics.SetItemsLive(w.ItemCount())
				return nil
			})
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(refresh))
		metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		lifecycle.Add("metrics", &server.FuncService{
			StartFn: func() error {
				logger.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			},
			StopFn: func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsServer.Shutdown(stopCtx)
			},
		})
	}

	// Stops first: the final save must land before the store is closed.
	lifecycle.Add("autosave", storage.NewAutosaver(w, store, cfg.Game.AutosaveInterval, logger))

	logger.Info("parlor initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Bool("telnet", cfg.Telnet.Enabled),
		zap.Bool("websocket", cfg.WebSocket.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		scripts.Close()
		closeStore()
		os.Exit(1)
	}
}

// openStore returns the snapshot store selected by cfg.Storage.Driver and a
// function releasing it.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		return pool.Snapshots(postgres.DefaultKeep), pool.Close, nil
	case config.DriverBolt:
		st, err := boltstore.Open(cfg.Storage.BoltPath, boltstore.DefaultKeep)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("bolt store opened", zap.String("path", st.Path()))
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Warn("closing bolt store", zap.Error(err))
			}
		}, nil
	default:
		return storage.NewMemoryStore(), func() {}, nil
	}
}

// loadScripts loads the global script directory and every zone's own
// script directory. Zone directories are relative to the content directory.
func loadScripts(scripts *scripting.Manager, cfg config.Config, w *world.World, logger *zap.Logger) error {
	if dir := cfg.Scripting.Dir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			if err := scripts.LoadGlobal(dir, cfg.Scripting.InstructionLimit); err != nil {
				return fmt.Errorf("global scripts: %w", err)
			}
			logger.Info("global scripts loaded", zap.String("dir", dir))
		} else {
			logger.Info("scripting disabled", zap.String("dir", dir), zap.Error(err))
		}
	}
	for _, z := range w.Zones() {
		if z.ScriptDir == "" {
			continue
		}
		dir := z.ScriptDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Content.Dir, dir)
		}
		limit := z.ScriptInstructionLimit
		if limit == 0 {
			limit = cfg.Scripting.InstructionLimit
		}
		if err := scripts.LoadZone(z.ID, dir, limit); err != nil {
			return fmt.Errorf("zone %s scripts: %w", z.ID, err)
		}
		logger.Info("zone scripts loaded", zap.String("zone", z.ID), zap.String("dir", dir))
	}
	return nil
}
