package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/npcai/internal/config"
	"github.com/l1jgo/npcai/internal/core/event"
	coresys "github.com/l1jgo/npcai/internal/core/system"
	"github.com/l1jgo/npcai/internal/data"
	"github.com/l1jgo/npcai/internal/observe"
	"github.com/l1jgo/npcai/internal/persist"
	"github.com/l1jgo/npcai/internal/scripting"
	"github.com/l1jgo/npcai/internal/system"
	"github.com/l1jgo/npcai/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          L1JGO NPC AI  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        NPC 行為引擎 · 世界驅動程式        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

// displayWidth counts CJK characters as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main driver logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("NPCAI_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Optional PostgreSQL for NPC lifecycle history
	var eventRepo *persist.NpcEventRepo
	if cfg.Database.Enabled {
		printSection("資料庫")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		version, err := db.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("資料庫遷移完成 (版本 %d)", version))
		fmt.Println()
		eventRepo = persist.NewNpcEventRepo(db)
	}

	// 4. Load data tables
	printSection("資料載入")
	npcTable, err := data.LoadNpcTable(filepath.Join(cfg.World.DataDir, "npc_list.yaml"))
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("NPC 模板", npcTable.Count())

	mapData, err := data.LoadMapData(filepath.Join(cfg.World.DataDir, "map_list.yaml"))
	if err != nil {
		return fmt.Errorf("load map data: %w", err)
	}
	printStat("地圖", mapData.Count())

	spawns, err := data.LoadSpawnList(filepath.Join(cfg.World.DataDir, "spawn_list.yaml"))
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("生怪點", len(spawns))

	// 5. Lua engine
	engine, err := scripting.NewEngine(cfg.World.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("load lua scripts: %w", err)
	}
	defer engine.Close()
	printOK(fmt.Sprintf("Lua 腳本載入完成 (%s)", cfg.World.ScriptsDir))

	var watcher *scripting.Watcher
	if cfg.World.HotReload {
		watcher, err = scripting.NewWatcher(cfg.World.ScriptsDir)
		if err != nil {
			return fmt.Errorf("watch scripts: %w", err)
		}
		defer watcher.Close()
		printOK("腳本熱重載已啟用")
	}

	// 6. World + spawn
	bus := event.NewBus()
	worldState := world.NewState(mapData, bus)
	spawner := system.NewSpawner(worldState, npcTable, engine, cfg.AI, cfg.World.TickRate, log)
	printStat("NPC 生成", spawner.SpawnAll(spawns, time.Now()))
	fmt.Println()

	// 7. Systems
	runner := coresys.NewRunner()
	if watcher != nil {
		runner.Register(system.NewScriptReloadSystem(engine, watcher, log))
	}
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewNpcAISystem(worldState))
	runner.Register(system.NewNpcRespawnSystem(worldState, spawner, log))
	var persistSys *system.PersistenceSystem
	if eventRepo != nil {
		persistSys = system.NewPersistenceSystem(bus, eventRepo, log, cfg.Persist.FlushInterval, cfg.Persist.BatchSize)
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(worldState))

	// 8. Optional observer feed
	var httpSrv *http.Server
	var hub *observe.Hub
	if cfg.Observer.Enabled {
		hub = observe.NewHub(cfg.Observer, log)
		hub.Attach(bus)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		httpSrv = &http.Server{Addr: cfg.Observer.BindAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("observer 伺服器錯誤", zap.Error(err))
			}
		}()
	}

	// 9. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	if httpSrv != nil {
		printReady(fmt.Sprintf("觀察者 ws://%s/ws", cfg.Observer.BindAddress))
	}
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.World.TickRate))
	fmt.Println()

	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			if persistSys != nil {
				persistSys.Flush()
			}
			if httpSrv != nil {
				hub.Close()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = httpSrv.Shutdown(ctx)
				cancel()
			}
			log.Info("伺服器已停止", zap.Int("npcs", worldState.NpcCount()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
