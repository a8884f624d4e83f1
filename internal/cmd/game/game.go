// Package game parses game command flags and runs the headless game
// runtime: slot store, save manager, autosave loop.
package game

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/lmoreau/emberhollow/internal/game"
	entrypoint "github.com/lmoreau/emberhollow/internal/platform/cmd"
	apperrors "github.com/lmoreau/emberhollow/internal/platform/errors"
	"github.com/lmoreau/emberhollow/internal/save/document"
	"github.com/lmoreau/emberhollow/internal/save/manager"
	"github.com/lmoreau/emberhollow/internal/save/restore"
	"github.com/lmoreau/emberhollow/internal/save/storage/backend"
)

// Config holds game command configuration.
type Config struct {
	Backend          string        `env:"EMBERHOLLOW_STORAGE_BACKEND" envDefault:"bbolt"`
	Path             string        `env:"EMBERHOLLOW_STORAGE_PATH" envDefault:"emberhollow.db"`
	BudgetBytes      int64         `env:"EMBERHOLLOW_STORAGE_BUDGET_BYTES"`
	ManualSlots      int           `env:"EMBERHOLLOW_MANUAL_SLOTS" envDefault:"3"`
	MaxSaveBytes     int64         `env:"EMBERHOLLOW_MAX_SAVE_BYTES"`
	AutosaveInterval time.Duration `env:"EMBERHOLLOW_AUTOSAVE_INTERVAL" envDefault:"5m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "The slot store backend (bbolt, sqlite, memory)")
	fs.StringVar(&cfg.Path, "path", cfg.Path, "The slot store database path")
	fs.Int64Var(&cfg.BudgetBytes, "budget-bytes", cfg.BudgetBytes, "The storage byte budget (0 for none)")
	fs.IntVar(&cfg.ManualSlots, "slots", cfg.ManualSlots, "The number of manual save slots")
	fs.DurationVar(&cfg.AutosaveInterval, "autosave-interval", cfg.AutosaveInterval, "The autosave ticker interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the game runtime and blocks until ctx is cancelled. On
// shutdown it writes one final forced autosave so no progress is lost.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		store, err := backend.Open(cfg.Backend, cfg.Path, cfg.BudgetBytes)
		if err != nil {
			return err
		}

		systems := game.NewSystems()
		restoration := restore.New()
		for _, sys := range systems.All() {
			if err := restoration.Register(sys); err != nil {
				return err
			}
		}

		mgr, err := manager.New(ctx, manager.Config{
			Store:            store,
			Restoration:      restoration,
			ManualSlots:      cfg.ManualSlots,
			MaxSaveBytes:     cfg.MaxSaveBytes,
			AutosaveInterval: cfg.AutosaveInterval,
		})
		if err != nil {
			store.Close()
			return err
		}
		defer mgr.Close()

		logEvents(mgr)
		resumeMostRecent(ctx, mgr)
		mgr.StartAutosave(ctx)

		<-ctx.Done()

		// Save-and-quit: the parent context is already cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mgr.Save(shutdownCtx, document.AutosaveSlot, manager.Options{IsAutosave: true, Force: true}); err != nil {
			log.Printf("shutdown save: %v", err)
		}
		return nil
	})
}

// resumeMostRecent continues from the newest save when one exists. A
// fresh profile starts from defaults.
func resumeMostRecent(ctx context.Context, mgr *manager.Manager) {
	newest, err := mgr.MostRecent()
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			log.Printf("find most recent save: %v", err)
		}
		return
	}
	if _, warnings, err := mgr.Load(ctx, newest.SlotID); err != nil {
		log.Printf("resume slot %d: %v", newest.SlotID, err)
	} else if len(warnings) > 0 {
		log.Printf("resumed slot %d with %d warnings", newest.SlotID, len(warnings))
	}
}

func logEvents(mgr *manager.Manager) {
	events := mgr.Events()
	events.SaveCompleted.Subscribe(func(e manager.SaveEvent) {
		log.Printf("saved slot %d (autosave=%t)", e.SlotID, e.IsAutosave)
	})
	events.SaveFailed.Subscribe(func(e manager.SaveEvent) {
		log.Printf("save slot %d failed: %v", e.SlotID, e.Err)
	})
	events.LoadCompleted.Subscribe(func(e manager.LoadEvent) {
		log.Printf("loaded slot %d (%d warnings)", e.SlotID, len(e.Warnings))
	})
	events.LoadFailed.Subscribe(func(e manager.LoadEvent) {
		log.Printf("load slot %d failed: %v", e.SlotID, e.Err)
	})
}
