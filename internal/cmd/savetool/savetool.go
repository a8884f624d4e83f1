// Package savetool parses savetool flags and runs slot maintenance
// actions: list, export, import, delete.
package savetool

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lmoreau/emberhollow/internal/game"
	entrypoint "github.com/lmoreau/emberhollow/internal/platform/cmd"
	"github.com/lmoreau/emberhollow/internal/save/manager"
	"github.com/lmoreau/emberhollow/internal/save/restore"
	"github.com/lmoreau/emberhollow/internal/save/storage/backend"
)

// Config holds savetool command configuration.
type Config struct {
	Backend     string `env:"EMBERHOLLOW_STORAGE_BACKEND" envDefault:"bbolt"`
	Path        string `env:"EMBERHOLLOW_STORAGE_PATH" envDefault:"emberhollow.db"`
	BudgetBytes int64  `env:"EMBERHOLLOW_STORAGE_BUDGET_BYTES"`
	ManualSlots int    `env:"EMBERHOLLOW_MANUAL_SLOTS" envDefault:"3"`

	List   bool
	Export int
	Import int
	Delete int
	File   string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "The slot store backend (bbolt, sqlite, memory)")
	fs.StringVar(&cfg.Path, "path", cfg.Path, "The slot store database path")
	fs.BoolVar(&cfg.List, "list", false, "List every slot")
	fs.IntVar(&cfg.Export, "export", -1, "Export the given slot as JSON")
	fs.IntVar(&cfg.Import, "import", -1, "Import a JSON document into the given slot")
	fs.IntVar(&cfg.Delete, "delete", -1, "Delete the given slot")
	fs.StringVar(&cfg.File, "file", "", "File to export to or import from (default stdout/stdin)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes one savetool action.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSavetool, func(ctx context.Context) error {
		store, err := backend.Open(cfg.Backend, cfg.Path, cfg.BudgetBytes)
		if err != nil {
			return err
		}

		restoration := restore.New()
		for _, sys := range game.NewSystems().All() {
			if err := restoration.Register(sys); err != nil {
				store.Close()
				return err
			}
		}
		mgr, err := manager.New(ctx, manager.Config{
			Store:       store,
			Restoration: restoration,
			ManualSlots: cfg.ManualSlots,
		})
		if err != nil {
			store.Close()
			return err
		}
		defer mgr.Close()

		switch {
		case cfg.List:
			return list(mgr, out)
		case cfg.Export >= 0:
			return export(ctx, mgr, cfg.Export, cfg.File, out)
		case cfg.Import >= 0:
			return importSlot(ctx, mgr, cfg.Import, cfg.File)
		case cfg.Delete >= 0:
			return mgr.Delete(ctx, cfg.Delete)
		}
		return fmt.Errorf("no action given: use -list, -export, -import, or -delete")
	})
}

func list(mgr *manager.Manager, out io.Writer) error {
	for _, slot := range mgr.ListSlots() {
		if slot.Empty {
			fmt.Fprintf(out, "slot %d: empty\n", slot.SlotID)
			continue
		}
		meta := slot.Metadata
		fmt.Fprintf(out, "slot %d: %s level %d at %s, %s played, saved %s (%s)\n",
			slot.SlotID, meta.PlayerName, meta.Level, meta.Location,
			(time.Duration(meta.PlaytimeSeconds) * time.Second).String(),
			meta.SavedAt.Format(time.RFC3339), meta.SlotType)
	}
	return nil
}

func export(ctx context.Context, mgr *manager.Manager, slot int, file string, out io.Writer) error {
	payload, err := mgr.Export(ctx, slot)
	if err != nil {
		return err
	}
	if file == "" {
		_, err := out.Write(payload)
		return err
	}
	return os.WriteFile(file, payload, 0o644)
}

func importSlot(ctx context.Context, mgr *manager.Manager, slot int, file string) error {
	var data []byte
	var err error
	if file == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("read import data: %w", err)
	}
	return mgr.Import(ctx, slot, data)
}
