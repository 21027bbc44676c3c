// Package ledger parses ledger service flags and launches the HTTP server.
package ledger

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	entrypoint "github.com/arphillips06/ti4-ledger/internal/platform/cmd"
	"github.com/arphillips06/ti4-ledger/internal/scoring/catalog"
	"github.com/arphillips06/ti4-ledger/internal/scoring/service"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage/memory"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage/sqlite"
	"github.com/arphillips06/ti4-ledger/internal/server"
)

// Config holds ledger command configuration.
type Config struct {
	Addr string `env:"TI4_LEDGER_ADDR" envDefault:":8080"`
	// DBPath selects the SQLite file. Empty keeps everything in memory,
	// which is only useful for demos and tests.
	DBPath string `env:"TI4_LEDGER_DB_PATH" envDefault:"ti4-ledger.db"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database path (empty for in-memory)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the ledger HTTP service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedger, func(ctx context.Context) error {
		var store storage.Store
		if cfg.DBPath == "" {
			store = memory.New()
		} else {
			sqliteStore, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			store = sqliteStore
		}
		defer store.Close()

		hub := server.NewHub(log.Default())
		svc := service.New(store, catalog.Default(), service.WithNotifier(hub))
		handler := server.New(svc, hub, log.Default())

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("listening on %s", cfg.Addr)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	})
}
