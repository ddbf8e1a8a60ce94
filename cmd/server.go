package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/teymia/habitkit/internal/config"
	"github.com/teymia/habitkit/internal/logger"
	"github.com/teymia/habitkit/internal/server"
	"github.com/teymia/habitkit/internal/storage"
	"github.com/teymia/habitkit/internal/storage/bolt"
	"github.com/teymia/habitkit/internal/storage/sqlite"
)

var serverJSONLogs bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer()
	},
}

func init() {
	serverCmd.Flags().BoolVar(&serverJSONLogs, "json-logs", false, "emit JSON logs")
	rootCmd.AddCommand(serverCmd)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DBBackend {
	case "sqlite":
		return sqlite.Open(cfg.DBPath)
	case "bolt", "":
		return bolt.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown db backend %q", cfg.DBBackend)
	}
}

func startServer() error {
	if serverJSONLogs {
		logger.InitJSON(slog.LevelInfo)
	} else {
		logger.Init(slog.LevelInfo)
	}
	cfg := config.LoadOrDefault()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	s := server.New(store, cfg)
	logger.Info("Starting server", "addr", cfg.ListenAddr, "backend", cfg.DBBackend)
	return http.ListenAndServe(cfg.ListenAddr, s.Router())
}
