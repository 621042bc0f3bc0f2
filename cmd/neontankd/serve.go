package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/arena"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/config"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/store"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/transport"
)

var (
	flagAddr   string
	flagDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long: `Start the NeonTank server: WebSocket sessions on /ws, invite QR
codes on /qr/{session}, recent results on /matches.

Flags override values from --config.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (default :8080)")
	serveCmd.Flags().StringVar(&flagDBPath, "db", "", "Path to match archive database (empty disables)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "neontankd",
	})

	var db *store.DB
	var archive arena.Archiver
	if cfg.DBPath != "" {
		db, err = store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		archive = db
		logger.Info("match archive open", "path", cfg.DBPath)
	}

	tokens, err := transport.NewTokenIssuer(cfg.TokenSecretHex)
	if err != nil {
		return err
	}

	manager := arena.NewManager(cfg, logger, archive)
	defer manager.Close()

	hub := transport.NewHub(manager, tokens, cfg, logger)
	go hub.Run()
	defer hub.Close()

	mux := transport.SetupRoutes(hub, db)
	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "tick_rate", cfg.TickRate)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
		logger.Info("shutting down")
		server.Close()
		return nil
	case err := <-errCh:
		return err
	}
}
