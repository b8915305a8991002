package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/factchecker/realitycheck/internal/analysis"
	"github.com/factchecker/realitycheck/internal/api"
	"github.com/factchecker/realitycheck/internal/card"
	"github.com/factchecker/realitycheck/internal/dashboard"
	"github.com/factchecker/realitycheck/internal/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection dashboard API",
	Long: `Run the HTTP API behind the detection dashboard.

Each visitor opens a session holding one card per detector. Cards simulate
the upload and run analyses in the background; idle sessions are swept
after the configured TTL.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "override the configured port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}

	store, err := database.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	provider, err := analysis.NewProvider(&cfg.Analysis)
	if err != nil {
		return fmt.Errorf("creating analysis provider: %w", err)
	}

	sessions := dashboard.NewManager(provider, dashboard.ManagerOptions{
		TTL:        cfg.Sessions.TTL,
		MaxNotices: cfg.Sessions.MaxNotices,
		Card: card.Options{
			UploadInterval:  cfg.Upload.Interval,
			UploadStep:      cfg.Upload.Step,
			AnalysisTimeout: cfg.Analysis.Timeout,
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(cfg, sessions, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("provider", provider.Name()).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sessions.Run(ctx, cfg.Sessions.SweepInterval)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
