package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabarim/brokerrelay/internal/auth"
	"github.com/sabarim/brokerrelay/internal/dhan"
	"github.com/sabarim/brokerrelay/internal/instruments"
	"github.com/sabarim/brokerrelay/internal/scheduler"
	"github.com/sabarim/brokerrelay/internal/server"
)

var (
	port            int
	frontendOrigin  string
	refreshSchedule string
	downloadOnStart bool
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		RunE:  runServe,
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on")
	cmd.Flags().StringVar(&frontendOrigin, "frontend-origin", "", "Origin allowed by CORS and targeted by the login redirect")
	cmd.Flags().StringVar(&refreshSchedule, "refresh", "", `Cron schedule for re-downloading the security master (e.g. "0 6 * * *")`)
	cmd.Flags().BoolVar(&downloadOnStart, "download", false, "Download the security master before serving")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	// Command-line flags override file and environment
	if port > 0 {
		cfg.Server.Port = port
	}
	if frontendOrigin != "" {
		cfg.Server.FrontendOrigin = frontendOrigin
	}
	if refreshSchedule != "" {
		cfg.Instruments.RefreshSchedule = refreshSchedule
	}

	log.Info().Str("version", versionString).Str("config", cfg.Source).Msg("Starting broker relay")

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("Broker credentials not set; affected routes will fail upstream")
	}

	instrumentManager := instruments.NewInstrumentManager(cfg.Instruments, log)
	refreshJob := instruments.NewRefreshJob(instrumentManager, 10*time.Minute)
	sched := scheduler.New(log)

	if downloadOnStart {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Error().Err(err).Msg("Failed to download security master, using the file on disk")
		}
	}
	if _, err := instrumentManager.Stat(); err != nil {
		log.Warn().Err(err).Str("path", cfg.Instruments.MasterPath).Msg("Security master not readable; /symbols will fail until it is downloaded")
	}

	if cfg.Instruments.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.Instruments.RefreshSchedule, refreshJob); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	srv, err := server.New(server.Config{
		Port:           cfg.Server.Port,
		FrontendOrigin: cfg.Server.FrontendOrigin,
		ProxyTarget:    cfg.Dhan.BaseURL,
		Version:        versionString,
		Log:            log,
		Instruments:    instrumentManager,
		Broker:         dhan.NewClient(cfg.Dhan.BaseURL, cfg.Dhan.APIToken, cfg.Dhan.ClientID, log),
		Tokens:         auth.NewAuthClient(cfg.Flattrade.AuthURL, log),
		Brokers:        auth.NewRegistry(cfg, time.Now()),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}
