package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/circuitlens/circuitlens/config"
	"github.com/circuitlens/circuitlens/errors"
	"github.com/circuitlens/circuitlens/inference"
	"github.com/circuitlens/circuitlens/logger"
	"github.com/circuitlens/circuitlens/server"
	"github.com/circuitlens/circuitlens/store"
)

// ServeCmd starts the inspection server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the attention-inspection server",
	Long: `Launch the circuitlens server. The browser frontend connects over
HTTP + WebSocket; text is processed through the configured inference
backend, or served from sample datasets when the backend is offline.`,
	RunE: runServe,
}

var (
	serveConfigPath string
	servePort       int
	serveDBPath     string
)

func init() {
	ServeCmd.Flags().StringVar(&serveConfigPath, "config", "", "Config file path (watched for changes)")
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Group database path (overrides config, empty string in config disables persistence)")
}

func runServe(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = 1
	}
	if err := logger.InitializeWithVerbosity(false, verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	var cfg *config.Config
	var err error
	if serveConfigPath != "" {
		cfg, err = config.LoadFromFile(serveConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}
	dbPath := cfg.Database.Path
	if serveDBPath != "" {
		dbPath = serveDBPath
	}

	printStartupBanner(verbosity, cfg, dbPath)

	var groups *store.Store
	if dbPath != "" {
		groups, err = store.Open(dbPath, logger.Logger)
		if err != nil {
			return errors.Wrap(err, "failed to open group database")
		}
		defer groups.Close()
	} else {
		logger.Infow("Group persistence disabled")
	}

	backend := inference.NewClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
		logger.Logger,
	)

	// Startup probe so the operator knows which mode they are in
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 3*time.Second)
	if _, err := backend.Health(probeCtx); err != nil {
		logger.Warnw("Inference backend unreachable, starting in offline sample mode",
			"backend", cfg.Backend.BaseURL,
			"sample_dir", cfg.Sample.Dir,
		)
	} else {
		logger.Infow("Inference backend healthy", "backend", cfg.Backend.BaseURL)
	}
	cancelProbe()

	srv := server.New(cfg, backend, groups, logger.Logger)

	// Watch an explicit config file for live threshold changes
	if serveConfigPath != "" {
		watcher, err := config.NewConfigWatcher(serveConfigPath)
		if err != nil {
			logger.Warnw("Config watcher unavailable", "error", err)
		} else {
			watcher.OnReload(srv.ApplyConfig)
			watcher.Start()
			defer watcher.Stop()
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Infow("Shutting down", "signal", sig.String())
		return srv.Stop()
	}
}
