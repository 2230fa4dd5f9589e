package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yass5002/Lyrebird/internal/config"
	"github.com/Yass5002/Lyrebird/internal/observability"
	"github.com/Yass5002/Lyrebird/internal/server"
	"github.com/Yass5002/Lyrebird/internal/server/handlers"
	"github.com/Yass5002/Lyrebird/pkg/jobregistry"
	"github.com/Yass5002/Lyrebird/pkg/outputs"
	"github.com/Yass5002/Lyrebird/pkg/synth"
	"github.com/Yass5002/Lyrebird/pkg/synth/xtts"
)

var (
	flagHost      string
	flagPort      int
	flagEngineURL string
	flagOutputDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the voice-cloning HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "", "listen host")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "listen port")
	serveCmd.Flags().StringVar(&flagEngineURL, "engine-url", "", "XTTS engine base URL")
	serveCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "artifact output root")
	rootCmd.AddCommand(serveCmd)
}

func serveOverrides() []map[string]any {
	var overrides []map[string]any
	if o := loggingOverrides(); o != nil {
		overrides = append(overrides, o)
	}

	serverOverride := map[string]any{}
	if flagHost != "" {
		serverOverride["host"] = flagHost
	}
	if flagPort != 0 {
		serverOverride["port"] = flagPort
	}
	if len(serverOverride) > 0 {
		overrides = append(overrides, map[string]any{"server": serverOverride})
	}
	if flagEngineURL != "" {
		overrides = append(overrides, map[string]any{"engine": map[string]any{"url": flagEngineURL}})
	}
	if flagOutputDir != "" {
		overrides = append(overrides, map[string]any{"paths": map[string]any{"output_root": flagOutputDir}})
	}
	return overrides
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, serveOverrides()...)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	if err := observability.Init(cfg.Logging.Level, cfg.Logging.Profile); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid logging configuration", err)
	}
	log := observability.Logger

	engine := xtts.NewClient(cfg.Engine.URL, cfg.Engine.Timeout)
	if err := engine.HealthCheck(ctx); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Synthesis engine unreachable", err)
	}
	log.Info("synthesis engine ready",
		zap.String("url", cfg.Engine.URL),
		zap.String("device", engine.Device()))

	if err := os.MkdirAll(cfg.Paths.OutputRoot, 0o755); err != nil {
		return exitError(foundry.ExitFileWriteError, "Cannot create output root", err)
	}
	if err := os.MkdirAll(cfg.Paths.TempDir, 0o755); err != nil {
		return exitError(foundry.ExitFileWriteError, "Cannot create temp dir", err)
	}

	clonerOpts := []synth.ClonerOption{}
	punctuatorAvailable := false
	if cfg.Punctuator.URL != "" {
		clonerOpts = append(clonerOpts, synth.WithPunctuator(
			xtts.NewPunctuator(cfg.Punctuator.URL, cfg.Punctuator.Timeout)))
		punctuatorAvailable = true
	}
	if cfg.Mirror.Enabled {
		mirror, err := outputs.NewS3Mirror(ctx, outputs.MirrorConfig{
			Bucket:          cfg.Mirror.Bucket,
			Region:          cfg.Mirror.Region,
			Endpoint:        cfg.Mirror.Endpoint,
			AccessKeyID:     cfg.Mirror.AccessKeyID,
			SecretAccessKey: cfg.Mirror.SecretAccessKey,
			ForcePathStyle:  cfg.Mirror.ForcePathStyle,
		}, log)
		if err != nil {
			return exitError(foundry.ExitExternalServiceUnavailable, "Cannot initialize artifact mirror", err)
		}
		clonerOpts = append(clonerOpts, synth.WithMirror(mirror))
	}

	organizer := outputs.NewOrganizer(cfg.Paths.OutputRoot)
	tracker := synth.NewRTFTracker()
	cloner := synth.NewCloner(engine, tracker, organizer, cfg.Paths.TempDir, log, clonerOpts...)

	registry := jobregistry.NewRegistry()
	retention := jobregistry.NewRetention(registry, cfg.Retention.JobTTL, cfg.Retention.MaxJobs, log)
	dispatcher := jobregistry.NewDispatcher(cfg.Limits.QueueSize, log)

	handlers.InitHealthManager(versionInfo.Version)
	handlers.GetHealthManager().RegisterChecker("engine", handlers.CheckerFunc(engine.HealthCheck))

	svc := handlers.NewService(handlers.ServiceConfig{
		ModelName:           cfg.Engine.Model,
		OutputRoot:          cfg.Paths.OutputRoot,
		TempDir:             cfg.Paths.TempDir,
		ExampleDir:          cfg.Paths.ExampleDir,
		MaxUploadBytes:      cfg.Limits.MaxUploadBytes,
		JobListLimit:        cfg.Limits.JobListLimit,
		PunctuatorAvailable: punctuatorAvailable,
	}, cloner, engine, registry, retention, dispatcher, log)

	srv := server.New(server.Options{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		ShutdownTimeout:    cfg.Server.ShutdownTimeout,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		CloneRatePerSecond: cfg.RateLimit.ClonePerSecond,
		CloneRateBurst:     cfg.RateLimit.CloneBurst,
		ServiceName:        "lyrebird",
		Version:            versionInfo.Version,
		ModelName:          cfg.Engine.Model,
	}, svc)

	go dispatcher.Run(ctx)

	log.Info("lyrebird starting",
		zap.String("version", versionInfo.Version),
		zap.String("output_root", cfg.Paths.OutputRoot),
		zap.Int("port", srv.Port()))

	if err := srv.Start(ctx); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	log.Info("lyrebird stopped")
	return nil
}
