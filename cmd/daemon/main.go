package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/mediabridge/internal/artwork"
	"github.com/genricoloni/mediabridge/internal/bridge"
	"github.com/genricoloni/mediabridge/internal/broker"
	"github.com/genricoloni/mediabridge/internal/config"
	"github.com/genricoloni/mediabridge/internal/discovery"
	"github.com/genricoloni/mediabridge/internal/engine"
	"github.com/genricoloni/mediabridge/internal/events"
	"github.com/genricoloni/mediabridge/internal/executor"
	"github.com/genricoloni/mediabridge/internal/hostinfo"
	"github.com/genricoloni/mediabridge/internal/metrics"
	"github.com/genricoloni/mediabridge/internal/monitor"
	"github.com/genricoloni/mediabridge/internal/process"
	"github.com/genricoloni/mediabridge/internal/router"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options are the command line settings that are not configuration keys
type Options struct {
	ConfigFile string
	Dev        bool
}

// AppOptions is the application graph. It expects an Options value and a
// *viper.Viper to be supplied.
var AppOptions = fx.Options(
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		newLogger,
		newLoader,
		newMetricsServer,
		newBus,
		newHostProvider,
		newTracker,
		newVolumeMonitor,
		newConnection,
		newPublisher,
		newCoordinator,
		newExecutor,
		newRouter,
		newBridge,
		metrics.New,
	),

	fx.Invoke(registerHooks),
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:          "mediabridge",
		Short:        "Expose the local now-playing session and volume as an MQTT media player",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := config.NewViper(opts.ConfigFile)
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			return run(cmd.Context(), fx.Supply(opts, v))
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/mediabridge/config.yaml)")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "development logging")
	config.AddFlags(cmd.Flags())
	return cmd
}

// run starts the application and blocks until SIGINT or SIGTERM
func run(parent context.Context, supplied fx.Option) error {
	app := fx.New(AppOptions, supplied)

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return app.Stop(context.Background())
}

// newLogger creates the process logger. The level is adjusted once the
// configuration has been read.
func newLogger(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	cfg := zap.NewProductionConfig()
	if opts.Dev {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, cfg.Level, nil
}

func newLoader(logger *zap.Logger, level zap.AtomicLevel, v *viper.Viper) (*config.Loader, config.Configuration, error) {
	loader := config.NewLoader(logger, v)
	cfg, err := loader.Load()
	if err != nil {
		return nil, config.Configuration{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	if name := loader.App().LogLevel; name != "" {
		l, err := zapcore.ParseLevel(name)
		if err != nil {
			logger.Warn("Ignoring invalid log level", zap.String("level", name), zap.Error(err))
		} else {
			level.SetLevel(l)
		}
	}
	return loader, cfg, nil
}

func newMetricsServer(logger *zap.Logger, m *metrics.Metrics, loader *config.Loader) *metrics.Server {
	return metrics.NewServer(logger, m, loader.App().MetricsAddr)
}

func newBus(lc fx.Lifecycle) *events.Bus {
	bus := events.NewBus()
	lc.Append(fx.StopHook(bus.Close))
	return bus
}

func newHostProvider(lc fx.Lifecycle, logger *zap.Logger) *hostinfo.Provider {
	p := hostinfo.NewProvider(logger)
	lc.Append(fx.StopHook(p.Close))
	return p
}

func newTracker(logger *zap.Logger, bus *events.Bus, m *metrics.Metrics, loader *config.Loader) *monitor.NowPlayingTracker {
	app := loader.App()
	helper, _ := process.FindExecutable(app.HelperPaths)
	normalizer := artwork.NewNormalizer(logger, app.ArtworkMaxSize)
	return monitor.NewNowPlayingTracker(logger, bus, m, normalizer, helper)
}

func newVolumeMonitor(logger *zap.Logger, bus *events.Bus) *monitor.VolumeMonitor {
	return monitor.NewVolumeMonitor(logger, monitor.NewVolumeEndpoint(logger), bus)
}

func newConnection(logger *zap.Logger, bus *events.Bus, m *metrics.Metrics) *broker.Connection {
	return broker.NewConnection(logger, bus, m, config.NewSecretResolver(), broker.NewPahoClient)
}

func newPublisher(
	logger *zap.Logger,
	conn *broker.Connection,
	tracker *monitor.NowPlayingTracker,
	volume *monitor.VolumeMonitor,
	host *hostinfo.Provider,
	m *metrics.Metrics,
	cfg config.Configuration,
) *discovery.Publisher {
	return discovery.NewPublisher(logger, conn, tracker, volume, host, m, cfg)
}

func newCoordinator(logger *zap.Logger, bus *events.Bus, publisher *discovery.Publisher) *engine.Coordinator {
	return engine.NewCoordinator(logger, bus, publisher)
}

func newExecutor(logger *zap.Logger, volume *monitor.VolumeMonitor, loader *config.Loader) *executor.CommandExecutor {
	return executor.NewCommandExecutor(logger, volume, process.Run, loader.App().HelperPaths)
}

func newRouter(
	logger *zap.Logger,
	exec *executor.CommandExecutor,
	publisher *discovery.Publisher,
	bus *events.Bus,
	m *metrics.Metrics,
	cfg config.Configuration,
) *router.Router {
	return router.NewRouter(logger, exec, publisher, bus, m, cfg)
}

func newBridge(
	logger *zap.Logger,
	loader *config.Loader,
	tracker *monitor.NowPlayingTracker,
	volume *monitor.VolumeMonitor,
	coordinator *engine.Coordinator,
	conn *broker.Connection,
	publisher *discovery.Publisher,
	r *router.Router,
	exec *executor.CommandExecutor,
) *bridge.Bridge {
	return bridge.New(logger, loader, tracker, volume, coordinator, conn, publisher, r, exec)
}

// registerHooks sets up application lifecycle hooks
func registerHooks(lc fx.Lifecycle, logger *zap.Logger, b *bridge.Bridge, server *metrics.Server, loader *config.Loader) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Media bridge starting")
			server.Start()
			if err := b.Start(ctx); err != nil {
				return err
			}
			loader.Watch()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			return multierr.Append(b.Stop(ctx), server.Stop(ctx))
		},
	})
}
