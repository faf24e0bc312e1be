package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/genricoloni/mediabridge/internal/config"
	"github.com/genricoloni/mediabridge/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Lifecycle is a component started and stopped with the bridge
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// VolumeService is the volume monitor as seen by the bridge
type VolumeService interface {
	Lifecycle
	Reading() domain.VolumeReading
}

// Connection is the broker connection as seen by the bridge
type Connection interface {
	Connect(cfg config.Configuration) error
	Disconnect()
	State() domain.ConnectionState
	OnConnect(fn func())
	OnMessage(fn func(topic, payload string))
}

// Publisher is the discovery publisher as seen by the bridge
type Publisher interface {
	SetConfiguration(cfg config.Configuration)
	PublishDiscovery()
	RemoveDiscovery()
}

// Router is the command router as seen by the bridge
type Router interface {
	SetConfiguration(cfg config.Configuration)
	Handle(topic, payload string)
	Close()
}

// ConfigSource provides the current configuration and reload notifications
type ConfigSource interface {
	Current() config.Configuration
	OnReload(fn func(config.Configuration)) func()
}

// Bridge owns the lifecycle of every component and serialises
// configuration changes against connect attempts.
type Bridge struct {
	logger      *zap.Logger
	source      ConfigSource
	tracker     domain.Tracker
	volume      VolumeService
	coordinator Lifecycle
	conn        Connection
	publisher   Publisher
	router      Router
	executor    domain.Executor

	ops chan func()

	mu       sync.Mutex
	cfg      config.Configuration
	cancel   context.CancelFunc
	done     chan struct{}
	unreload func()
}

// New creates a bridge. Nothing runs until Start.
func New(
	logger *zap.Logger,
	source ConfigSource,
	tracker domain.Tracker,
	volume VolumeService,
	coordinator Lifecycle,
	conn Connection,
	publisher Publisher,
	router Router,
	executor domain.Executor,
) *Bridge {
	return &Bridge{
		logger:      logger,
		source:      source,
		tracker:     tracker,
		volume:      volume,
		coordinator: coordinator,
		conn:        conn,
		publisher:   publisher,
		router:      router,
		executor:    executor,
		ops:         make(chan func()),
	}
}

// Start launches the tracker, the volume monitor and the coordinator, then
// connects the broker if the configuration is valid. A missing helper is
// reported but does not fail startup.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.done = make(chan struct{})
	b.cfg = b.source.Current()
	cfg := b.cfg
	b.mu.Unlock()

	abort := func(err error) error {
		cancel()
		b.mu.Lock()
		b.cancel = nil
		b.mu.Unlock()
		return err
	}

	if err := b.tracker.Start(ctx); err != nil {
		if !errors.Is(err, domain.ErrBinaryNotFound) {
			return abort(err)
		}
		b.logger.Warn("Now-playing information unavailable", zap.Error(err))
	}
	if err := b.volume.Start(ctx); err != nil {
		return abort(multierr.Append(err, b.tracker.Stop(ctx)))
	}
	if err := b.coordinator.Start(ctx); err != nil {
		return abort(multierr.Combine(err, b.volume.Stop(ctx), b.tracker.Stop(ctx)))
	}

	b.conn.OnConnect(b.publisher.PublishDiscovery)
	b.conn.OnMessage(b.router.Handle)

	go b.loop(loopCtx, b.done)

	b.mu.Lock()
	b.unreload = b.source.OnReload(b.Reload)
	b.mu.Unlock()

	b.logger.Info("Bridge started", zap.Bool("helper", b.tracker.Available()))

	if !cfg.IsValid() {
		b.logger.Warn("Cannot connect, invalid configuration", zap.Error(cfg.Validate()))
		return nil
	}
	return b.do(func() { b.connect(cfg) })
}

// loop runs every configuration and connection change on one goroutine
func (b *Bridge) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-b.ops:
			op()
		}
	}
}

// do runs op on the owning goroutine and waits for it
func (b *Bridge) do(op func()) error {
	b.mu.Lock()
	done := b.done
	running := b.cancel != nil
	b.mu.Unlock()
	if !running {
		return errNotRunning
	}

	finished := make(chan struct{})
	select {
	case b.ops <- func() { op(); close(finished) }:
	case <-done:
		return errNotRunning
	}
	select {
	case <-finished:
	case <-done:
		return errNotRunning
	}
	return nil
}

var errNotRunning = errors.New("bridge is not running")

func (b *Bridge) connect(cfg config.Configuration) {
	b.publisher.SetConfiguration(cfg)
	b.router.SetConfiguration(cfg)
	if err := b.conn.Connect(cfg); err != nil {
		b.logger.Error("Broker connect failed", zap.Error(err))
	}
}

// Reload applies a new configuration: the broker is disconnected, every
// component gets the new topics and the broker is reconnected.
func (b *Bridge) Reload(cfg config.Configuration) {
	err := b.do(func() {
		b.mu.Lock()
		old := b.cfg
		b.cfg = cfg
		b.mu.Unlock()

		b.logger.Info("Applying new configuration",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.EffectivePort()),
			zap.String("baseTopic", cfg.BaseTopic))

		if old.DiscoveryTopic() != cfg.DiscoveryTopic() && b.conn.State().IsConnected() {
			b.publisher.RemoveDiscovery()
		}
		b.conn.Disconnect()

		if !cfg.IsValid() {
			b.publisher.SetConfiguration(cfg)
			b.router.SetConfiguration(cfg)
			b.logger.Warn("Not reconnecting, invalid configuration", zap.Error(cfg.Validate()))
			return
		}
		b.connect(cfg)
	})
	if err != nil {
		b.logger.Debug("Ignoring configuration reload", zap.Error(err))
	}
}

// Reconnect restarts the broker connection with the current configuration.
// It is the way out of the terminal "max retries" state.
func (b *Bridge) Reconnect() error {
	return b.do(func() {
		b.mu.Lock()
		cfg := b.cfg
		b.mu.Unlock()
		b.conn.Disconnect()
		b.connect(cfg)
	})
}

// Disconnect closes the broker connection and cancels pending retries
func (b *Bridge) Disconnect() error {
	return b.do(b.conn.Disconnect)
}

// ConnectionState returns the broker connection state
func (b *Bridge) ConnectionState() domain.ConnectionState {
	return b.conn.State()
}

// MediaState returns the current now-playing snapshot
func (b *Bridge) MediaState() domain.MediaState {
	return b.tracker.Current()
}

// Volume returns the cached volume reading
func (b *Bridge) Volume() domain.VolumeReading {
	return b.volume.Reading()
}

// Execute runs a command as if it had arrived from the broker, without the
// state re-publish.
func (b *Bridge) Execute(ctx context.Context, cmd domain.PlayerCommand, value any) domain.CommandResult {
	return b.executor.Execute(ctx, cmd, value)
}

// Stop tears everything down in reverse start order
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel := b.cancel
	done := b.done
	unreload := b.unreload
	b.cancel = nil
	b.unreload = nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	if unreload != nil {
		unreload()
	}
	cancel()
	<-done

	b.conn.Disconnect()
	b.router.Close()

	err := multierr.Combine(
		b.coordinator.Stop(ctx),
		b.volume.Stop(ctx),
		b.tracker.Stop(ctx),
	)
	b.logger.Info("Bridge stopped", zap.Error(err))
	return err
}
