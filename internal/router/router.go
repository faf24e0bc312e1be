package router

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/mediabridge/internal/config"
	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/events"
	"github.com/genricoloni/mediabridge/internal/metrics"
	"go.uber.org/zap"
)

// SettleDelay is how long the router waits after a command before re-publishing state
const SettleDelay = 100 * time.Millisecond

// queueSize bounds the commands accepted but not yet executed
const queueSize = 64

type job struct {
	cmd   domain.PlayerCommand
	value any
}

// Router dispatches inbound broker messages to the executor
type Router struct {
	logger    *zap.Logger
	executor  domain.Executor
	publisher domain.StatePublisher
	bus       *events.Bus
	metrics   *metrics.Metrics
	settle    time.Duration

	mu  sync.RWMutex
	cfg config.Configuration

	queue  chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewRouter creates a router for the topics of cfg
func NewRouter(
	logger *zap.Logger,
	executor domain.Executor,
	publisher domain.StatePublisher,
	bus *events.Bus,
	m *metrics.Metrics,
	cfg config.Configuration,
) *Router {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		logger:    logger,
		executor:  executor,
		publisher: publisher,
		bus:       bus,
		metrics:   m,
		settle:    SettleDelay,
		cfg:       cfg,
		queue:     make(chan job, queueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	r.wg.Add(1)
	go r.work()
	return r
}

// SetConfiguration swaps the topics matched by Handle
func (r *Router) SetConfiguration(cfg config.Configuration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

// Handle routes one inbound message. It only waits for command execution
// when the queue is full.
func (r *Router) Handle(topic, payload string) {
	r.mu.RLock()
	cfg := r.cfg
	r.mu.RUnlock()

	r.logger.Info("Received command", zap.String("topic", topic), zap.String("payload", payload))

	switch topic {
	case cfg.VolumeCommandTopic():
		level, err := ParseVolume(payload)
		if err != nil {
			r.logger.Warn("Dropping malformed volume command", zap.Error(err))
			return
		}
		r.dispatch(domain.CommandVolumeSet, level)

	case cfg.CommandTopic():
		cmd, value, ok := ParseCommand(payload)
		if !ok {
			r.logger.Warn("Unknown command", zap.String("payload", payload))
			return
		}
		r.dispatch(cmd, value)

	default:
		r.logger.Debug("Ignoring message on unrelated topic", zap.String("topic", topic))
	}
}

// dispatch queues the command for the worker. Commands run one at a time in
// arrival order.
func (r *Router) dispatch(cmd domain.PlayerCommand, value any) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return
	}

	select {
	case r.queue <- job{cmd: cmd, value: value}:
	case <-r.ctx.Done():
	}
}

func (r *Router) work() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case j := <-r.queue:
			r.execute(j)
		}
	}
}

// execute runs one command, then re-publishes after the settle delay whether
// or not it succeeded. The re-publish does not hold up the next command.
func (r *Router) execute(j job) {
	result := r.executor.Execute(r.ctx, j.cmd, j.value)
	if result.Success() {
		r.logger.Info("Command executed", zap.String("command", string(j.cmd)))
	} else {
		r.logger.Warn("Command failed", zap.String("command", string(j.cmd)), zap.Error(result.Err))
	}
	r.metrics.CommandExecuted(result)
	if r.bus != nil {
		r.bus.PublishCommand(events.CommandExecuted{Result: result})
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case <-time.After(r.settle):
		case <-r.ctx.Done():
			return
		}
		r.publisher.PublishState()
	}()
}

// Close drops queued commands, cancels pending re-publishes and waits for the
// command in flight
func (r *Router) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
