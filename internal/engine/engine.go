package engine

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/events"
	"go.uber.org/zap"
)

// DebounceDuration is the quiet period before a burst of changes is published
const DebounceDuration = 100 * time.Millisecond

// Coordinator coalesces media and volume change notifications into
// debounced state publishes.
type Coordinator struct {
	logger    *zap.Logger
	bus       *events.Bus
	publisher domain.StatePublisher
	debounce  time.Duration

	changes chan string

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe []func()
}

// NewCoordinator creates a coordinator that publishes through publisher
func NewCoordinator(logger *zap.Logger, bus *events.Bus, publisher domain.StatePublisher) *Coordinator {
	return &Coordinator{
		logger:    logger,
		bus:       bus,
		publisher: publisher,
		debounce:  DebounceDuration,
		changes:   make(chan string, 1),
	}
}

// Start subscribes to change notifications and launches the debounce loop.
// It returns immediately (non-blocking).
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}

	c.logger.Info("Coordinator starting...", zap.Duration("debounce", c.debounce))

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.done = make(chan struct{})

	c.unsubscribe = []func(){
		c.bus.OnMedia(func(events.MediaChanged) { c.Notify("media") }),
		c.bus.OnVolume(func(events.VolumeChanged) { c.Notify("volume") }),
	}

	go c.runLoop(loopCtx, c.done)
	return nil
}

// Notify records a change and (re)starts the debounce timer
func (c *Coordinator) Notify(source string) {
	select {
	case c.changes <- source:
	default:
		// A change is already queued; the loop will restart the timer anyway
	}
}

// runLoop is the debounce loop. A newer change resets the timer; a fired
// timer always results in a publish.
func (c *Coordinator) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(c.debounce)
	timer.Stop() // Start with stopped timer
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("Coordinator loop stopped")
			return

		case source := <-c.changes:
			c.logger.Debug("Change received, debouncing...", zap.String("source", source))
			pending = true
			timer.Reset(c.debounce)

		case <-timer.C:
			if pending {
				pending = false
				c.publisher.PublishState()
			}
		}
	}
}

// Stop unsubscribes and ends the loop. A pending publish is discarded.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done, unsubscribe := c.cancel, c.done, c.unsubscribe
	c.cancel, c.done, c.unsubscribe = nil, nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	c.logger.Info("Coordinator stopping...")
	for _, unsub := range unsubscribe {
		unsub()
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
