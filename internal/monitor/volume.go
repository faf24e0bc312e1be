package monitor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/events"
	"go.uber.org/zap"
)

const (
	// VolumeStep is the increment used by Increase and Decrease
	VolumeStep = 0.05
	// VolumePollInterval is how often the endpoint is polled
	VolumePollInterval = 500 * time.Millisecond

	endpointTimeout = 2 * time.Second
)

// VolumeMonitor polls the system volume and writes through changes
type VolumeMonitor struct {
	logger   *zap.Logger
	endpoint domain.VolumeEndpoint
	bus      *events.Bus
	interval time.Duration

	// held across each endpoint round trip so steps read the level the
	// previous write left behind
	writeMu sync.Mutex

	mu        sync.RWMutex
	reading   domain.VolumeReading
	available bool
	seeded    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewVolumeMonitor creates a monitor backed by endpoint
func NewVolumeMonitor(logger *zap.Logger, endpoint domain.VolumeEndpoint, bus *events.Bus) *VolumeMonitor {
	return &VolumeMonitor{
		logger:    logger,
		endpoint:  endpoint,
		bus:       bus,
		interval:  VolumePollInterval,
		available: true,
	}
}

// Start takes an initial reading and begins polling
func (v *VolumeMonitor) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.mu.Unlock()
		return nil
	}
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	v.cancel = cancel
	v.mu.Unlock()

	v.logger.Info("Starting volume polling", zap.Duration("interval", v.interval))
	v.Refresh(pollCtx)

	v.wg.Add(1)
	go v.poll(pollCtx)
	return nil
}

func (v *VolumeMonitor) poll(ctx context.Context) {
	defer v.wg.Done()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Refresh(ctx)
		}
	}
}

// Stop ends polling. Safe to call repeatedly.
func (v *VolumeMonitor) Stop(ctx context.Context) error {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	v.wg.Wait()
	v.logger.Info("Volume polling stopped")
	return nil
}

// Refresh reads the endpoint and notifies listeners if the level or mute flag changed
func (v *VolumeMonitor) Refresh(ctx context.Context) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, endpointTimeout)
	defer cancel()

	level, err := v.endpoint.ReadVolume(ctx)
	if err != nil {
		v.markUnavailable("read volume", err)
		return
	}
	muted, err := v.endpoint.ReadMute(ctx)
	if err != nil {
		v.markUnavailable("read mute", err)
		return
	}

	v.update(func(r *domain.VolumeReading) {
		r.Level = clamp(level)
		r.Muted = muted
	})
}

// Reading returns the cached volume reading
func (v *VolumeMonitor) Reading() domain.VolumeReading {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reading
}

// Available reports whether the last endpoint access succeeded
func (v *VolumeMonitor) Available() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.available
}

// SetVolume clamps level to [0, 1], writes it through and updates the cache
// without waiting for the next poll. NaN is ignored.
func (v *VolumeMonitor) SetVolume(level float64) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	v.setVolume(level)
}

// Increase raises the volume by one step
func (v *VolumeMonitor) Increase() {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	v.setVolume(v.Reading().Level + VolumeStep)
}

// Decrease lowers the volume by one step
func (v *VolumeMonitor) Decrease() {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	v.setVolume(v.Reading().Level - VolumeStep)
}

// ToggleMute inverts the cached mute flag and writes it through
func (v *VolumeMonitor) ToggleMute() {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	v.setMute(!v.Reading().Muted)
}

// SetMute writes the mute flag through and updates the cache
func (v *VolumeMonitor) SetMute(muted bool) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	v.setMute(muted)
}

func (v *VolumeMonitor) setVolume(level float64) {
	if math.IsNaN(level) {
		v.logger.Warn("Ignoring volume level that is not a number")
		return
	}
	level = clamp(level)

	ctx, cancel := context.WithTimeout(context.Background(), endpointTimeout)
	defer cancel()
	if err := v.endpoint.WriteVolume(ctx, level); err != nil {
		v.markUnavailable("set volume", err)
		return
	}
	v.update(func(r *domain.VolumeReading) { r.Level = level })
}

func (v *VolumeMonitor) setMute(muted bool) {
	ctx, cancel := context.WithTimeout(context.Background(), endpointTimeout)
	defer cancel()
	if err := v.endpoint.WriteMute(ctx, muted); err != nil {
		v.markUnavailable("set mute", err)
		return
	}
	v.update(func(r *domain.VolumeReading) { r.Muted = muted })
}

// update applies fn to the cached reading and publishes a change if any
func (v *VolumeMonitor) update(fn func(*domain.VolumeReading)) {
	v.mu.Lock()
	next := v.reading
	fn(&next)
	changed := !v.seeded || next != v.reading
	v.reading = next
	v.seeded = true
	v.available = true
	v.mu.Unlock()

	if !changed {
		return
	}
	v.logger.Debug("Volume changed", zap.Float64("level", next.Level), zap.Bool("muted", next.Muted))
	v.bus.PublishVolume(events.VolumeChanged{Reading: next})
}

func (v *VolumeMonitor) markUnavailable(op string, err error) {
	v.mu.Lock()
	wasAvailable := v.available
	v.available = false
	v.mu.Unlock()

	if wasAvailable {
		v.logger.Error("Volume endpoint unavailable", zap.String("op", op), zap.Error(err))
	} else {
		v.logger.Debug("Volume endpoint still unavailable", zap.String("op", op), zap.Error(err))
	}
}

// clamp limits level to [0, 1]; NaN maps to 0
func clamp(level float64) float64 {
	switch {
	case math.IsNaN(level):
		return 0
	case level < 0:
		return 0
	case level > 1:
		return 1
	}
	return level
}
