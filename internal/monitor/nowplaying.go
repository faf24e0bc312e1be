package monitor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/events"
	"github.com/genricoloni/mediabridge/internal/metrics"
	"github.com/genricoloni/mediabridge/internal/process"
	"go.uber.org/zap"
)

const defaultRestartDelay = 2 * time.Second

// streamArgs asks the helper for one full (non-diffed) JSON snapshot per line
var streamArgs = []string{"stream", "--no-diff"}

// helperOutput is one line of `media-control stream --no-diff`
type helperOutput struct {
	Type    string        `json:"type"`
	Diff    bool          `json:"diff"`
	Payload helperPayload `json:"payload"`
}

type helperPayload struct {
	BundleIdentifier *string  `json:"bundleIdentifier"`
	Title            *string  `json:"title"`
	Artist           *string  `json:"artist"`
	Album            *string  `json:"album"`
	Duration         *float64 `json:"duration"`
	ElapsedTime      *float64 `json:"elapsedTime"`
	Playing          *bool    `json:"playing"`
	ArtworkData      *string  `json:"artworkData"`
	ArtworkMIMEType  *string  `json:"artworkMIMEType"`
}

// ArtworkNormalizer rewrites artwork before it enters a snapshot
type ArtworkNormalizer interface {
	Normalize(data []byte, mimeType string) ([]byte, string)
}

// NowPlayingTracker turns the helper's JSON line stream into deduplicated
// MediaState snapshots and restarts the helper when it crashes.
type NowPlayingTracker struct {
	logger       *zap.Logger
	bus          *events.Bus
	metrics      *metrics.Metrics
	artwork      ArtworkNormalizer
	binaryPath   string
	restartDelay time.Duration
	now          func() time.Time

	mu         sync.Mutex
	running    bool
	stream     *process.Stream
	restart    *time.Timer
	generation uint64
	current    domain.MediaState
	lastErr    error
	wg         sync.WaitGroup
}

// NewNowPlayingTracker creates a tracker for the helper at binaryPath.
// An empty binaryPath means the helper was not found.
func NewNowPlayingTracker(logger *zap.Logger, bus *events.Bus, m *metrics.Metrics, artwork ArtworkNormalizer, binaryPath string) *NowPlayingTracker {
	return &NowPlayingTracker{
		logger:       logger,
		bus:          bus,
		metrics:      m,
		artwork:      artwork,
		binaryPath:   binaryPath,
		restartDelay: defaultRestartDelay,
		now:          time.Now,
		current:      domain.IdleMediaState(),
	}
}

// Available reports whether the helper binary was resolved
func (t *NowPlayingTracker) Available() bool {
	return t.binaryPath != ""
}

// Running reports whether a helper stream is being consumed
func (t *NowPlayingTracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Current returns the last emitted snapshot
func (t *NowPlayingTracker) Current() domain.MediaState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// LastError returns the error that ended the previous stream, if any
func (t *NowPlayingTracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Start launches the helper stream. It fails fast with domain.ErrBinaryNotFound
// when no helper was resolved and is a no-op when already running.
func (t *NowPlayingTracker) Start(ctx context.Context) error {
	if !t.Available() {
		t.logger.Error("media-control binary not found",
			zap.String("install", domain.HelperInstallHint))
		t.mu.Lock()
		t.lastErr = domain.ErrBinaryNotFound
		t.mu.Unlock()
		return domain.ErrBinaryNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// The helper outlives the caller's start context
	return t.startLocked(context.WithoutCancel(ctx))
}

func (t *NowPlayingTracker) startLocked(ctx context.Context) error {
	if t.running {
		return nil
	}

	stream := process.NewStream(t.logger)
	lines, err := stream.Start(ctx, t.binaryPath, streamArgs...)
	if err != nil {
		t.lastErr = fmt.Errorf("%w: %v", errStreamFailed, err)
		t.logger.Error("Failed to start media-control stream", zap.Error(err))
		t.scheduleRestartLocked()
		return nil
	}

	t.generation++
	t.running = true
	t.stream = stream
	t.lastErr = nil

	t.logger.Info("Now playing tracker started", zap.String("binary", t.binaryPath))

	t.wg.Add(1)
	go t.consume(t.generation, stream, lines)
	return nil
}

var errStreamFailed = errors.New("media stream failed")

// consume reads lines until the stream closes, then reports how it ended
func (t *NowPlayingTracker) consume(gen uint64, stream *process.Stream, lines <-chan string) {
	defer t.wg.Done()

	for line := range lines {
		t.handleLine(gen, line)
	}
	<-stream.Done()
	t.handleStreamEnded(gen, stream.Err())
}

// handleLine decodes one JSON line and emits the snapshot if it changed.
// Malformed lines are dropped without touching the current state.
func (t *NowPlayingTracker) handleLine(gen uint64, line string) {
	state, err := t.decode(line)
	if err != nil {
		preview := line
		if len(preview) > 200 {
			preview = preview[:200]
		}
		t.logger.Warn("Dropping malformed helper line", zap.Error(err), zap.String("line", preview))
		return
	}

	t.mu.Lock()
	if gen != t.generation || !t.running {
		t.mu.Unlock()
		return
	}
	changed := !state.Equal(t.current)
	if changed {
		t.current = state
	}
	t.mu.Unlock()

	if !changed {
		return
	}

	t.logger.Info("Media change detected",
		zap.String("app", state.AppName),
		zap.String("title", state.Title),
		zap.String("artist", state.Artist),
		zap.String("state", string(state.State())))
	t.bus.PublishMedia(events.MediaChanged{State: state})
}

// decode parses a helper line into a snapshot
func (t *NowPlayingTracker) decode(line string) (domain.MediaState, error) {
	var out helperOutput
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		return domain.MediaState{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return t.project(out.Payload), nil
}

func (t *NowPlayingTracker) project(p helperPayload) domain.MediaState {
	state := domain.MediaState{
		Title:       deref(p.Title),
		Artist:      deref(p.Artist),
		Album:       deref(p.Album),
		AppBundleID: deref(p.BundleIdentifier),
		CapturedAt:  t.now(),
	}
	state.AppName = domain.AppNameFromBundleID(state.AppBundleID)
	if p.Duration != nil {
		state.Duration = *p.Duration
		state.HasDuration = true
	}
	if p.ElapsedTime != nil {
		state.Position = *p.ElapsedTime
		state.HasPosition = true
	}
	if p.Playing != nil {
		state.Playing = *p.Playing
	}

	if p.ArtworkData != nil && *p.ArtworkData != "" {
		data, err := base64.StdEncoding.DecodeString(*p.ArtworkData)
		if err != nil {
			t.logger.Debug("Ignoring undecodable artwork", zap.Error(err))
		} else {
			mime := deref(p.ArtworkMIMEType)
			if t.artwork != nil {
				data, mime = t.artwork.Normalize(data, mime)
			}
			state.ArtworkData = data
			state.ArtworkMIMEType = mime
		}
	}
	return state
}

// handleStreamEnded flips to idle and schedules a restart after a failure
func (t *NowPlayingTracker) handleStreamEnded(gen uint64, err error) {
	t.mu.Lock()
	if gen != t.generation || !t.running {
		// Stopped or superseded: Stop already reset the state
		t.mu.Unlock()
		return
	}
	t.running = false
	t.stream = nil

	if err != nil && !errors.Is(err, process.ErrTerminated) {
		t.lastErr = fmt.Errorf("%w: %v", errStreamFailed, err)
		t.logger.Error("media-control stream error", zap.Error(err))
		t.scheduleRestartLocked()
	} else {
		t.logger.Info("media-control stream ended")
	}

	idle := domain.IdleMediaState()
	changed := !idle.Equal(t.current)
	t.current = idle
	t.mu.Unlock()

	if changed {
		t.bus.PublishMedia(events.MediaChanged{State: idle})
	}
}

// scheduleRestartLocked replaces any pending restart with a new one
func (t *NowPlayingTracker) scheduleRestartLocked() {
	if t.restart != nil {
		t.restart.Stop()
	}
	gen := t.generation
	t.logger.Info("Scheduling media-control restart", zap.Duration("delay", t.restartDelay))

	var timer *time.Timer
	timer = time.AfterFunc(t.restartDelay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		// A Stop or a newer schedule invalidates this timer
		if t.restart != timer || gen != t.generation {
			return
		}
		t.restart = nil
		t.metrics.HelperRestarted()
		_ = t.startLocked(context.Background())
	})
	t.restart = timer
}

// Stop cancels the stream and any pending restart and resets to idle
func (t *NowPlayingTracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	t.generation++
	if t.restart != nil {
		t.restart.Stop()
		t.restart = nil
	}
	if t.stream != nil {
		t.stream.Terminate()
		t.stream = nil
	}
	wasRunning := t.running
	t.running = false
	idle := domain.IdleMediaState()
	changed := !idle.Equal(t.current)
	t.current = idle
	t.mu.Unlock()

	if wasRunning {
		t.logger.Info("Stopping media-control stream")
	}
	if changed {
		t.bus.PublishMedia(events.MediaChanged{State: idle})
	}

	// Wait for the reader goroutine to release the process
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restart stops and starts the stream
func (t *NowPlayingTracker) Restart(ctx context.Context) error {
	if err := t.Stop(ctx); err != nil {
		return err
	}
	return t.Start(ctx)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
