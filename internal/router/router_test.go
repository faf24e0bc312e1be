package router

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/mediabridge/internal/config"
	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/events"
	"github.com/genricoloni/mediabridge/internal/executor"
	"github.com/genricoloni/mediabridge/internal/monitor"
	"github.com/genricoloni/mediabridge/internal/process"
	"go.uber.org/zap"
)

type execution struct {
	cmd   domain.PlayerCommand
	value any
}

type fakeExecutor struct {
	mu    sync.Mutex
	calls []execution
	err   error
}

func (f *fakeExecutor) Execute(_ context.Context, cmd domain.PlayerCommand, value any) domain.CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, execution{cmd: cmd, value: value})
	return domain.CommandResult{Command: cmd, Err: f.err}
}

func (f *fakeExecutor) executions() []execution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]execution(nil), f.calls...)
}

type signalPublisher struct {
	fired chan time.Time
}

func (p *signalPublisher) PublishState() {
	p.fired <- time.Now()
}

func testConfig() config.Configuration {
	return config.Configuration{
		Host:      "broker.lan",
		Port:      config.DefaultPort,
		BaseTopic: config.DefaultBaseTopic,
	}
}

func newTestRouter(t *testing.T, exec domain.Executor) (*Router, *signalPublisher) {
	t.Helper()
	pub := &signalPublisher{fired: make(chan time.Time, 8)}
	r := NewRouter(zap.NewNop(), exec, pub, nil, nil, testConfig())
	t.Cleanup(r.Close)
	return r, pub
}

func TestRouter_Handle(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    []execution
	}{
		{
			name:    "Volume Topic",
			topic:   "mac_media_player/set_volume",
			payload: "0.25",
			want:    []execution{{cmd: domain.CommandVolumeSet, value: 0.25}},
		},
		{
			name:    "Malformed Volume Dropped",
			topic:   "mac_media_player/set_volume",
			payload: "abc",
		},
		{
			name:    "NaN Volume Dropped",
			topic:   "mac_media_player/set_volume",
			payload: "nan",
		},
		{
			name:    "Infinite Volume Dropped",
			topic:   "mac_media_player/set_volume",
			payload: "inf",
		},
		{
			name:    "Negative Infinite Volume Dropped",
			topic:   "mac_media_player/set_volume",
			payload: "-inf",
		},
		{
			name:    "Literal Command",
			topic:   "mac_media_player/command",
			payload: "next",
			want:    []execution{{cmd: domain.CommandNext}},
		},
		{
			name:    "JSON Command",
			topic:   "mac_media_player/command",
			payload: `{"command": "media_stop"}`,
			want:    []execution{{cmd: domain.CommandStop}},
		},
		{
			name:    "Unknown Command Dropped",
			topic:   "mac_media_player/command",
			payload: "rewind",
		},
		{
			name:    "Unrelated Topic Ignored",
			topic:   "mac_media_player/state",
			payload: "play",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			r, pub := newTestRouter(t, exec)

			r.Handle(tt.topic, tt.payload)

			if len(tt.want) == 0 {
				time.Sleep(2 * SettleDelay)
				if got := exec.executions(); len(got) != 0 {
					t.Errorf("expected no execution, got %v", got)
				}
				if len(pub.fired) != 0 {
					t.Error("dropped message must not trigger a re-publish")
				}
				return
			}

			select {
			case <-pub.fired:
			case <-time.After(time.Second):
				t.Fatal("state was not re-published")
			}
			got := exec.executions()
			if len(got) != len(tt.want) {
				t.Fatalf("executions = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("execution %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRouter_RepublishesAfterFailureAndSettleDelay(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("media-control not found")}
	r, pub := newTestRouter(t, exec)

	results := make(chan domain.CommandResult, 1)
	bus := events.NewBus()
	defer bus.Close()
	bus.OnCommand(func(ev events.CommandExecuted) { results <- ev.Result })
	r.bus = bus

	start := time.Now()
	r.Handle("mac_media_player/command", "play")

	select {
	case at := <-pub.fired:
		if elapsed := at.Sub(start); elapsed < SettleDelay {
			t.Errorf("re-published after %v, want at least %v", elapsed, SettleDelay)
		}
	case <-time.After(time.Second):
		t.Fatal("failed command must still trigger a re-publish")
	}

	select {
	case res := <-results:
		if res.Success() || res.Command != domain.CommandPlay {
			t.Errorf("unexpected result %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("command result was not broadcast")
	}
}

func TestRouter_ConfigurationSwap(t *testing.T) {
	exec := &fakeExecutor{}
	r, pub := newTestRouter(t, exec)

	cfg := testConfig()
	cfg.BaseTopic = "office"
	r.SetConfiguration(cfg)

	r.Handle("mac_media_player/command", "play")
	r.Handle("office/command", "pause")

	select {
	case <-pub.fired:
	case <-time.After(time.Second):
		t.Fatal("no re-publish")
	}
	got := exec.executions()
	if len(got) != 1 || got[0].cmd != domain.CommandPause {
		t.Errorf("executions = %v, want only media_pause", got)
	}
}

func TestRouter_CloseCancelsPendingRepublish(t *testing.T) {
	exec := &fakeExecutor{}
	pub := &signalPublisher{fired: make(chan time.Time, 1)}
	r := NewRouter(zap.NewNop(), exec, pub, nil, nil, testConfig())
	r.settle = time.Hour

	r.Handle("mac_media_player/command", "play")
	r.Close()

	if len(pub.fired) != 0 {
		t.Error("re-publish should be cancelled on close")
	}

	// Messages after close are dropped
	r.Handle("mac_media_player/command", "pause")
	time.Sleep(20 * time.Millisecond)
	if n := len(exec.executions()); n > 1 {
		t.Errorf("executed %d commands after close", n)
	}
}

// slowEndpoint is a volume endpoint whose writes take a while to land
type slowEndpoint struct {
	mu     sync.Mutex
	level  float64
	writes []float64
}

func (e *slowEndpoint) ReadVolume(context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level, nil
}

func (e *slowEndpoint) ReadMute(context.Context) (bool, error) { return false, nil }

func (e *slowEndpoint) WriteVolume(_ context.Context, level float64) error {
	time.Sleep(20 * time.Millisecond)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = level
	e.writes = append(e.writes, level)
	return nil
}

func (e *slowEndpoint) WriteMute(context.Context, bool) error { return nil }

func TestRouter_VolumeStepsApplyInArrivalOrder(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	endpoint := &slowEndpoint{}
	volume := monitor.NewVolumeMonitor(zap.NewNop(), endpoint, bus)
	volume.SetVolume(0.5)

	exec := executor.NewCommandExecutor(zap.NewNop(), volume, process.Run, nil)
	r, pub := newTestRouter(t, exec)

	r.Handle("mac_media_player/command", `{"command":"volume_up"}`)
	r.Handle("mac_media_player/command", `{"command":"volume_up"}`)

	for range 2 {
		select {
		case <-pub.fired:
		case <-time.After(time.Second):
			t.Fatal("state was not re-published")
		}
	}

	if got := volume.Reading().Level; math.Abs(got-0.6) > 1e-9 {
		t.Errorf("level = %v, want 0.6", got)
	}
	endpoint.mu.Lock()
	defer endpoint.mu.Unlock()
	if len(endpoint.writes) != 3 {
		t.Fatalf("writes = %v, want 3", endpoint.writes)
	}
}

// overlapExecutor fails the test if two commands run at once
type overlapExecutor struct {
	t       *testing.T
	mu      sync.Mutex
	running bool
	order   []domain.PlayerCommand
}

func (o *overlapExecutor) Execute(_ context.Context, cmd domain.PlayerCommand, _ any) domain.CommandResult {
	o.mu.Lock()
	if o.running {
		o.t.Errorf("%s started while another command was running", cmd)
	}
	o.running = true
	o.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	o.mu.Lock()
	o.running = false
	o.order = append(o.order, cmd)
	o.mu.Unlock()
	return domain.CommandResult{Command: cmd}
}

func TestRouter_CommandsRunOneAtATime(t *testing.T) {
	exec := &overlapExecutor{t: t}
	r, pub := newTestRouter(t, exec)

	want := []domain.PlayerCommand{domain.CommandPlay, domain.CommandNext, domain.CommandPause, domain.CommandPrevious}
	for _, payload := range []string{"play", "next", "pause", "previous"} {
		r.Handle("mac_media_player/command", payload)
	}

	for range want {
		select {
		case <-pub.fired:
		case <-time.After(time.Second):
			t.Fatal("state was not re-published")
		}
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()
	if len(exec.order) != len(want) {
		t.Fatalf("order = %v, want %v", exec.order, want)
	}
	for i := range want {
		if exec.order[i] != want[i] {
			t.Errorf("command %d = %s, want %s", i, exec.order[i], want[i])
		}
	}
}
