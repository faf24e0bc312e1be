package monitor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/genricoloni/mediabridge/internal/process"
	"go.uber.org/zap"
)

// ErrVolumeUnsupported is returned by the endpoint on platforms without volume control
var ErrVolumeUnsupported = errors.New("volume control is not supported on this platform")

// OSAScriptEndpoint controls the macOS output volume through osascript
type OSAScriptEndpoint struct {
	logger *zap.Logger
	run    process.Runner
	binary string
}

// NewOSAScriptEndpoint creates an endpoint that shells out to osascript
func NewOSAScriptEndpoint(logger *zap.Logger, run process.Runner) *OSAScriptEndpoint {
	return &OSAScriptEndpoint{logger: logger, run: run, binary: "/usr/bin/osascript"}
}

func (e *OSAScriptEndpoint) eval(ctx context.Context, script string) (string, error) {
	out, err := e.run(ctx, e.binary, "-e", script)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ReadVolume implements domain.VolumeEndpoint
func (e *OSAScriptEndpoint) ReadVolume(ctx context.Context) (float64, error) {
	out, err := e.eval(ctx, "output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	return parsePercent(out)
}

// ReadMute implements domain.VolumeEndpoint
func (e *OSAScriptEndpoint) ReadMute(ctx context.Context) (bool, error) {
	out, err := e.eval(ctx, "output muted of (get volume settings)")
	if err != nil {
		return false, err
	}
	if out == "missing value" {
		// Outputs without a mute control (HDMI, some USB DACs)
		return false, nil
	}
	return strconv.ParseBool(out)
}

// WriteVolume implements domain.VolumeEndpoint
func (e *OSAScriptEndpoint) WriteVolume(ctx context.Context, level float64) error {
	_, err := e.eval(ctx, fmt.Sprintf("set volume output volume %d", toPercent(level)))
	return err
}

// WriteMute implements domain.VolumeEndpoint
func (e *OSAScriptEndpoint) WriteMute(ctx context.Context, muted bool) error {
	_, err := e.eval(ctx, "set volume output muted "+strconv.FormatBool(muted))
	return err
}

// PactlEndpoint controls the default PulseAudio/PipeWire sink through pactl
type PactlEndpoint struct {
	logger *zap.Logger
	run    process.Runner
	binary string
}

const defaultSink = "@DEFAULT_SINK@"

// NewPactlEndpoint creates an endpoint that shells out to pactl
func NewPactlEndpoint(logger *zap.Logger, run process.Runner) *PactlEndpoint {
	return &PactlEndpoint{logger: logger, run: run, binary: "pactl"}
}

var percentPattern = regexp.MustCompile(`(\d+)%`)

// ReadVolume implements domain.VolumeEndpoint
func (e *PactlEndpoint) ReadVolume(ctx context.Context) (float64, error) {
	out, err := e.run(ctx, e.binary, "get-sink-volume", defaultSink)
	if err != nil {
		return 0, err
	}
	// Volume: front-left: 45875 /  70% / -9.29 dB,   front-right: ...
	m := percentPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("unexpected pactl volume output: %q", strings.TrimSpace(out))
	}
	return parsePercent(m[1])
}

// ReadMute implements domain.VolumeEndpoint
func (e *PactlEndpoint) ReadMute(ctx context.Context) (bool, error) {
	out, err := e.run(ctx, e.binary, "get-sink-mute", defaultSink)
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(out), "Mute:")) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("unexpected pactl mute output: %q", strings.TrimSpace(out))
}

// WriteVolume implements domain.VolumeEndpoint
func (e *PactlEndpoint) WriteVolume(ctx context.Context, level float64) error {
	_, err := e.run(ctx, e.binary, "set-sink-volume", defaultSink, fmt.Sprintf("%d%%", toPercent(level)))
	return err
}

// WriteMute implements domain.VolumeEndpoint
func (e *PactlEndpoint) WriteMute(ctx context.Context, muted bool) error {
	flag := "0"
	if muted {
		flag = "1"
	}
	_, err := e.run(ctx, e.binary, "set-sink-mute", defaultSink, flag)
	return err
}

// UnsupportedEndpoint reports ErrVolumeUnsupported for every operation
type UnsupportedEndpoint struct{}

// ReadVolume implements domain.VolumeEndpoint
func (UnsupportedEndpoint) ReadVolume(context.Context) (float64, error) {
	return 0, ErrVolumeUnsupported
}

// ReadMute implements domain.VolumeEndpoint
func (UnsupportedEndpoint) ReadMute(context.Context) (bool, error) { return false, ErrVolumeUnsupported }

// WriteVolume implements domain.VolumeEndpoint
func (UnsupportedEndpoint) WriteVolume(context.Context, float64) error { return ErrVolumeUnsupported }

// WriteMute implements domain.VolumeEndpoint
func (UnsupportedEndpoint) WriteMute(context.Context, bool) error { return ErrVolumeUnsupported }

// parsePercent converts "0".."100" to a level in [0, 1]
func parsePercent(s string) (float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: %w", s, err)
	}
	return clamp(float64(n) / 100), nil
}

func toPercent(level float64) int {
	return int(clamp(level)*100 + 0.5)
}
