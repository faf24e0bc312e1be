package domain

import "context"

// Tracker exposes the now-playing snapshot stream
type Tracker interface {
	// Start begins consuming the helper stream. It returns ErrBinaryNotFound
	// when the helper is missing and nil otherwise; consumption runs in the background.
	Start(ctx context.Context) error

	// Stop cancels the stream and any pending restart. Safe to call repeatedly.
	Stop(ctx context.Context) error

	// Current returns the last emitted snapshot
	Current() MediaState

	// Available reports whether the helper binary was resolved
	Available() bool
}

// VolumeEndpoint reads and writes the system output volume
//
//go:generate mockgen -destination=../monitor/mocks/volume_endpoint_mock.go -package=mocks github.com/genricoloni/mediabridge/internal/domain VolumeEndpoint
type VolumeEndpoint interface {
	// ReadVolume returns the output level in [0, 1]
	ReadVolume(ctx context.Context) (float64, error)

	// ReadMute returns the output mute flag
	ReadMute(ctx context.Context) (bool, error)

	// WriteVolume sets the output level in [0, 1]
	WriteVolume(ctx context.Context, level float64) error

	// WriteMute sets the output mute flag
	WriteMute(ctx context.Context, muted bool) error
}

// VolumeController is the subset of the volume monitor used by the executor
//
//go:generate mockgen -destination=../executor/mocks/volume_controller_mock.go -package=mocks github.com/genricoloni/mediabridge/internal/domain VolumeController
type VolumeController interface {
	Reading() VolumeReading
	SetVolume(level float64)
	Increase()
	Decrease()
	ToggleMute()
	SetMute(muted bool)
}

// Executor runs a player command. value carries the optional argument
// (a float64 level for volume_set, a bool for volume_mute).
type Executor interface {
	Execute(ctx context.Context, cmd PlayerCommand, value any) CommandResult
}

// StatePublisher writes the per-field state topics
type StatePublisher interface {
	PublishState()
}
