package events

import "github.com/genricoloni/mediabridge/internal/domain"

// Event type identifiers for kelindar/event
const (
	TypeMediaChanged uint32 = iota + 1
	TypeVolumeChanged
	TypeConnectionChanged
	TypeCommandExecuted
)

// Event is the interface required by kelindar/event
type Event interface {
	Type() uint32
}

// MediaChanged is published when the tracker emits a new snapshot
type MediaChanged struct {
	State domain.MediaState
}

// Type implements Event
func (MediaChanged) Type() uint32 { return TypeMediaChanged }

// VolumeChanged is published when the volume level or mute flag changes
type VolumeChanged struct {
	Reading domain.VolumeReading
}

// Type implements Event
func (VolumeChanged) Type() uint32 { return TypeVolumeChanged }

// ConnectionChanged is published on every broker state transition
type ConnectionChanged struct {
	State domain.ConnectionState
}

// Type implements Event
func (ConnectionChanged) Type() uint32 { return TypeConnectionChanged }

// CommandExecuted is published after the router ran a command
type CommandExecuted struct {
	Result domain.CommandResult
}

// Type implements Event
func (CommandExecuted) Type() uint32 { return TypeCommandExecuted }
