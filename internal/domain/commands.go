package domain

// PlayerCommand is a command received from the automation hub.
// The string value is the wire name used in JSON payloads.
type PlayerCommand string

const (
	CommandPlay       PlayerCommand = "media_play"
	CommandPause      PlayerCommand = "media_pause"
	CommandPlayPause  PlayerCommand = "media_play_pause"
	CommandStop       PlayerCommand = "media_stop"
	CommandNext       PlayerCommand = "media_next_track"
	CommandPrevious   PlayerCommand = "media_previous_track"
	CommandVolumeSet  PlayerCommand = "volume_set"
	CommandVolumeUp   PlayerCommand = "volume_up"
	CommandVolumeDown PlayerCommand = "volume_down"
	CommandMute       PlayerCommand = "volume_mute"
)

// AllCommands lists every command in declaration order.
// JSON key matching walks this slice, so the order is significant.
var AllCommands = []PlayerCommand{
	CommandPlay,
	CommandPause,
	CommandPlayPause,
	CommandStop,
	CommandNext,
	CommandPrevious,
	CommandVolumeSet,
	CommandVolumeUp,
	CommandVolumeDown,
	CommandMute,
}

// LookupCommand returns the command with the given wire name
func LookupCommand(name string) (PlayerCommand, bool) {
	for _, c := range AllCommands {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// IsVolume reports whether the command is resolved against the volume monitor
func (c PlayerCommand) IsVolume() bool {
	switch c {
	case CommandVolumeSet, CommandVolumeUp, CommandVolumeDown, CommandMute:
		return true
	}
	return false
}

// IsMedia reports whether the command is dispatched to the helper binary
func (c PlayerCommand) IsMedia() bool {
	return !c.IsVolume()
}

// HelperSubcommand returns the helper argument for a media command.
// The helper has no stop, so stop pauses.
func (c PlayerCommand) HelperSubcommand() (string, bool) {
	switch c {
	case CommandPlay:
		return "play", true
	case CommandPause, CommandStop:
		return "pause", true
	case CommandPlayPause:
		return "toggle-play-pause", true
	case CommandNext:
		return "next", true
	case CommandPrevious:
		return "previous", true
	}
	return "", false
}

// CommandResult is the outcome of executing one command
type CommandResult struct {
	Command PlayerCommand
	Err     error
}

// Success reports whether the command was executed
func (r CommandResult) Success() bool {
	return r.Err == nil
}
