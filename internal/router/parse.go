package router

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/genricoloni/mediabridge/internal/domain"
)

// literal tokens accepted on the command topic
var literalCommands = map[string]domain.PlayerCommand{
	"play":      domain.CommandPlay,
	"pause":     domain.CommandPause,
	"playpause": domain.CommandPlayPause,
	"next":      domain.CommandNext,
	"previous":  domain.CommandPrevious,
}

// ParseCommand decodes a command-topic payload. Literal tokens match
// case-insensitively; anything else is tried as a JSON object in this order:
// a numeric volume_level, a "command" field with an optional "value", then
// any command name used as a key. Finally the raw payload is matched
// against the command names.
func ParseCommand(payload string) (domain.PlayerCommand, any, bool) {
	if cmd, ok := literalCommands[strings.ToLower(payload)]; ok {
		return cmd, nil, true
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err == nil && obj != nil {
		if level, ok := obj["volume_level"].(float64); ok {
			return domain.CommandVolumeSet, level, true
		}
		if name, ok := obj["command"].(string); ok {
			if cmd, ok := domain.LookupCommand(name); ok {
				return cmd, obj["value"], true
			}
		}
		for _, cmd := range domain.AllCommands {
			if value, ok := obj[string(cmd)]; ok {
				return cmd, value, true
			}
		}
		return "", nil, false
	}

	if cmd, ok := domain.LookupCommand(payload); ok {
		return cmd, nil, true
	}
	return "", nil, false
}

// ParseVolume decodes a volume-topic payload as a bare float
func ParseVolume(payload string) (float64, error) {
	level, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil || math.IsNaN(level) || math.IsInf(level, 0) {
		return 0, fmt.Errorf("%w: %q is not a volume level", domain.ErrMalformedPayload, payload)
	}
	return level, nil
}
