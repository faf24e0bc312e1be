package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// PlayerState mirrors the Home Assistant media_player states
type PlayerState string

const (
	// StatePlaying indicates the media is currently playing
	StatePlaying PlayerState = "playing"
	// StatePaused indicates a track is loaded but not playing
	StatePaused PlayerState = "paused"
	// StateIdle indicates no source application and no track
	StateIdle PlayerState = "idle"
	// StateOff is reported by consumers when the bridge is down
	StateOff PlayerState = "off"
	// StateUnavailable is reported when the helper cannot be reached
	StateUnavailable PlayerState = "unavailable"
)

// MediaState is an immutable snapshot of the "now playing" information.
// Empty strings mean "unknown". Duration and Position are only meaningful
// when the matching Has flag is set, so a track at 0:00 still reports its
// position.
type MediaState struct {
	Title    string
	Artist   string
	Album    string
	Duration float64 // seconds
	Position float64 // seconds

	HasDuration bool
	HasPosition bool

	AppBundleID string
	AppName     string

	ArtworkData     []byte
	ArtworkMIMEType string

	Playing    bool
	CapturedAt time.Time
}

// IdleMediaState is the snapshot emitted when the helper stream is not running
func IdleMediaState() MediaState {
	return MediaState{}
}

// State derives the player state from the snapshot
func (s MediaState) State() PlayerState {
	if s.AppBundleID == "" && s.Title == "" {
		return StateIdle
	}
	if s.Playing {
		return StatePlaying
	}
	return StatePaused
}

// HasTrack reports whether a title or artist is known
func (s MediaState) HasTrack() bool {
	return s.Title != "" || s.Artist != ""
}

// MediaType returns "music" when a track is loaded and "" otherwise
func (s MediaState) MediaType() string {
	if s.HasTrack() {
		return "music"
	}
	return ""
}

// ArtworkBase64 returns the artwork encoded for MQTT, or "" when absent
func (s MediaState) ArtworkBase64() string {
	if len(s.ArtworkData) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(s.ArtworkData)
}

// EntityPicture returns the artwork as a data URL
func (s MediaState) EntityPicture() string {
	if len(s.ArtworkData) == 0 || s.ArtworkMIMEType == "" {
		return ""
	}
	return "data:" + s.ArtworkMIMEType + ";base64," + s.ArtworkBase64()
}

// Equal compares every field except the capture timestamp
func (s MediaState) Equal(o MediaState) bool {
	return s.Title == o.Title &&
		s.Artist == o.Artist &&
		s.Album == o.Album &&
		s.Duration == o.Duration &&
		s.Position == o.Position &&
		s.HasDuration == o.HasDuration &&
		s.HasPosition == o.HasPosition &&
		s.AppBundleID == o.AppBundleID &&
		s.AppName == o.AppName &&
		s.ArtworkMIMEType == o.ArtworkMIMEType &&
		s.Playing == o.Playing &&
		bytes.Equal(s.ArtworkData, o.ArtworkData)
}

// HomeAssistantJSON renders the aggregate attributes document with sorted keys
func (s MediaState) HomeAssistantJSON(volume VolumeReading) ([]byte, error) {
	doc := map[string]any{
		"state":           string(s.State()),
		"volume_level":    volume.Level,
		"is_volume_muted": volume.Muted,
	}
	if s.Title != "" {
		doc["media_title"] = s.Title
	}
	if s.Artist != "" {
		doc["media_artist"] = s.Artist
	}
	if s.Album != "" {
		doc["media_album_name"] = s.Album
	}
	if s.AppName != "" {
		doc["app_name"] = s.AppName
	}
	if s.HasDuration {
		doc["media_duration"] = int(s.Duration)
	}
	if s.HasPosition {
		doc["media_position"] = int(s.Position)
		doc["media_position_updated_at"] = s.CapturedAt.UTC().Format(time.RFC3339)
	}
	if pic := s.EntityPicture(); pic != "" {
		doc["entity_picture"] = pic
	}
	if s.HasTrack() {
		doc["media_content_type"] = "music"
	} else {
		doc["media_content_type"] = nil
	}
	// encoding/json sorts map keys
	return json.Marshal(doc)
}

var knownApps = map[string]string{
	"com.spotify.client":    "Spotify",
	"com.apple.Music":       "Apple Music",
	"com.apple.podcasts":    "Podcasts",
	"com.tidal.desktop":     "TIDAL",
	"tv.plex.desktop":       "Plex",
	"com.plexamp.Plexamp":   "Plexamp",
	"com.google.Chrome":     "Chrome",
	"org.mozilla.firefox":   "Firefox",
	"com.apple.Safari":      "Safari",
	"com.brave.Browser":     "Brave",
	"com.microsoft.edgemac": "Edge",
	"com.apple.TV":          "Apple TV",
	"com.netflix.Netflix":   "Netflix",
	"tv.twitch.android":     "Twitch",
	"com.amazon.aiv.AIVApp": "Prime Video",
}

// AppNameFromBundleID maps a bundle identifier to a display name.
// Unknown identifiers fall back to their capitalised last component.
func AppNameFromBundleID(bundleID string) string {
	if bundleID == "" {
		return ""
	}
	if name, ok := knownApps[bundleID]; ok {
		return name
	}
	parts := strings.Split(bundleID, ".")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return strings.ToUpper(last[:1]) + strings.ToLower(last[1:])
}

// VolumeReading is the system output volume
type VolumeReading struct {
	Level float64 // 0.0 - 1.0
	Muted bool
}

// ConnectionStatus is the kind of a ConnectionState
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusDisconnecting
	StatusError
)

// ConnectionState is the broker connection state. Reason is only set for StatusError.
type ConnectionState struct {
	Status ConnectionStatus
	Reason string
}

// Disconnected is the initial connection state
var Disconnected = ConnectionState{Status: StatusDisconnected}

// ConnectionError builds an error state with the given reason
func ConnectionError(reason string) ConnectionState {
	return ConnectionState{Status: StatusError, Reason: reason}
}

// IsConnected reports whether publishes are currently allowed
func (c ConnectionState) IsConnected() bool {
	return c.Status == StatusConnected
}

func (c ConnectionState) String() string {
	switch c.Status {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting..."
	case StatusConnected:
		return "Connected"
	case StatusDisconnecting:
		return "Disconnecting..."
	case StatusError:
		return "Error: " + c.Reason
	}
	return "Unknown"
}
