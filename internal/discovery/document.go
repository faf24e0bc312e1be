package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/genricoloni/mediabridge/internal/config"
	"github.com/genricoloni/mediabridge/internal/hostinfo"
)

// Manufacturer is reported in the device block
const Manufacturer = "Apple"

// Home Assistant media_player feature flags
const (
	FeaturePause         = 1
	FeatureVolumeSet     = 4
	FeatureVolumeMute    = 8
	FeaturePreviousTrack = 16
	FeatureNextTrack     = 32
	FeaturePlay          = 128
	FeatureStop          = 256
	FeatureVolumeStep    = 1024

	// SupportedFeatures is the bitmask of everything the bridge can execute
	SupportedFeatures = FeaturePause | FeatureVolumeSet | FeatureVolumeMute | FeaturePreviousTrack |
		FeatureNextTrack | FeaturePlay | FeatureStop | FeatureVolumeStep
)

// Literal payloads sent on the command topic
const (
	PayloadPlay      = "play"
	PayloadPause     = "pause"
	PayloadPlayPause = "playpause"
	PayloadNext      = "next"
	PayloadPrevious  = "previous"
)

// Per-field state topic names under the base topic
const (
	TopicState      = "state"
	TopicTitle      = "title"
	TopicArtist     = "artist"
	TopicAlbum      = "album"
	TopicDuration   = "duration"
	TopicPosition   = "position"
	TopicVolume     = "volume"
	TopicAlbumArt   = "albumart"
	TopicMediaType  = "mediatype"
	TopicAttributes = "attributes"
)

// Availability describes the availability topic and its payloads
type Availability struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available"`
	PayloadNotAvailable string `json:"payload_not_available"`
}

// Device is the Home Assistant device registry entry
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
	SWVersion    string   `json:"sw_version"`
}

// Document is the MQTT discovery payload for a hass-mqtt-mediaplayer entity
type Document struct {
	Name         string       `json:"name"`
	UniqueID     string       `json:"unique_id"`
	Availability Availability `json:"availability"`

	StateStateTopic     string `json:"state_state_topic"`
	StateTitleTopic     string `json:"state_title_topic"`
	StateArtistTopic    string `json:"state_artist_topic"`
	StateAlbumTopic     string `json:"state_album_topic"`
	StateDurationTopic  string `json:"state_duration_topic"`
	StatePositionTopic  string `json:"state_position_topic"`
	StateVolumeTopic    string `json:"state_volume_topic"`
	StateAlbumArtTopic  string `json:"state_albumart_topic"`
	StateMediaTypeTopic string `json:"state_mediatype_topic"`

	CommandVolumeTopic      string `json:"command_volume_topic"`
	CommandPlayTopic        string `json:"command_play_topic"`
	CommandPlayPayload      string `json:"command_play_payload"`
	CommandPauseTopic       string `json:"command_pause_topic"`
	CommandPausePayload     string `json:"command_pause_payload"`
	CommandPlayPauseTopic   string `json:"command_playpause_topic"`
	CommandPlayPausePayload string `json:"command_playpause_payload"`
	CommandNextTopic        string `json:"command_next_topic"`
	CommandNextPayload      string `json:"command_next_payload"`
	CommandPreviousTopic    string `json:"command_previous_topic"`
	CommandPreviousPayload  string `json:"command_previous_payload"`

	Device Device `json:"device"`
}

// BuildDocument derives the discovery document from the configuration and host
func BuildDocument(cfg config.Configuration, host hostinfo.Descriptor) Document {
	command := cfg.CommandTopic()
	name := cfg.EffectiveDeviceName()
	uid := cfg.UniqueID()

	return Document{
		Name:     name,
		UniqueID: uid,
		Availability: Availability{
			Topic:               cfg.AvailabilityTopic(),
			PayloadAvailable:    "online",
			PayloadNotAvailable: "offline",
		},

		StateStateTopic:     cfg.Topic(TopicState),
		StateTitleTopic:     cfg.Topic(TopicTitle),
		StateArtistTopic:    cfg.Topic(TopicArtist),
		StateAlbumTopic:     cfg.Topic(TopicAlbum),
		StateDurationTopic:  cfg.Topic(TopicDuration),
		StatePositionTopic:  cfg.Topic(TopicPosition),
		StateVolumeTopic:    cfg.Topic(TopicVolume),
		StateAlbumArtTopic:  cfg.Topic(TopicAlbumArt),
		StateMediaTypeTopic: cfg.Topic(TopicMediaType),

		CommandVolumeTopic:      cfg.VolumeCommandTopic(),
		CommandPlayTopic:        command,
		CommandPlayPayload:      PayloadPlay,
		CommandPauseTopic:       command,
		CommandPausePayload:     PayloadPause,
		CommandPlayPauseTopic:   command,
		CommandPlayPausePayload: PayloadPlayPause,
		CommandNextTopic:        command,
		CommandNextPayload:      PayloadNext,
		CommandPreviousTopic:    command,
		CommandPreviousPayload:  PayloadPrevious,

		Device: Device{
			Identifiers:  []string{uid},
			Name:         name,
			Model:        host.Model,
			Manufacturer: Manufacturer,
			SWVersion:    host.OSVersion,
		},
	}
}

// JSON serializes the document with keys sorted at every level
func (d Document) JSON() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode discovery document: %w", err)
	}
	// Round-trip through a map: encoding/json writes map keys in sorted order
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to normalise discovery document: %w", err)
	}
	return json.Marshal(generic)
}
