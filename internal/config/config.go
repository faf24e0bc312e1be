package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/genricoloni/mediabridge/internal/domain"
)

const (
	// DefaultPort is the plain MQTT port
	DefaultPort = 1883
	// DefaultTLSPort is substituted when TLS is enabled on the default port
	DefaultTLSPort = 8883
	// DefaultBaseTopic is the topic namespace for state and command topics
	DefaultBaseTopic = "mac_media_player"
	// DefaultDiscoveryPrefix is the Home Assistant discovery prefix
	DefaultDiscoveryPrefix = "homeassistant"

	uniqueIDPrefix = "mac_media_player_"
	clientIDPrefix = "MacMediaPlayer_"
)

// Configuration is the broker and topic configuration consumed by the bridge.
// It is a value: reloads produce a new Configuration rather than mutating one.
type Configuration struct {
	Host            string
	Port            int
	UseTLS          bool
	Username        string
	PasswordRef     string // resolved by a SecretResolver at connect time
	BaseTopic       string
	DiscoveryPrefix string
	DeviceName      string

	// Hostname is injected at load time; every derived identifier is a
	// pure function of it.
	Hostname string
}

// IsValid reports whether a connection can be attempted
func (c Configuration) IsValid() bool {
	return c.Host != "" && c.Port > 0
}

// Validate returns domain.ErrConfigurationInvalid describing what is missing
func (c Configuration) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("%w: missing host", domain.ErrConfigurationInvalid)
	case c.Port <= 0:
		return fmt.Errorf("%w: port must be positive, got %d", domain.ErrConfigurationInvalid, c.Port)
	}
	return nil
}

// EffectivePort substitutes the TLS port when TLS is on and no explicit port was set
func (c Configuration) EffectivePort() int {
	if c.UseTLS && c.Port == DefaultPort {
		return DefaultTLSPort
	}
	return c.Port
}

// BrokerURL returns the paho broker address for this configuration
func (c Configuration) BrokerURL() string {
	scheme := "tcp"
	if c.UseTLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.EffectivePort())
}

// ClientID returns the MQTT client identifier for the given process id
func (c Configuration) ClientID(pid int) string {
	return ClientIDFor(c.Hostname, pid)
}

// UniqueID returns the stable device identifier
func (c Configuration) UniqueID() string {
	return UniqueIDFor(c.Hostname)
}

// EffectiveDeviceName returns the configured device name or the hostname
func (c Configuration) EffectiveDeviceName() string {
	if c.DeviceName != "" {
		return c.DeviceName
	}
	if c.Hostname != "" {
		return c.Hostname
	}
	return "Mac Media Player"
}

// DiscoveryTopic is D/media_player/U/config
func (c Configuration) DiscoveryTopic() string {
	return c.DiscoveryPrefix + "/media_player/" + c.UniqueID() + "/config"
}

// Topic returns B/name
func (c Configuration) Topic(name string) string {
	return c.BaseTopic + "/" + name
}

// StateTopic is B/state
func (c Configuration) StateTopic() string { return c.Topic("state") }

// CommandTopic is B/command
func (c Configuration) CommandTopic() string { return c.Topic("command") }

// VolumeCommandTopic is B/set_volume
func (c Configuration) VolumeCommandTopic() string { return c.Topic("set_volume") }

// AvailabilityTopic is B/available
func (c Configuration) AvailabilityTopic() string { return c.Topic("available") }

// ClientIDFor builds MacMediaPlayer_<hostname>_<pid> with spaces replaced by underscores
func ClientIDFor(hostname string, pid int) string {
	if hostname == "" {
		hostname = "Mac"
	}
	return fmt.Sprintf("%s%s_%d", clientIDPrefix, strings.ReplaceAll(hostname, " ", "_"), pid)
}

// UniqueIDFor lower-cases the hostname, turns spaces into underscores and
// drops everything that is not a letter, digit or underscore.
func UniqueIDFor(hostname string) string {
	if hostname == "" {
		hostname = "mac"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.ReplaceAll(hostname, " ", "_")) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return uniqueIDPrefix + b.String()
}
