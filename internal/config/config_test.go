package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/genricoloni/mediabridge/internal/domain"
	"go.uber.org/zap"
)

func TestUniqueIDFor(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		want     string
	}{
		{name: "Plain", hostname: "studio", want: "mac_media_player_studio"},
		{name: "Spaces and Case", hostname: "Jane's MacBook Pro", want: "mac_media_player_janes_macbook_pro"},
		{name: "Symbols Stripped", hostname: "mac-mini.local", want: "mac_media_player_macminilocal"},
		{name: "Empty Falls Back", hostname: "", want: "mac_media_player_mac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UniqueIDFor(tt.hostname); got != tt.want {
				t.Errorf("UniqueIDFor(%q) = %q, want %q", tt.hostname, got, tt.want)
			}
		})
	}
}

func TestClientIDFor(t *testing.T) {
	if got := ClientIDFor("Living Room", 42); got != "MacMediaPlayer_Living_Room_42" {
		t.Errorf("unexpected client id: %s", got)
	}
}

func TestConfiguration_EffectivePort(t *testing.T) {
	tests := []struct {
		name string
		cfg  Configuration
		want int
	}{
		{name: "Plain Default", cfg: Configuration{Port: DefaultPort}, want: DefaultPort},
		{name: "TLS Default Substituted", cfg: Configuration{Port: DefaultPort, UseTLS: true}, want: DefaultTLSPort},
		{name: "TLS Explicit Port Kept", cfg: Configuration{Port: 9443, UseTLS: true}, want: 9443},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.EffectivePort(); got != tt.want {
				t.Errorf("EffectivePort() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfiguration_Validity(t *testing.T) {
	if (Configuration{Port: 1883}).IsValid() {
		t.Error("missing host should be invalid")
	}
	if (Configuration{Host: "broker"}).IsValid() {
		t.Error("zero port should be invalid")
	}
	if !(Configuration{Host: "broker", Port: 1883}).IsValid() {
		t.Error("host and port should be valid")
	}

	err := Configuration{Port: 1883}.Validate()
	if !errors.Is(err, domain.ErrConfigurationInvalid) {
		t.Errorf("expected ErrConfigurationInvalid, got %v", err)
	}
}

func TestConfiguration_Topics(t *testing.T) {
	cfg := Configuration{
		Host:            "broker",
		Port:            1883,
		BaseTopic:       "mac_media_player",
		DiscoveryPrefix: "homeassistant",
		Hostname:        "Studio",
	}

	checks := map[string]string{
		cfg.DiscoveryTopic():     "homeassistant/media_player/mac_media_player_studio/config",
		cfg.StateTopic():         "mac_media_player/state",
		cfg.CommandTopic():       "mac_media_player/command",
		cfg.VolumeCommandTopic(): "mac_media_player/set_volume",
		cfg.AvailabilityTopic():  "mac_media_player/available",
		cfg.BrokerURL():          "tcp://broker:1883",
	}
	for got, want := range checks {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	cfg.UseTLS = true
	if cfg.BrokerURL() != "ssl://broker:8883" {
		t.Errorf("unexpected TLS broker url: %s", cfg.BrokerURL())
	}
}

func TestEffectiveDeviceName(t *testing.T) {
	if got := (Configuration{DeviceName: "Office", Hostname: "mini"}).EffectiveDeviceName(); got != "Office" {
		t.Errorf("expected configured name, got %s", got)
	}
	if got := (Configuration{Hostname: "mini"}).EffectiveDeviceName(); got != "mini" {
		t.Errorf("expected hostname, got %s", got)
	}
}

func TestEnvFileResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pw")
	if err := os.WriteFile(path, []byte("s3cret\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDIABRIDGE_TEST_PW", "from-env")

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "Empty", ref: "", want: ""},
		{name: "Literal", ref: "plain", want: "plain"},
		{name: "Env", ref: "env:MEDIABRIDGE_TEST_PW", want: "from-env"},
		{name: "Env Missing", ref: "env:MEDIABRIDGE_DOES_NOT_EXIST", wantErr: true},
		{name: "File", ref: "file:" + path, want: "s3cret"},
		{name: "File Missing", ref: "file:" + filepath.Join(dir, "nope"), wantErr: true},
	}

	r := NewSecretResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestLoader_LoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `mqtt:
  host: broker.lan
  port: 1884
  username: hass
topics:
  base: living_room
device:
  hostname: Studio
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDIABRIDGE_MQTT_TLS", "true")

	loader := NewLoader(zap.NewNop(), NewViper(path))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Host != "broker.lan" || cfg.Port != 1884 || cfg.Username != "hass" {
		t.Errorf("unexpected broker settings: %+v", cfg)
	}
	if !cfg.UseTLS {
		t.Error("expected TLS from environment")
	}
	if cfg.BaseTopic != "living_room" {
		t.Errorf("unexpected base topic: %s", cfg.BaseTopic)
	}
	if cfg.DiscoveryPrefix != DefaultDiscoveryPrefix {
		t.Errorf("expected default discovery prefix, got %s", cfg.DiscoveryPrefix)
	}
	if cfg.UniqueID() != "mac_media_player_studio" {
		t.Errorf("unexpected unique id: %s", cfg.UniqueID())
	}
	if got := loader.App().HelperPaths; len(got) != len(DefaultHelperPaths) {
		t.Errorf("expected default helper paths, got %v", got)
	}
	if loader.Current() != cfg {
		t.Error("Current() should return the loaded configuration")
	}
}

func TestLoader_MissingFileIsNotAnError(t *testing.T) {
	loader := NewLoader(zap.NewNop(), NewViper(filepath.Join(t.TempDir(), "absent.yaml")))
	loader.hostname = func() (string, error) { return "mini.local", nil }

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if cfg.Hostname != "mini" {
		t.Errorf("expected domain suffix stripped, got %s", cfg.Hostname)
	}
	if cfg.IsValid() {
		t.Error("configuration without host should be invalid")
	}
}

func TestLoader_ReloadNotifiesOnChange(t *testing.T) {
	v := NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
	loader := NewLoader(zap.NewNop(), v)
	loader.hostname = func() (string, error) { return "mini", nil }
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}

	var got []Configuration
	unregister := loader.OnReload(func(c Configuration) { got = append(got, c) })

	loader.reload() // unchanged
	if len(got) != 0 {
		t.Fatalf("expected no notification for unchanged config, got %d", len(got))
	}

	v.Set(KeyHost, "broker.lan")
	loader.reload()
	if len(got) != 1 || got[0].Host != "broker.lan" {
		t.Fatalf("expected one notification with new host, got %+v", got)
	}

	unregister()
	v.Set(KeyHost, "other.lan")
	loader.reload()
	if len(got) != 1 {
		t.Errorf("unregistered listener should not be called, got %d calls", len(got))
	}
}

func TestLoader_WatchDeliversFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mqtt:\n  host: first.lan\n"), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(zap.NewNop(), NewViper(path))
	loader.hostname = func() (string, error) { return "mini", nil }
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan Configuration, 4)
	loader.OnReload(func(c Configuration) { reloaded <- c })
	loader.Watch()

	if err := os.WriteFile(path, []byte("mqtt:\n  host: second.lan\n"), 0600); err != nil {
		t.Fatal(err)
	}

	// The write may be observed mid-truncation first
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Host == "second.lan" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload with the new host")
		}
	}
}
