package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMediaState_State(t *testing.T) {
	tests := []struct {
		name  string
		state MediaState
		want  PlayerState
	}{
		{name: "Empty", state: MediaState{}, want: StateIdle},
		{name: "Playing Track", state: MediaState{Title: "Song", Playing: true}, want: StatePlaying},
		{name: "Paused Track", state: MediaState{Title: "Song"}, want: StatePaused},
		{name: "App Without Track", state: MediaState{AppBundleID: "com.spotify.client"}, want: StatePaused},
		{name: "Artist Only", state: MediaState{Artist: "Band"}, want: StatePaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.State(); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMediaState_EqualIgnoresCaptureTime(t *testing.T) {
	a := MediaState{Title: "Song", ArtworkData: []byte{1, 2}, CapturedAt: time.Unix(1, 0)}
	b := MediaState{Title: "Song", ArtworkData: []byte{1, 2}, CapturedAt: time.Unix(99, 0)}
	if !a.Equal(b) {
		t.Error("snapshots differing only in CapturedAt should be equal")
	}

	b.ArtworkData = []byte{1, 3}
	if a.Equal(b) {
		t.Error("artwork bytes must take part in equality")
	}

	c := MediaState{Title: "Song", HasPosition: true}
	if c.Equal(MediaState{Title: "Song"}) {
		t.Error("a known zero position must differ from an unknown one")
	}
}

func TestMediaState_ArtworkEncoding(t *testing.T) {
	s := MediaState{ArtworkData: []byte("png"), ArtworkMIMEType: "image/png"}
	if got := s.ArtworkBase64(); got != "cG5n" {
		t.Errorf("ArtworkBase64() = %q", got)
	}
	if got := s.EntityPicture(); got != "data:image/png;base64,cG5n" {
		t.Errorf("EntityPicture() = %q", got)
	}

	s.ArtworkMIMEType = ""
	if got := s.EntityPicture(); got != "" {
		t.Errorf("EntityPicture() without MIME type = %q, want empty", got)
	}
	if got := (MediaState{}).ArtworkBase64(); got != "" {
		t.Errorf("ArtworkBase64() without data = %q, want empty", got)
	}
}

func TestMediaState_HomeAssistantJSON(t *testing.T) {
	captured := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Full Snapshot", func(t *testing.T) {
		s := MediaState{
			Title:       "Song",
			Artist:      "Band",
			Album:       "Record",
			Duration:    245.7,
			Position:    12.3,
			HasDuration: true,
			HasPosition: true,
			AppBundleID: "com.spotify.client",
			AppName:     "Spotify",
			Playing:     true,
			CapturedAt:  captured,
		}
		raw, err := s.HomeAssistantJSON(VolumeReading{Level: 0.5, Muted: true})
		if err != nil {
			t.Fatalf("HomeAssistantJSON: %v", err)
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := map[string]any{
			"state":                     "playing",
			"volume_level":              0.5,
			"is_volume_muted":           true,
			"media_title":               "Song",
			"media_artist":              "Band",
			"media_album_name":          "Record",
			"app_name":                  "Spotify",
			"media_duration":            float64(245),
			"media_position":            float64(12),
			"media_position_updated_at": "2024-03-01T12:00:00Z",
			"media_content_type":        "music",
		}
		if len(doc) != len(want) {
			t.Errorf("got %d keys, want %d: %s", len(doc), len(want), raw)
		}
		for k, v := range want {
			if doc[k] != v {
				t.Errorf("%s = %v, want %v", k, doc[k], v)
			}
		}
	})

	t.Run("Track Start", func(t *testing.T) {
		s := MediaState{
			Title:       "Song",
			Duration:    180,
			HasDuration: true,
			HasPosition: true,
			Playing:     true,
			CapturedAt:  captured,
		}
		raw, err := s.HomeAssistantJSON(VolumeReading{Level: 0.2})
		if err != nil {
			t.Fatalf("HomeAssistantJSON: %v", err)
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got, ok := doc["media_position"]; !ok || got != float64(0) {
			t.Errorf("media_position = %v (present %v), want 0: %s", got, ok, raw)
		}
		if _, ok := doc["media_position_updated_at"]; !ok {
			t.Errorf("media_position_updated_at missing: %s", raw)
		}
	})

	t.Run("Unknown Position", func(t *testing.T) {
		s := MediaState{Title: "Song", Duration: 180, HasDuration: true, CapturedAt: captured}
		raw, err := s.HomeAssistantJSON(VolumeReading{})
		if err != nil {
			t.Fatalf("HomeAssistantJSON: %v", err)
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if _, ok := doc["media_position"]; ok {
			t.Errorf("media_position should be omitted: %s", raw)
		}
		if doc["media_duration"] != float64(180) {
			t.Errorf("media_duration = %v, want 180", doc["media_duration"])
		}
	})

	t.Run("Idle", func(t *testing.T) {
		raw, err := IdleMediaState().HomeAssistantJSON(VolumeReading{})
		if err != nil {
			t.Fatalf("HomeAssistantJSON: %v", err)
		}
		want := `{"is_volume_muted":false,"media_content_type":null,"state":"idle","volume_level":0}`
		if string(raw) != want {
			t.Errorf("got %s, want %s", raw, want)
		}
	})
}

func TestAppNameFromBundleID(t *testing.T) {
	tests := []struct {
		bundleID string
		want     string
	}{
		{"com.spotify.client", "Spotify"},
		{"com.apple.Music", "Apple Music"},
		{"com.example.coolPLAYER", "Coolplayer"},
		{"standalone", "Standalone"},
		{"com.trailing.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.bundleID, func(t *testing.T) {
			if got := AppNameFromBundleID(tt.bundleID); got != tt.want {
				t.Errorf("AppNameFromBundleID(%q) = %q, want %q", tt.bundleID, got, tt.want)
			}
		})
	}
}

func TestConnectionState_String(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  string
	}{
		{Disconnected, "Disconnected"},
		{ConnectionState{Status: StatusConnecting}, "Connecting..."},
		{ConnectionState{Status: StatusConnected}, "Connected"},
		{ConnectionState{Status: StatusDisconnecting}, "Disconnecting..."},
		{ConnectionError("max retries"), "Error: max retries"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if tt.state.IsConnected() != (tt.state.Status == StatusConnected) {
				t.Errorf("IsConnected() mismatch for %v", tt.state)
			}
		})
	}
}
