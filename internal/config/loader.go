package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Viper keys
const (
	KeyHost            = "mqtt.host"
	KeyPort            = "mqtt.port"
	KeyTLS             = "mqtt.tls"
	KeyUsername        = "mqtt.username"
	KeyPasswordRef     = "mqtt.password_ref"
	KeyBaseTopic       = "topics.base"
	KeyDiscoveryPrefix = "topics.discovery_prefix"
	KeyDeviceName      = "device.name"
	KeyHostname        = "device.hostname"
	KeyHelperPaths     = "helper.paths"
	KeyArtworkMaxSize  = "artwork.max_size"
	KeyMetricsAddr     = "metrics.addr"
	KeyLogLevel        = "log_level"
)

const envPrefix = "MEDIABRIDGE"

// DefaultHelperPaths are searched in order for the now-playing helper
var DefaultHelperPaths = []string{
	"/opt/homebrew/bin/media-control",
	"/usr/local/bin/media-control",
}

// AppConfig holds the settings that are not part of the broker Configuration
type AppConfig struct {
	HelperPaths    []string
	ArtworkMaxSize int
	MetricsAddr    string
	LogLevel       string
}

// Loader reads the configuration from flags, environment and file, and
// notifies listeners when the file changes.
type Loader struct {
	logger   *zap.Logger
	v        *viper.Viper
	hostname func() (string, error)

	mu        sync.RWMutex
	current   Configuration
	app       AppConfig
	fromFile  bool
	listeners []func(Configuration)
}

// NewViper creates a viper instance with defaults, env binding and the
// XDG config search path. configFile overrides the search path when set.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyTLS, false)
	v.SetDefault(KeyBaseTopic, DefaultBaseTopic)
	v.SetDefault(KeyDiscoveryPrefix, DefaultDiscoveryPrefix)
	v.SetDefault(KeyHelperPaths, DefaultHelperPaths)
	v.SetDefault(KeyArtworkMaxSize, 0)
	v.SetDefault(KeyLogLevel, "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			if home, err := os.UserHomeDir(); err == nil {
				configHome = filepath.Join(home, ".config")
			}
		}
		if configHome != "" {
			v.AddConfigPath(filepath.Join(configHome, "mediabridge"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewLoader creates a loader bound to v
func NewLoader(logger *zap.Logger, v *viper.Viper) *Loader {
	return &Loader{
		logger:   logger,
		v:        v,
		hostname: os.Hostname,
	}
}

// Load reads the configuration. A missing config file is not an error.
func (l *Loader) Load() (Configuration, error) {
	fromFile := true
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Configuration{}, err
		}
		fromFile = false
		l.logger.Debug("No config file found, using flags, environment and defaults")
	}

	cfg, app := l.read()

	l.mu.Lock()
	l.current = cfg
	l.app = app
	l.fromFile = fromFile
	l.mu.Unlock()

	l.logger.Info("Configuration loaded",
		zap.String("file", l.v.ConfigFileUsed()),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.EffectivePort()),
		zap.Bool("tls", cfg.UseTLS),
		zap.String("baseTopic", cfg.BaseTopic),
		zap.String("discoveryPrefix", cfg.DiscoveryPrefix))

	return cfg, nil
}

func (l *Loader) read() (Configuration, AppConfig) {
	hostname := l.v.GetString(KeyHostname)
	if hostname == "" {
		if h, err := l.hostname(); err == nil {
			// "name.local" => "name"
			hostname = strings.Split(h, ".")[0]
		} else {
			l.logger.Warn("Failed to read hostname", zap.Error(err))
		}
	}

	cfg := Configuration{
		Host:            l.v.GetString(KeyHost),
		Port:            l.v.GetInt(KeyPort),
		UseTLS:          l.v.GetBool(KeyTLS),
		Username:        l.v.GetString(KeyUsername),
		PasswordRef:     l.v.GetString(KeyPasswordRef),
		BaseTopic:       l.v.GetString(KeyBaseTopic),
		DiscoveryPrefix: l.v.GetString(KeyDiscoveryPrefix),
		DeviceName:      l.v.GetString(KeyDeviceName),
		Hostname:        hostname,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	app := AppConfig{
		HelperPaths:    l.v.GetStringSlice(KeyHelperPaths),
		ArtworkMaxSize: l.v.GetInt(KeyArtworkMaxSize),
		MetricsAddr:    l.v.GetString(KeyMetricsAddr),
		LogLevel:       l.v.GetString(KeyLogLevel),
	}
	return cfg, app
}

// Current returns the last loaded configuration
func (l *Loader) Current() Configuration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// App returns the last loaded application settings
func (l *Loader) App() AppConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.app
}

// OnReload registers a listener invoked with every reloaded configuration.
// The returned function unregisters it.
func (l *Loader) OnReload(fn func(Configuration)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
	idx := len(l.listeners) - 1
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if idx < len(l.listeners) {
			l.listeners[idx] = nil
		}
	}
}

// Watch starts watching the config file. Only changes that alter the
// broker Configuration are forwarded to listeners.
func (l *Loader) Watch() {
	l.mu.RLock()
	fromFile := l.fromFile
	l.mu.RUnlock()
	if !fromFile {
		l.logger.Debug("No config file in use, reload disabled")
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.logger.Info("Config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		l.reload()
	})
	l.v.WatchConfig()
}

func (l *Loader) reload() {
	cfg, app := l.read()

	l.mu.Lock()
	changed := cfg != l.current
	l.current = cfg
	l.app = app
	listeners := make([]func(Configuration), 0, len(l.listeners))
	for _, fn := range l.listeners {
		if fn != nil {
			listeners = append(listeners, fn)
		}
	}
	l.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(cfg)
	}
}
