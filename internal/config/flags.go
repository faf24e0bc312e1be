package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags to viper keys
var flagKeys = map[string]string{
	"host":      KeyHost,
	"port":      KeyPort,
	"tls":       KeyTLS,
	"username":  KeyUsername,
	"log-level": KeyLogLevel,
}

// AddFlags registers the configuration flags on fs. Flag defaults are zero
// values so that only flags given explicitly override file and environment.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("host", "", "broker host")
	fs.Int("port", 0, "broker port (default 1883, 8883 with --tls)")
	fs.Bool("tls", false, "connect over TLS")
	fs.String("username", "", "broker username")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

// BindFlags binds the flags registered by AddFlags to v
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
