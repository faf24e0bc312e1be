package config

import (
	"fmt"
	"os"
	"strings"
)

// SecretResolver turns a password reference into the password
type SecretResolver interface {
	Resolve(ref string) (string, error)
}

// EnvFileResolver resolves "env:NAME" from the environment and "file:/path"
// from disk. Any other reference is returned as-is.
type EnvFileResolver struct{}

// NewSecretResolver returns the default resolver
func NewSecretResolver() SecretResolver {
	return EnvFileResolver{}
}

// Resolve implements SecretResolver
func (EnvFileResolver) Resolve(ref string) (string, error) {
	switch {
	case ref == "":
		return "", nil
	case strings.HasPrefix(ref, "env:"):
		name := strings.TrimPrefix(ref, "env:")
		val, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return val, nil
	case strings.HasPrefix(ref, "file:"):
		data, err := os.ReadFile(strings.TrimPrefix(ref, "file:"))
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	return ref, nil
}
