//go:build darwin

package monitor

import (
	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/process"
	"go.uber.org/zap"
)

// NewVolumeEndpoint returns the osascript endpoint on macOS
func NewVolumeEndpoint(logger *zap.Logger) domain.VolumeEndpoint {
	return NewOSAScriptEndpoint(logger, process.Run)
}
