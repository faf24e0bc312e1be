//go:build !linux && !darwin

package monitor

import (
	"github.com/genricoloni/mediabridge/internal/domain"
	"go.uber.org/zap"
)

// NewVolumeEndpoint returns an endpoint that is always unavailable
func NewVolumeEndpoint(logger *zap.Logger) domain.VolumeEndpoint {
	logger.Warn("Volume control is not implemented for this platform")
	return UnsupportedEndpoint{}
}
