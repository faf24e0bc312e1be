//go:build linux

package monitor

import (
	"os/exec"

	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/process"
	"go.uber.org/zap"
)

// NewVolumeEndpoint returns the pactl endpoint when pactl is installed
func NewVolumeEndpoint(logger *zap.Logger) domain.VolumeEndpoint {
	if _, err := exec.LookPath("pactl"); err != nil {
		logger.Warn("pactl not found, volume control disabled")
		return UnsupportedEndpoint{}
	}
	return NewPactlEndpoint(logger, process.Run)
}
