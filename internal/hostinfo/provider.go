package hostinfo

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/genricoloni/mediabridge/internal/process"
	"go.uber.org/zap"
)

const (
	hostnameDest  = "org.freedesktop.hostname1"
	hostnamePath  = "/org/freedesktop/hostname1"
	hostnameIface = "org.freedesktop.hostname1."

	commandTimeout = 2 * time.Second
)

// Descriptor describes the machine in the discovery device block
type Descriptor struct {
	Model     string
	OSVersion string
}

// Provider resolves the host descriptor once and caches it.
// hostnamed on the system bus is preferred; sysctl, sw_vers and uname fill the gaps.
type Provider struct {
	logger *zap.Logger
	conn   DBusClient
	run    process.Runner
	goos   string

	once sync.Once
	desc Descriptor
}

// NewProvider creates a provider. A missing system bus is not an error.
func NewProvider(logger *zap.Logger) *Provider {
	p := &Provider{logger: logger, run: process.Run, goos: runtime.GOOS}
	if runtime.GOOS == "linux" {
		conn, err := NewSystemDBusClient()
		if err != nil {
			logger.Debug("System bus unavailable, using command fallbacks", zap.Error(err))
		} else {
			p.conn = conn
		}
	}
	return p
}

// Describe returns the cached descriptor, resolving it on first use
func (p *Provider) Describe(ctx context.Context) Descriptor {
	p.once.Do(func() {
		p.desc = p.resolve(ctx)
		p.logger.Info("Resolved host descriptor",
			zap.String("model", p.desc.Model),
			zap.String("os", p.desc.OSVersion))
	})
	return p.desc
}

// Close releases the D-Bus connection
func (p *Provider) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func (p *Provider) resolve(ctx context.Context) Descriptor {
	var d Descriptor
	if p.conn != nil {
		d.Model = p.dbusString("HardwareModel")
		if d.Model == "" {
			d.Model = p.dbusString("Chassis")
		}
		d.OSVersion = p.dbusString("OperatingSystemPrettyName")
	}

	if d.Model == "" {
		d.Model = p.command(ctx, "sysctl", "-n", "hw.model")
	}
	if d.OSVersion == "" {
		if p.goos == "darwin" {
			if v := p.command(ctx, "sw_vers", "-productVersion"); v != "" {
				d.OSVersion = "macOS " + v
			}
		} else {
			d.OSVersion = p.command(ctx, "uname", "-sr")
		}
	}

	if d.Model == "" {
		d.Model = p.goos + "/" + runtime.GOARCH
	}
	if d.OSVersion == "" {
		d.OSVersion = p.goos
	}
	return d
}

func (p *Provider) dbusString(prop string) string {
	v, err := p.conn.GetProperty(hostnameDest, hostnamePath, hostnameIface+prop)
	if err != nil {
		p.logger.Debug("hostnamed property unavailable", zap.String("property", prop), zap.Error(err))
		return ""
	}
	s, ok := v.Value().(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func (p *Provider) command(ctx context.Context, name string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := p.run(ctx, name, args...)
	if err != nil {
		p.logger.Debug("Host query failed", zap.String("command", name), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}
