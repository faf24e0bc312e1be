package hostinfo

import (
	"github.com/godbus/dbus/v5"
)

// DBusClient defines the interface for D-Bus operations.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/mediabridge/internal/hostinfo DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// GetProperty retrieves a property from a D-Bus object
	// dest: The bus name (e.g., "org.freedesktop.hostname1")
	// path: The object path (e.g., "/org/freedesktop/hostname1")
	// prop: The property name (e.g., "org.freedesktop.hostname1.Chassis")
	GetProperty(dest, path, prop string) (dbus.Variant, error)
}

// SystemDBusClient is the real implementation using godbus
type SystemDBusClient struct {
	conn *dbus.Conn
}

// NewSystemDBusClient connects to the system bus, where hostnamed lives
func NewSystemDBusClient() (*SystemDBusClient, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return &SystemDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *SystemDBusClient) Close() error {
	return c.conn.Close()
}

// GetProperty retrieves a property from a D-Bus object
func (c *SystemDBusClient) GetProperty(dest, path, prop string) (dbus.Variant, error) {
	obj := c.conn.Object(dest, dbus.ObjectPath(path))
	return obj.GetProperty(prop)
}
