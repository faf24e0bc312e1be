package broker

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is the subset of the paho client used by Connection.
// This abstraction allows us to mock the transport in tests.
//
//go:generate mockgen -destination=mocks/client_mock.go -package=mocks github.com/genricoloni/mediabridge/internal/broker Client
type Client interface {
	// Connect starts the handshake; the token completes on CONNACK or failure
	Connect() mqtt.Token

	// Disconnect waits up to quiesce milliseconds for in-flight work and closes
	Disconnect(quiesce uint)

	// Publish enqueues a message
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token

	// Subscribe registers interest in topic; a nil callback routes to the default handler
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token

	// IsConnected reports the transport state
	IsConnected() bool
}

// ClientFactory builds a Client from paho options
type ClientFactory func(opts *mqtt.ClientOptions) Client

// NewPahoClient is the default ClientFactory
func NewPahoClient(opts *mqtt.ClientOptions) Client {
	return mqtt.NewClient(opts)
}
