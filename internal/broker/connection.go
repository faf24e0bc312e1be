package broker

import (
	"crypto/tls"
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/genricoloni/mediabridge/internal/config"
	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/events"
	"github.com/genricoloni/mediabridge/internal/metrics"
	"go.uber.org/zap"
)

const (
	// QoSAtMostOnce is MQTT QoS 0
	QoSAtMostOnce byte = 0
	// QoSAtLeastOnce is MQTT QoS 1
	QoSAtLeastOnce byte = 1

	// PayloadOnline and PayloadOffline are the availability payloads
	PayloadOnline  = "online"
	PayloadOffline = "offline"

	keepAlive       = 60 * time.Second
	connectTimeout  = 10 * time.Second
	offlineTimeout  = time.Second
	disconnectQuiet = 250 // milliseconds
	subscribeWait   = 5 * time.Second
)

// timer is the part of *time.Timer used for scheduled reconnects
type timer interface {
	Stop() bool
}

// Connection owns the MQTT transport and implements the reconnect state machine:
//
//	disconnected -> connecting -> connected -> disconnecting -> disconnected
//	connecting/connected -> error(reason) -> (scheduled) connecting
//
// Transitions run under mu; transport calls happen outside it.
type Connection struct {
	logger    *zap.Logger
	bus       *events.Bus
	metrics   *metrics.Metrics
	resolver  config.SecretResolver
	newClient ClientFactory
	backoff   Backoff
	afterFunc func(time.Duration, func()) timer
	pid       int

	mu         sync.Mutex
	state      domain.ConnectionState
	cfg        config.Configuration
	client     Client
	generation uint64
	retryCount int
	retryTimer timer

	// pubMu keeps publishes in call order
	pubMu sync.Mutex

	handlersMu sync.RWMutex
	onConnect  func()
	onMessage  func(topic, payload string)
}

// NewConnection creates a disconnected connection
func NewConnection(logger *zap.Logger, bus *events.Bus, m *metrics.Metrics, resolver config.SecretResolver, factory ClientFactory) *Connection {
	if factory == nil {
		factory = NewPahoClient
	}
	return &Connection{
		logger:    logger,
		bus:       bus,
		metrics:   m,
		resolver:  resolver,
		newClient: factory,
		backoff:   DefaultBackoff(),
		afterFunc: func(d time.Duration, f func()) timer { return time.AfterFunc(d, f) },
		pid:       os.Getpid(),
		state:     domain.Disconnected,
	}
}

// OnConnect sets the callback invoked after every successful handshake
func (c *Connection) OnConnect(fn func()) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.onConnect = fn
}

// OnMessage sets the single inbound message handler
func (c *Connection) OnMessage(fn func(topic, payload string)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.onMessage = fn
}

// State returns the current connection state
func (c *Connection) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether publishes are currently forwarded
func (c *Connection) IsConnected() bool {
	return c.State().IsConnected()
}

// RetryCount returns the number of reconnects scheduled since the last success
func (c *Connection) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// Connect starts a handshake with the broker described by cfg. It is the
// user-initiated entry point: pending retries are cancelled and the retry
// counter is reset. An invalid configuration fails fast and is not retried.
func (c *Connection) Connect(cfg config.Configuration) error {
	c.mu.Lock()
	c.cancelRetryLocked()
	c.retryCount = 0
	old := c.detachLocked()
	c.mu.Unlock()

	if old != nil {
		old.Disconnect(disconnectQuiet)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(cfg)
}

func (c *Connection) connectLocked(cfg config.Configuration) error {
	if err := cfg.Validate(); err != nil {
		c.logger.Error("Refusing to connect", zap.Error(err))
		c.setStateLocked(domain.ConnectionError(domain.ErrConfigurationInvalid.Error()))
		return err
	}

	password, err := c.resolver.Resolve(cfg.PasswordRef)
	if err != nil {
		c.logger.Error("Failed to resolve broker password", zap.Error(err))
		c.setStateLocked(domain.ConnectionError(domain.ErrConfigurationInvalid.Error()))
		return fmt.Errorf("%w: %v", domain.ErrConfigurationInvalid, err)
	}

	c.cfg = cfg
	c.generation++
	gen := c.generation

	opts := c.clientOptions(cfg, password, gen)
	client := c.newClient(opts)
	c.client = client
	c.setStateLocked(domain.ConnectionState{Status: domain.StatusConnecting})

	c.logger.Info("Connecting to MQTT broker",
		zap.String("broker", cfg.BrokerURL()),
		zap.String("clientID", opts.ClientID),
		zap.Int("attempt", c.retryCount))

	go func() {
		token := client.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			c.handleFailure(gen, fmt.Sprintf("Connection rejected: %v", err))
		}
	}()
	return nil
}

// clientOptions builds paho options with the last will and our handlers.
// paho's own reconnect logic is disabled in favour of the backoff policy.
func (c *Connection) clientOptions(cfg config.Configuration, password string, gen uint64) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(cfg.ClientID(c.pid))
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if password != "" {
		opts.SetPassword(password)
	}
	opts.SetKeepAlive(keepAlive)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetOrderMatters(true)
	opts.SetWill(cfg.AvailabilityTopic(), PayloadOffline, QoSAtLeastOnce, true)
	if cfg.UseTLS {
		// Home brokers commonly run with self-signed certificates
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	opts.SetOnConnectHandler(func(mqtt.Client) { c.handleConnected(gen) })
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.handleFailure(gen, err.Error())
	})
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		c.handleMessage(gen, msg.Topic(), string(msg.Payload()))
	})
	return opts
}

// handleConnected runs on a successful CONNACK
func (c *Connection) handleConnected(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.client == nil {
		c.mu.Unlock()
		return
	}
	c.retryCount = 0
	c.setStateLocked(domain.ConnectionState{Status: domain.StatusConnected})
	cfg := c.cfg
	c.mu.Unlock()

	c.logger.Info("Connected to MQTT broker", zap.String("broker", cfg.BrokerURL()))

	for _, topic := range []string{cfg.CommandTopic(), cfg.VolumeCommandTopic()} {
		if err := c.Subscribe(topic, QoSAtLeastOnce); err != nil {
			c.logger.Warn("Failed to subscribe", zap.String("topic", topic), zap.Error(err))
		}
	}
	_ = c.Publish(cfg.AvailabilityTopic(), PayloadOnline, true, QoSAtLeastOnce)

	c.handlersMu.RLock()
	onConnect := c.onConnect
	c.handlersMu.RUnlock()
	if onConnect != nil {
		onConnect()
	}
}

// handleFailure covers both a rejected handshake and a mid-session drop
func (c *Connection) handleFailure(gen uint64, reason string) {
	c.mu.Lock()
	if gen != c.generation || c.client == nil {
		c.mu.Unlock()
		return
	}
	c.logger.Warn("MQTT connection failed", zap.String("reason", reason))
	c.setStateLocked(domain.ConnectionError(reason))
	old := c.detachLocked()
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	if old != nil {
		old.Disconnect(0)
	}
}

// scheduleReconnectLocked arms the backoff timer or gives up for good
func (c *Connection) scheduleReconnectLocked() {
	if c.backoff.Exhausted(c.retryCount) {
		c.logger.Error("Max reconnection attempts reached", zap.Int("retries", c.retryCount))
		c.setStateLocked(domain.ConnectionError(domain.ErrMaxRetries.Error()))
		return
	}

	c.cancelRetryLocked()
	delay := c.backoff.Delay(c.retryCount)
	c.retryCount++
	c.metrics.ReconnectScheduled()

	c.logger.Info("Scheduling reconnect",
		zap.Duration("delay", delay),
		zap.Int("attempt", c.retryCount))

	cfg := c.cfg
	var t timer
	t = c.afterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.retryTimer != t {
			return
		}
		c.retryTimer = nil
		_ = c.connectLocked(cfg)
	})
	c.retryTimer = t
}

func (c *Connection) cancelRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// detachLocked forgets the current client so late callbacks are ignored
func (c *Connection) detachLocked() Client {
	old := c.client
	c.client = nil
	c.generation++
	return old
}

// Disconnect cancels pending retries, announces "offline" when connected and
// closes the transport. It always ends in the disconnected state.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.cancelRetryLocked()
	c.retryCount = 0
	if c.client == nil && c.state.Status == domain.StatusDisconnected {
		c.mu.Unlock()
		return
	}
	wasConnected := c.state.IsConnected()
	availability := c.cfg.AvailabilityTopic()
	c.setStateLocked(domain.ConnectionState{Status: domain.StatusDisconnecting})
	old := c.detachLocked()
	c.mu.Unlock()

	c.logger.Info("Disconnecting from MQTT broker")

	if old != nil {
		if wasConnected {
			c.pubMu.Lock()
			token := old.Publish(availability, QoSAtLeastOnce, true, PayloadOffline)
			c.pubMu.Unlock()
			if !token.WaitTimeout(offlineTimeout) {
				c.logger.Warn("Timed out publishing offline availability")
			}
		}
		old.Disconnect(disconnectQuiet)
	}

	c.mu.Lock()
	c.cfg = config.Configuration{}
	c.setStateLocked(domain.Disconnected)
	c.mu.Unlock()
}

// Publish forwards a message when connected. Otherwise it logs a warning and
// returns domain.ErrNotConnected; nothing is queued.
func (c *Connection) Publish(topic string, payload interface{}, retain bool, qos byte) error {
	c.mu.Lock()
	client := c.client
	connected := c.state.IsConnected()
	c.mu.Unlock()

	if !connected || client == nil {
		c.logger.Warn("Cannot publish - not connected", zap.String("topic", topic))
		return domain.ErrNotConnected
	}

	c.pubMu.Lock()
	token := client.Publish(topic, qos, retain, payload)
	c.pubMu.Unlock()

	go func() {
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			c.logger.Warn("Publish failed", zap.String("topic", topic), zap.Error(token.Error()))
		}
	}()
	return nil
}

// Subscribe registers interest in topic; inbound messages go to the OnMessage handler
func (c *Connection) Subscribe(topic string, qos byte) error {
	c.mu.Lock()
	client := c.client
	connected := c.state.IsConnected()
	c.mu.Unlock()

	if !connected || client == nil {
		c.logger.Warn("Cannot subscribe - not connected", zap.String("topic", topic))
		return domain.ErrNotConnected
	}

	token := client.Subscribe(topic, qos, nil)
	if !token.WaitTimeout(subscribeWait) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return err
	}
	c.logger.Debug("Subscribed", zap.String("topic", topic))
	return nil
}

// handleMessage forwards an inbound message in wire order
func (c *Connection) handleMessage(gen uint64, topic, payload string) {
	c.mu.Lock()
	current := gen == c.generation
	c.mu.Unlock()
	if !current {
		return
	}

	c.logger.Debug("Received message", zap.String("topic", topic), zap.Int("bytes", len(payload)))

	c.handlersMu.RLock()
	onMessage := c.onMessage
	c.handlersMu.RUnlock()
	if onMessage != nil {
		onMessage(topic, payload)
	}
}

func (c *Connection) setStateLocked(s domain.ConnectionState) {
	if c.state == s {
		return
	}
	c.state = s
	c.metrics.ConnectionState(s)
	if c.bus != nil {
		c.bus.PublishConnection(events.ConnectionChanged{State: s})
	}
}
