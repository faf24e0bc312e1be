package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "mediabridge"

// Metrics holds the bridge's prometheus collectors.
// Every method is safe to call on a nil *Metrics.
type Metrics struct {
	registry        *prometheus.Registry
	published       *prometheus.CounterVec
	commands        *prometheus.CounterVec
	reconnects      prometheus.Counter
	helperRestarts  prometheus.Counter
	connectionState prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "MQTT messages handed to the transport, by topic kind.",
		}, []string{"topic_kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Player commands executed, by command and result.",
		}, []string{"command", "result"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Scheduled broker reconnect attempts.",
		}),
		helperRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "helper_restarts_total",
			Help:      "Restarts of the now-playing helper after a failure.",
		}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Broker connection state (0 disconnected, 1 connecting, 2 connected, 3 disconnecting, 4 error).",
		}),
	}
	m.registry.MustRegister(m.published, m.commands, m.reconnects, m.helperRestarts, m.connectionState)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Published counts one message handed to the transport
func (m *Metrics) Published(kind string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(kind).Inc()
}

// CommandExecuted counts one executed command
func (m *Metrics) CommandExecuted(r domain.CommandResult) {
	if m == nil {
		return
	}
	result := "success"
	if !r.Success() {
		result = "failure"
	}
	m.commands.WithLabelValues(string(r.Command), result).Inc()
}

// ReconnectScheduled counts one scheduled reconnect
func (m *Metrics) ReconnectScheduled() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// HelperRestarted counts one helper restart
func (m *Metrics) HelperRestarted() {
	if m == nil {
		return
	}
	m.helperRestarts.Inc()
}

// ConnectionState records the current broker state
func (m *Metrics) ConnectionState(s domain.ConnectionState) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(s.Status))
}

// Server serves /metrics when an address is configured
type Server struct {
	logger *zap.Logger
	srv    *http.Server
}

// NewServer returns a server for addr, or nil when addr is empty
func NewServer(logger *zap.Logger, m *Metrics, addr string) *Server {
	if addr == "" || m == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return &Server{
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start listens in the background
func (s *Server) Start() {
	if s == nil {
		return
	}
	go func() {
		s.logger.Info("Serving metrics", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
}

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
