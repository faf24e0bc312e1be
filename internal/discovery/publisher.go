package discovery

import (
	"context"
	"strconv"
	"sync"

	"github.com/genricoloni/mediabridge/internal/config"
	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/hostinfo"
	"github.com/genricoloni/mediabridge/internal/metrics"
	"go.uber.org/zap"
)

const (
	qosAtMostOnce  byte = 0
	qosAtLeastOnce byte = 1
)

// Transport is the part of the broker connection the publisher writes through
type Transport interface {
	IsConnected() bool
	Publish(topic string, payload interface{}, retain bool, qos byte) error
}

// MediaSource returns the current now-playing snapshot
type MediaSource interface {
	Current() domain.MediaState
}

// VolumeSource returns the current volume reading
type VolumeSource interface {
	Reading() domain.VolumeReading
}

// HostDescriber resolves the device descriptor
type HostDescriber interface {
	Describe(ctx context.Context) hostinfo.Descriptor
}

// Publisher writes the discovery document and the per-field state topics
type Publisher struct {
	logger    *zap.Logger
	transport Transport
	media     MediaSource
	volume    VolumeSource
	host      HostDescriber
	metrics   *metrics.Metrics

	mu        sync.Mutex
	cfg       config.Configuration
	published bool
}

// NewPublisher creates a publisher for cfg
func NewPublisher(
	logger *zap.Logger,
	transport Transport,
	media MediaSource,
	volume VolumeSource,
	host HostDescriber,
	m *metrics.Metrics,
	cfg config.Configuration,
) *Publisher {
	return &Publisher{
		logger:    logger,
		transport: transport,
		media:     media,
		volume:    volume,
		host:      host,
		metrics:   m,
		cfg:       cfg,
	}
}

// SetConfiguration swaps the topic namespace used by later publishes
func (p *Publisher) SetConfiguration(cfg config.Configuration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	p.published = false
}

// Configuration returns the configuration in use
func (p *Publisher) Configuration() config.Configuration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// IsDiscoveryPublished reports whether the discovery document is live
func (p *Publisher) IsDiscoveryPublished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

// Document builds the discovery document for the current configuration
func (p *Publisher) Document(ctx context.Context) Document {
	var host hostinfo.Descriptor
	if p.host != nil {
		host = p.host.Describe(ctx)
	}
	return BuildDocument(p.Configuration(), host)
}

// PublishDiscovery announces the device and follows with a full state publish.
// It is a no-op while disconnected.
func (p *Publisher) PublishDiscovery() {
	if !p.transport.IsConnected() {
		p.logger.Warn("Cannot publish discovery - not connected")
		return
	}

	cfg := p.Configuration()
	payload, err := p.Document(context.Background()).JSON()
	if err != nil {
		p.logger.Error("Failed to serialize discovery config", zap.Error(err))
		return
	}

	p.logger.Info("Publishing Home Assistant discovery", zap.String("topic", cfg.DiscoveryTopic()))
	p.logger.Debug("Discovery config", zap.ByteString("json", payload))

	if err := p.transport.Publish(cfg.DiscoveryTopic(), payload, true, qosAtLeastOnce); err != nil {
		p.logger.Warn("Discovery publish failed", zap.Error(err))
		return
	}
	p.metrics.Published("discovery")

	p.mu.Lock()
	p.published = true
	p.mu.Unlock()

	p.PublishState()
}

// RemoveDiscovery clears the retained discovery document
func (p *Publisher) RemoveDiscovery() {
	if !p.transport.IsConnected() {
		return
	}

	cfg := p.Configuration()
	p.logger.Info("Removing Home Assistant discovery config", zap.String("topic", cfg.DiscoveryTopic()))
	if err := p.transport.Publish(cfg.DiscoveryTopic(), "", true, qosAtMostOnce); err != nil {
		p.logger.Warn("Discovery removal failed", zap.Error(err))
		return
	}
	p.metrics.Published("discovery")

	p.mu.Lock()
	p.published = false
	p.mu.Unlock()
}

// PublishState publishes the current snapshot from the media and volume sources
func (p *Publisher) PublishState() {
	p.PublishSnapshot(p.media.Current(), p.volume.Reading())
}

// PublishSnapshot writes every per-field topic, retained. Artwork is only
// written when present. The discovery flag is not touched.
func (p *Publisher) PublishSnapshot(state domain.MediaState, volume domain.VolumeReading) {
	if !p.transport.IsConnected() {
		return
	}
	cfg := p.Configuration()

	fields := []struct {
		topic   string
		payload string
	}{
		{TopicState, string(state.State())},
		{TopicTitle, state.Title},
		{TopicArtist, state.Artist},
		{TopicAlbum, state.Album},
		{TopicDuration, strconv.Itoa(int(state.Duration))},
		{TopicPosition, strconv.Itoa(int(state.Position))},
		{TopicVolume, strconv.FormatFloat(volume.Level, 'f', 2, 64)},
		{TopicMediaType, state.MediaType()},
	}
	for _, f := range fields {
		p.publish(cfg.Topic(f.topic), f.payload, "state")
	}

	if art := state.ArtworkBase64(); art != "" {
		p.publish(cfg.Topic(TopicAlbumArt), art, "artwork")
	}

	if attrs, err := state.HomeAssistantJSON(volume); err != nil {
		p.logger.Warn("Failed to encode attributes", zap.Error(err))
	} else {
		p.publish(cfg.Topic(TopicAttributes), attrs, "attributes")
	}

	p.logger.Debug("Published state",
		zap.String("state", string(state.State())),
		zap.String("title", state.Title),
		zap.Float64("volume", volume.Level))
}

func (p *Publisher) publish(topic string, payload interface{}, kind string) {
	if err := p.transport.Publish(topic, payload, true, qosAtMostOnce); err != nil {
		p.logger.Debug("State publish dropped", zap.String("topic", topic), zap.Error(err))
		return
	}
	p.metrics.Published(kind)
}
