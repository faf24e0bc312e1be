package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Handlers run on a per-subscriber
// goroutine and receive events in publish order.
type Bus struct {
	dispatcher *event.Dispatcher
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// PublishMedia broadcasts a media snapshot change
func (b *Bus) PublishMedia(ev MediaChanged) { event.Publish(b.dispatcher, ev) }

// PublishVolume broadcasts a volume change
func (b *Bus) PublishVolume(ev VolumeChanged) { event.Publish(b.dispatcher, ev) }

// PublishConnection broadcasts a connection state transition
func (b *Bus) PublishConnection(ev ConnectionChanged) { event.Publish(b.dispatcher, ev) }

// PublishCommand broadcasts a command outcome
func (b *Bus) PublishCommand(ev CommandExecuted) { event.Publish(b.dispatcher, ev) }

// OnMedia registers a media listener. The returned function unregisters it.
func (b *Bus) OnMedia(fn func(MediaChanged)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// OnVolume registers a volume listener. The returned function unregisters it.
func (b *Bus) OnVolume(fn func(VolumeChanged)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// OnConnection registers a connection listener. The returned function unregisters it.
func (b *Bus) OnConnection(fn func(ConnectionChanged)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// OnCommand registers a command listener. The returned function unregisters it.
func (b *Bus) OnCommand(fn func(CommandExecuted)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// Close stops every subscriber goroutine
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
