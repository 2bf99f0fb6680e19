package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/aixgo-dev/agentviz/pkg/config"
)

// Subscriber delivers pushed events. Call the returned cancel function to
// stop delivery; the channel is closed once the subscriber has shut down.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}

// NoopSubscriber is used when no event transport is configured (transport
// "none"). It emits one connect event so the graph is loaded once, then stays
// silent until cancelled.
type NoopSubscriber struct{}

func (NoopSubscriber) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ch := make(chan Event, 1)
	ch <- Event{Kind: KindConnect}

	stopped := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(stopped) }) }
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		close(ch)
	}()
	return ch, cancel, nil
}

// NewSubscriber builds the subscriber selected by cfg.Events.Transport.
func NewSubscriber(cfg *config.Config) (Subscriber, error) {
	switch cfg.Events.Transport {
	case config.TransportWebSocket:
		url, err := WebSocketURL(cfg.Backend.URL, cfg.Events.WebSocketPath)
		if err != nil {
			return nil, err
		}
		return NewWebSocketSubscriber(WebSocketConfig{
			URL:           url,
			ReconnectWait: cfg.Events.ReconnectWait,
			BufferSize:    cfg.Events.BufferSize,
		}), nil
	case config.TransportNATS:
		return NewNATSSubscriber(NATSConfig{
			URL:           cfg.Events.NATSURL,
			Subject:       cfg.Events.NATSSubject,
			ReconnectWait: cfg.Events.ReconnectWait,
			BufferSize:    cfg.Events.BufferSize,
		}), nil
	case config.TransportNone:
		return NoopSubscriber{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Events.Transport)
	}
}
