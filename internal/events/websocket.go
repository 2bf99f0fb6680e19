package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultBufferSize = 64

// WebSocketConfig configures a WebSocketSubscriber.
type WebSocketConfig struct {
	URL           string
	ReconnectWait time.Duration
	BufferSize    int
	Dialer        *websocket.Dialer
}

// WebSocketSubscriber reads JSON event frames from the backend's socket and
// redials after every disconnect until cancelled.
type WebSocketSubscriber struct {
	cfg WebSocketConfig
}

// NewWebSocketSubscriber creates a subscriber; nothing is dialed until
// Subscribe.
func NewWebSocketSubscriber(cfg WebSocketConfig) *WebSocketSubscriber {
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &WebSocketSubscriber{cfg: cfg}
}

// WebSocketURL derives the event socket address from the backend base URL.
func WebSocketURL(backendURL, path string) (string, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return "", fmt.Errorf("parsing backend url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported backend url scheme %q", u.Scheme)
	}
	if path == "" {
		path = "/events"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}

// Subscribe starts the dial/read loop in the background.
func (s *WebSocketSubscriber) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	if _, err := url.Parse(s.cfg.URL); err != nil {
		return nil, nil, fmt.Errorf("parsing websocket url: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Event, s.cfg.BufferSize)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(ch)
		s.loop(ctx, ch)
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return ch, stop, nil
}

func (s *WebSocketSubscriber) loop(ctx context.Context, ch chan<- Event) {
	for {
		conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, nil)
		if err == nil {
			log.Printf("[Events] connected to %s", s.cfg.URL)
			select {
			case ch <- Event{Kind: KindConnect}:
			case <-ctx.Done():
				conn.Close()
				return
			}
			s.read(ctx, conn, ch)
		} else if ctx.Err() == nil {
			log.Printf("[Events] dial %s failed: %v", s.cfg.URL, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectWait):
		}
	}
}

func (s *WebSocketSubscriber) read(ctx context.Context, conn *websocket.Conn, ch chan<- Event) {
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-finished:
		}
	}()
	defer conn.Close()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[Events] connection lost: %v", err)
			}
			return
		}
		var ev Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			log.Printf("[Events] skipping malformed frame: %v", err)
			continue
		}
		select {
		case ch <- ev:
		default:
			log.Printf("[Events] consumer behind, dropping %s event", ev.Kind)
		}
	}
}
