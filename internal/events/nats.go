package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultNATSSubject matches every orchestrator event; the kind is the last
// subject token, e.g. orchestrator.events.task_completed.
const DefaultNATSSubject = "orchestrator.events.>"

// NATSConfig configures a NATSSubscriber.
type NATSConfig struct {
	URL           string
	Subject       string
	ReconnectWait time.Duration
	BufferSize    int
}

// NATSSubscriber receives events relayed onto a NATS subject tree.
type NATSSubscriber struct {
	cfg NATSConfig
}

func NewNATSSubscriber(cfg NATSConfig) *NATSSubscriber {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultNATSSubject
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	return &NATSSubscriber{cfg: cfg}
}

// KindFromSubject returns the last token of a NATS subject.
func KindFromSubject(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}

// Subscribe connects, subscribes and emits a connect event. Reconnects are
// handled by the NATS client and also emit a connect event.
func (s *NATSSubscriber) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ch := make(chan Event, s.cfg.BufferSize)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)
	emit := func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
			log.Printf("[Events] consumer behind, dropping %s event", ev.Kind)
		}
	}

	nc, err := nats.Connect(s.cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(s.cfg.ReconnectWait),
		nats.ReconnectHandler(func(*nats.Conn) {
			log.Printf("[Events] reconnected to %s", s.cfg.URL)
			emit(Event{Kind: KindConnect})
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[Events] disconnected from NATS: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to NATS at %s: %w", s.cfg.URL, err)
	}

	sub, err := nc.Subscribe(s.cfg.Subject, func(msg *nats.Msg) {
		emit(Event{Kind: KindFromSubject(msg.Subject), Data: msg.Data})
	})
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", s.cfg.Subject, err)
	}
	// the subscription must reach the server before publishers on other
	// connections are routed to it
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		nc.Close()
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}
	emit(Event{Kind: KindConnect})

	stopped := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stopped)
			_ = sub.Unsubscribe()
			nc.Close()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stopped:
		}
	}()

	return ch, cancel, nil
}
