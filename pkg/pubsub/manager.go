// Package pubsub gossips chain messages between peers over libp2p GossipSub.
package pubsub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"
)

// MessageHandler receives each message on a subscribed topic. Errors are
// logged and do not stop delivery to other handlers.
type MessageHandler func(topic string, from peer.ID, data []byte) error

// Manager joins topics under a chain namespace and fans messages out to
// every handler subscribed to them.
type Manager struct {
	pubsub        *pubsub.PubSub
	namespace     string
	logger        *zap.Logger
	topics        map[string]*pubsub.Topic
	subscriptions map[string]*topicSubscription
	mu            sync.RWMutex
}

type topicSubscription struct {
	sub      *pubsub.Subscription
	cancel   context.CancelFunc
	mu       sync.RWMutex
	handlers []MessageHandler
	refCount int
}

// NewManager creates a manager. Topics are named /<namespace>/<topic>.
func NewManager(ps *pubsub.PubSub, namespace string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pubsub:        ps,
		namespace:     namespace,
		logger:        logger,
		topics:        make(map[string]*pubsub.Topic),
		subscriptions: make(map[string]*topicSubscription),
	}
}

// TopicName returns the full gossip topic for topic.
func (m *Manager) TopicName(topic string) string {
	return "/" + m.namespace + "/" + topic
}

// getOrCreateTopic must be called with m.mu held.
func (m *Manager) getOrCreateTopic(name string) (*pubsub.Topic, error) {
	if topic, ok := m.topics[name]; ok {
		return topic, nil
	}
	topic, err := m.pubsub.Join(name)
	if err != nil {
		return nil, fmt.Errorf("failed to join topic: %w", err)
	}
	m.topics[name] = topic
	return topic, nil
}

// Publish sends data to topic.
func (m *Manager) Publish(ctx context.Context, topic string, data []byte) error {
	if m.pubsub == nil {
		return fmt.Errorf("pubsub not initialized")
	}

	m.mu.Lock()
	t, err := m.getOrCreateTopic(m.TopicName(topic))
	m.mu.Unlock()
	if err != nil {
		return err
	}

	if err := t.Publish(ctx, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe adds handler to topic. Subscriptions are reference counted.
func (m *Manager) Subscribe(topic string, handler MessageHandler) error {
	if m.pubsub == nil {
		return fmt.Errorf("pubsub not initialized")
	}
	name := m.TopicName(topic)

	m.mu.Lock()
	defer m.mu.Unlock()

	if ts, ok := m.subscriptions[name]; ok {
		ts.mu.Lock()
		ts.handlers = append(ts.handlers, handler)
		ts.refCount++
		ts.mu.Unlock()
		return nil
	}

	t, err := m.getOrCreateTopic(name)
	if err != nil {
		return err
	}
	sub, err := t.Subscribe()
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ts := &topicSubscription{
		sub:      sub,
		cancel:   cancel,
		handlers: []MessageHandler{handler},
		refCount: 1,
	}
	m.subscriptions[name] = ts

	go m.deliver(ctx, topic, ts)
	return nil
}

func (m *Manager) deliver(ctx context.Context, topic string, ts *topicSubscription) {
	defer ts.sub.Cancel()

	for {
		msg, err := ts.sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.logger.Debug("Gossip subscription ended",
					zap.String("topic", topic), zap.Error(err))
			}
			return
		}

		ts.mu.RLock()
		handlers := append([]MessageHandler(nil), ts.handlers...)
		ts.mu.RUnlock()

		for _, h := range handlers {
			if err := h(topic, msg.GetFrom(), msg.Data); err != nil {
				m.logger.Debug("Gossip handler failed",
					zap.String("topic", topic),
					zap.String("from", msg.GetFrom().String()),
					zap.Error(err))
			}
		}
	}
}

// Unsubscribe drops one reference to topic, cancelling the subscription
// when none remain.
func (m *Manager) Unsubscribe(topic string) {
	name := m.TopicName(topic)

	m.mu.Lock()
	defer m.mu.Unlock()

	ts, ok := m.subscriptions[name]
	if !ok {
		return
	}
	ts.mu.Lock()
	ts.refCount--
	done := ts.refCount <= 0
	ts.mu.Unlock()

	if done {
		ts.cancel()
		delete(m.subscriptions, name)
	}
}

// ListTopics returns the subscribed topics without the namespace.
func (m *Manager) ListTopics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := "/" + m.namespace + "/"
	topics := make([]string, 0, len(m.subscriptions))
	for name := range m.subscriptions {
		topics = append(topics, strings.TrimPrefix(name, prefix))
	}
	return topics
}

// Close cancels every subscription and leaves every topic.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ts := range m.subscriptions {
		ts.cancel()
	}
	m.subscriptions = make(map[string]*topicSubscription)

	for _, topic := range m.topics {
		_ = topic.Close()
	}
	m.topics = make(map[string]*pubsub.Topic)
	return nil
}
