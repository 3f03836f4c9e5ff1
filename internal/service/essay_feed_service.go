package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/repository"
)

const feedSendBufferSize = 16

// FeedSubscription describes what one websocket client wants to watch:
// a single essay key ("owner/title") or "*" for every change.
type FeedSubscription struct {
	UserID string
	Key    string
}

// EssayFeedService fans document-store change events out to websocket
// subscribers. Events arrive on the store's redis channel; when NATS is
// configured they are mirrored across nodes as well. Per-channel ordering is
// preserved; there is no cross-channel ordering guarantee.
type EssayFeedService interface {
	ServeConnection(conn *websocket.Conn, sub FeedSubscription)
	Start(ctx context.Context)
}

type essayFeedService struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	hub     *feedHub
	logger  zerolog.Logger
	nodeID  string
}

type feedHub struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
	log     zerolog.Logger
}

type feedClient struct {
	conn   *websocket.Conn
	send   chan repository.EssayChange
	sub    FeedSubscription
	closed chan struct{}
	once   sync.Once
}

// NewEssayFeedService creates the feed service. natsConn may be nil.
func NewEssayFeedService(redisClient *redis.Client, channel string, natsConn *nats.Conn, logger zerolog.Logger) EssayFeedService {
	subject := ""
	if natsConn != nil && channel != "" {
		subject = strings.ReplaceAll(channel, ":", ".")
	}

	return &essayFeedService{
		redis:   redisClient,
		channel: channel,
		nats:    natsConn,
		subject: subject,
		hub: &feedHub{
			clients: make(map[*feedClient]struct{}),
			log:     logger.With().Str("component", "essay_feed_hub").Logger(),
		},
		logger: logger.With().Str("component", "essay_feed_service").Logger(),
		nodeID: uuid.NewString(),
	}
}

func (s *essayFeedService) Start(ctx context.Context) {
	if s.redis != nil && s.channel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.subject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *essayFeedService) ServeConnection(conn *websocket.Conn, sub FeedSubscription) {
	if sub.Key == "" {
		sub.Key = "*"
	}

	client := &feedClient{
		conn:   conn,
		send:   make(chan repository.EssayChange, feedSendBufferSize),
		sub:    sub,
		closed: make(chan struct{}),
	}

	s.hub.register(client)
	defer func() {
		s.hub.unregister(client)
		client.close()
	}()

	go client.writeLoop()

	// The read loop exists only to notice disconnects; subscribers never
	// send payloads.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *essayFeedService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.channel)
	defer func() {
		_ = pubsub.Close()
	}()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("essay feed redis subscription closed")
			return
		}

		var change repository.EssayChange
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			s.logger.Warn().Err(err).Msg("invalid essay change event")
			continue
		}

		s.hub.broadcast(change)
		s.mirrorToNATS(change)
	}
}

// mirrorToNATS republishes a redis-delivered change for nodes outside this
// redis deployment. The node id stamp lets this node drop its own echoes.
func (s *essayFeedService) mirrorToNATS(change repository.EssayChange) {
	if s.nats == nil || s.subject == "" || change.Source != "" {
		return
	}

	change.Source = s.nodeID
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}

	if err := s.nats.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mirror essay change to nats")
	}
}

func (s *essayFeedService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.subject, func(msg *nats.Msg) {
		var change repository.EssayChange
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			s.logger.Warn().Err(err).Msg("invalid essay change event on nats")
			return
		}
		if change.Source == s.nodeID {
			return
		}
		s.hub.broadcast(change)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to essay feed subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain essay feed subscription")
		}
	}()
}

func (h *feedHub) register(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	h.log.Debug().Str("user_id", client.sub.UserID).Str("key", client.sub.Key).Msg("feed client connected")
}

func (h *feedHub) unregister(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, client)
	h.log.Debug().Str("user_id", client.sub.UserID).Msg("feed client disconnected")
}

func (h *feedHub) broadcast(change repository.EssayChange) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.sub.Key != "*" && client.sub.Key != change.Key() {
			continue
		}
		select {
		case client.send <- change:
		default:
			// Slow consumer; drop the event rather than block the hub.
		}
	}
}

func (c *feedClient) writeLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case change, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(change); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}
