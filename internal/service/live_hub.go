package service

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"devday_quiz_backend/pkg/logger"
	"devday_quiz_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 16
	eventChannel   = "quiz:events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the envelope pushed to live subscribers. Data always carries
// the full latest state of the document it describes, so delivery is
// safe to treat as latest-value even when an event is replayed.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	EventSession         = "session"
	EventTeam            = "team"
	EventLeaderboard     = "leaderboard"
	EventSubmissionCount = "submission_count"
)

// EventPublisher is the narrow surface services use to emit live events.
type EventPublisher interface {
	PublishSession(sessionID string, event Event)
}

// Client is one websocket subscriber, bound to a single session channel.
type Client struct {
	Hub       *LiveHub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
	Limiter   *rate.Limiter
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		// Subscribers are listen-only; inbound frames are drained to keep
		// the connection healthy and rate limited against abuse.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("sessionId", c.SessionID))
			}
			break
		}
		if !c.Limiter.Allow() {
			continue
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.Send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.Send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	sessions map[string]map[*Client]struct{}
	mu       sync.RWMutex
}

// LiveHub fans session events out to websocket subscribers. Events go
// through Redis pub/sub so every instance, including the publishing one,
// delivers to its local clients.
type LiveHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	Redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewLiveHub(rdb *redis.Client) *LiveHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &LiveHub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Redis:      rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			sessions: make(map[string]map[*Client]struct{}),
		}
	}
	return h
}

func (h *LiveHub) getShard(sessionID string) *shard {
	hash := fnv.New32a()
	hash.Write([]byte(sessionID))
	return h.shards[hash.Sum32()%shardCount]
}

type pubSubMessage struct {
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

func (h *LiveHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, eventChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var psMsg pubSubMessage
			if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.deliverLocal(psMsg.SessionID, psMsg.Payload)
		}
	}()

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.SessionID)
			s.mu.Lock()
			if _, ok := s.sessions[client.SessionID]; !ok {
				s.sessions[client.SessionID] = make(map[*Client]struct{})
			}
			s.sessions[client.SessionID][client] = struct{}{}
			s.mu.Unlock()
			monitoring.LiveConnections.Inc()

		case client := <-h.unregister:
			s := h.getShard(client.SessionID)
			s.mu.Lock()
			if clients, ok := s.sessions[client.SessionID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					monitoring.LiveConnections.Dec()
				}
				if len(clients) == 0 {
					delete(s.sessions, client.SessionID)
				}
			}
			s.mu.Unlock()

		case <-h.ctx.Done():
			_ = pubsub.Close()
			// Connections closed by Stop still unwind through their read
			// pumps; keep servicing the channels so those goroutines never
			// block on a hub that stopped listening.
			go func() {
				for {
					select {
					case client := <-h.register:
						close(client.Send)
					case <-h.unregister:
					}
				}
			}()
			return
		}
	}
}

// PublishSession emits an event on a session's channel. Best-effort: a
// Redis hiccup drops the event, consumers resync on their next read.
func (h *LiveHub) PublishSession(sessionID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("event marshal error", zap.Error(err))
		return
	}
	msg, _ := json.Marshal(pubSubMessage{SessionID: sessionID, Payload: payload})
	if err := h.Redis.Publish(h.ctx, eventChannel, msg).Err(); err != nil {
		logger.Log.Error("event publish error", zap.Error(err), zap.String("sessionId", sessionID))
		return
	}
	monitoring.EventCounter.WithLabelValues(event.Type).Inc()
}

func (h *LiveHub) deliverLocal(sessionID string, payload []byte) {
	s := h.getShard(sessionID)
	s.mu.RLock()
	for client := range s.sessions[sessionID] {
		select {
		case client.Send <- payload:
		default:
			// Slow consumer: drop the oldest update so the latest state
			// still gets through.
			select {
			case <-client.Send:
			default:
			}
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
	s.mu.RUnlock()
}

// Stop closes every connection and stops the pub/sub loop.
func (h *LiveHub) Stop() {
	closed := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for sessionID, clients := range s.sessions {
			for client := range clients {
				close(client.Send)
				closed++
			}
			delete(s.sessions, sessionID)
		}
		s.mu.Unlock()
	}
	monitoring.LiveConnections.Set(0)
	h.cancel()
	logger.Log.Info("LiveHub stopped", zap.Int("closedConnections", closed))
}

// ServeLive upgrades the request and attaches the connection to a
// session channel.
func ServeLive(hub *LiveHub, w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("sessionId", sessionID))
		return
	}
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		SessionID: sessionID,
		Limiter:   rate.NewLimiter(rate.Limit(10), 20),
	}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
