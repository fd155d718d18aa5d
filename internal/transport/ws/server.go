// Package ws pushes producer values to WebSocket clients and accepts purchases.
//
// Frames are text. A client sends:
//
//	SUB <entityId>        follow an entity, answered with its current VAL frame
//	BUY <resources wire>  buy for the followed entity, answered OK or NO
//	XFER <order wire>     move resources from the followed entity, answered
//	                      OK <transfer dto wire> with what actually moved
//
// An order is <giver>@<receiver>@<resources>@<cause>; its giver must be the
// followed entity.
//
// The server sends VAL <value dto wire> for the followed entity on every
// broadcast, and ERR <reason> for anything it cannot serve.
package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/napolitain/resource-engine/internal/converter"
	"github.com/napolitain/resource-engine/internal/models"
)

const (
	writeWait   = 5 * time.Second
	outQueueLen = 16
)

// Economy is what the server needs from the game economy
type Economy interface {
	Value(ctx context.Context, entity models.EntityID) (models.ValueDto, error)
	Purchase(ctx context.Context, entity models.EntityID, price models.Resources) (bool, error)
	Snapshot(ctx context.Context) ([]models.ValueDto, error)
	Transfer(ctx context.Context, giver, receiver models.EntityID, amount models.Resources, cause models.TransferCause) (models.TransferDto, error)
}

// Config tunes connection handling
type Config struct {
	ReadTimeout time.Duration // idle time before a client is dropped
	RatePerSec  float64       // sustained inbound messages per connection
	Burst       int
}

// DefaultConfig returns the settings used when a field is zero
func DefaultConfig() Config {
	return Config{ReadTimeout: 60 * time.Second, RatePerSec: 10, Burst: 20}
}

type client struct {
	conn    *websocket.Conn
	out     chan []byte
	limiter *rate.Limiter

	mu        sync.Mutex
	entity    models.EntityID
	following bool
}

func (c *client) follow(entity models.EntityID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entity = entity
	c.following = true
}

func (c *client) followed() (models.EntityID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entity, c.following
}

// Server serves the resource protocol over WebSocket
type Server struct {
	economy Economy
	cfg     Config
	logger  zerolog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer creates a server backed by economy
func NewServer(economy Economy, cfg Config, logger zerolog.Logger) *Server {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = def.RatePerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	return &Server{
		economy: economy,
		cfg:     cfg,
		logger:  logger.With().Str("component", "WebSocket").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler upgrades requests and serves one client per connection
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.logger.Debug().Err(err).Msg("upgrade failed")
			return
		}
		defer conn.Close()

		c := &client{
			conn:    conn,
			out:     make(chan []byte, outQueueLen),
			limiter: rate.NewLimiter(rate.Limit(s.cfg.RatePerSec), s.cfg.Burst),
		}
		s.add(c)
		defer s.remove(c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go s.writeLoop(ctx, cancel, c)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var reply string
			if !c.limiter.Allow() {
				reply = "ERR rate limited"
			} else {
				reply = s.handle(ctx, c, string(msg))
			}
			select {
			case c.out <- []byte(reply):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				cancel()
				return
			}
		}
	}
}

// handle answers one client command
func (s *Server) handle(ctx context.Context, c *client, msg string) string {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(msg), " ")
	switch cmd {
	case "SUB":
		entity, err := converter.DecodeEntityID(arg)
		if err != nil {
			return "ERR " + err.Error()
		}
		dto, err := s.economy.Value(ctx, entity)
		if err != nil {
			return "ERR " + err.Error()
		}
		c.follow(entity)
		return valueFrame(dto)

	case "BUY":
		entity, ok := c.followed()
		if !ok {
			return "ERR no entity followed"
		}
		price, err := converter.DecodeResources(arg)
		if err != nil {
			return "ERR " + err.Error()
		}
		bought, err := s.economy.Purchase(ctx, entity, price)
		if err != nil {
			return "ERR " + err.Error()
		}
		if !bought {
			return "NO"
		}
		return "OK"

	case "XFER":
		entity, ok := c.followed()
		if !ok {
			return "ERR no entity followed"
		}
		order, err := converter.DecodeTransferOrder(arg)
		if err != nil {
			return "ERR " + err.Error()
		}
		if order.Giver != entity {
			return "ERR giver is not the followed entity"
		}
		dto, err := s.economy.Transfer(ctx, order.Giver, order.Receiver, order.Resources, order.Cause)
		if err != nil {
			return "ERR " + err.Error()
		}
		s.logger.Debug().Int64("giver", int64(order.Giver)).Int64("receiver", int64(order.Receiver)).
			Stringer("cause", order.Cause).Msg("transfer")
		return "OK " + converter.EncodeTransferDto(dto)

	default:
		return "ERR unknown command"
	}
}

// Broadcast pushes the current value of its followed entity to every client.
// A client whose queue is full misses this round.
func (s *Server) Broadcast(ctx context.Context) error {
	values, err := s.economy.Snapshot(ctx)
	if err != nil {
		return err
	}
	byEntity := make(map[models.EntityID][]byte, len(values))
	for _, v := range values {
		byEntity[v.Entity] = []byte(valueFrame(v))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		entity, ok := c.followed()
		if !ok {
			continue
		}
		frame, ok := byEntity[entity]
		if !ok {
			continue
		}
		select {
		case c.out <- frame:
		default:
			s.logger.Debug().Int64("entity", int64(entity)).Msg("client queue full, frame dropped")
		}
	}
	return nil
}

// Run broadcasts every interval until ctx is done
func (s *Server) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Broadcast(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				s.logger.Warn().Err(err).Msg("broadcast failed")
			}
		}
	}
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) add(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Debug().Int("clients", n).Msg("client connected")
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Debug().Int("clients", n).Msg("client disconnected")
}

func valueFrame(dto models.ValueDto) string {
	return "VAL " + converter.EncodeValueDto(dto)
}
