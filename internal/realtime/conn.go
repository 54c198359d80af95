// Package realtime carries presence and message frames to browsers and
// terminal clients over websockets.
package realtime

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
)

var (
	ErrClosed    = errors.New("connection closed")
	ErrQueueFull = errors.New("send queue full")
)

// Options tune a connection's pumps.
type Options struct {
	SendBuffer     int
	WriteTimeout   time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// DefaultOptions pings every 54s against a 60s read deadline.
func DefaultOptions() Options {
	return Options{
		SendBuffer:     64,
		WriteTimeout:   10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
	}
}

// Conn is a websocket owned by one identity. It implements presence.Handle.
type Conn struct {
	id     string
	user   string
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	opts   Options
	logger *zap.Logger
}

func NewConn(ws *websocket.Conn, userID string, opts Options, logger *zap.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:     id,
		user:   userID,
		ws:     ws,
		send:   make(chan []byte, opts.SendBuffer),
		done:   make(chan struct{}),
		opts:   opts,
		logger: logger.With(zap.String("user_id", userID), zap.String("handle", id)),
	}
}

func (c *Conn) ID() string     { return c.id }
func (c *Conn) UserID() string { return c.user }

// Push queues frame for the write pump. It never blocks.
func (c *Conn) Push(frame []byte) error {
	select {
	case <-c.done:
		return apperr.Transport(ErrClosed)
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return apperr.Transport(ErrQueueFull)
	}
}

// Close stops both pumps. The write pump sends a close frame on its way out.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// Run starts the write pump and blocks in the read pump until the transport
// goes away. Returning is the close notification for this handle.
func (c *Conn) Run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()
	c.readPump()
	_ = c.Close()
	<-writerDone
}

func (c *Conn) readPump() {
	c.ws.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !isClosedConn(err) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		// Client frames carry nothing; sends go through the HTTP API.
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.ws.Close(); err != nil && !isClosedConn(err) {
			c.logger.Warn("close websocket", zap.Error(err))
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.logger.Warn("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("websocket ping failed", zap.Error(err))
				return
			}
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent)
}
