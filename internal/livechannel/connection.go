package livechannel

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"auction-bidding/utils"

	"github.com/gorilla/websocket"
)

const (
	WriteWait  = 10 * time.Second
	PongWait   = 60 * time.Second
	PingPeriod = (PongWait * 9) / 10

	maxMessageSize = 4096
	sendQueueSize  = 16
)

var (
	errConnectionClosed = errors.New("connection closed")
	errSendQueueFull    = errors.New("send queue full")
)

// State is the lifecycle position of a live connection
type State int32

const (
	StateConnecting State = iota
	StateBound
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// connection owns one upgraded socket. The write pump is the only writer of
// data frames, everything else goes through the send queue.
type connection struct {
	id       string
	identity string
	ws       *websocket.Conn

	send      chan []byte
	done      chan struct{}
	state     atomic.Int32
	closeOnce sync.Once

	pingPeriod time.Duration
	pongWait   time.Duration
}

func newConnection(identity string, ws *websocket.Conn, pingPeriod, pongWait time.Duration) *connection {
	c := &connection{
		id:         utils.GenerateID(),
		identity:   identity,
		ws:         ws,
		send:       make(chan []byte, sendQueueSize),
		done:       make(chan struct{}),
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
	}
	c.state.Store(int32(StateConnecting))
	return c
}

// State reports where the connection is in its lifecycle
func (c *connection) State() State {
	return State(c.state.Load())
}

func (c *connection) markBound() bool {
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateBound))
}

// Send queues payload without blocking
func (c *connection) Send(payload []byte) error {
	if c.State() == StateClosed {
		return errConnectionClosed
	}
	select {
	case <-c.done:
		return errConnectionClosed
	case c.send <- payload:
		return nil
	default:
		return errSendQueueFull
	}
}

// Close moves the connection to Closed and stops the write pump. Safe to call repeatedly.
func (c *connection) Close() error {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
	})
	return nil
}

// writePump drains the send queue and keeps the peer alive with pings
func (c *connection) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				utils.Warn("Live channel write failed", map[string]any{
					"connection_id": c.id,
					"identity":      c.identity,
					"error":         err.Error(),
				})
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(WriteWait))
			return
		}
	}
}

// readLoop discards inbound frames until the peer goes away. Pongs extend the read deadline.
func (c *connection) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				utils.Warn("Live channel read error", map[string]any{
					"connection_id": c.id,
					"identity":      c.identity,
					"error":         err.Error(),
				})
			}
			return
		}
	}
}
