// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/reelhouse/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

var clientIDCounter atomic.Uint64

// Client pumps hub messages to one websocket connection.
type Client struct {
	// id orders broadcasts deterministically.
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	subject string
}

// NewClient wraps conn. subject identifies the authenticated caller in logs.
func NewClient(hub *Hub, conn *websocket.Conn, subject string) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, sendBuffer),
		subject: subject,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("Unexpected websocket close")
			}
			return
		}
		if msg.Type == MessageTypePing {
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
