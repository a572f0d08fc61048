// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GermanBionicSystems/motion/mpu6050"
	"github.com/GermanBionicSystems/motion/orientation"
	"github.com/gorilla/websocket"
)

// HubOpts configures a Hub.
type HubOpts struct {
	// WriteTimeout bounds each write to a client. 0 selects one second.
	WriteTimeout time.Duration
	// CheckOrigin is passed to the upgrader. nil accepts every origin.
	CheckOrigin func(r *http.Request) bool
	// Tuner receives the filter parameters sent by clients. nil ignores
	// them.
	Tuner Tuner
	Debug mpu6050.DebugF
}

// Tuner is implemented by *orientation.Filter.
type Tuner interface {
	Params() orientation.Params
	SetParams(p orientation.Params)
}

// Message is the envelope of every WebSocket message, in both directions.
//
// The hub sends Type "imu_update" with a Reading as Payload. Clients send
// Type "params" with a partial orientation.Params; the fields present
// replace the current ones.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub is a Sink broadcasting readings to WebSocket clients.
//
// Clients connect through ServeHTTP. See Message for the protocol.
type Hub struct {
	upgrader websocket.Upgrader
	timeout  time.Duration
	tuner    Tuner
	debug    mpu6050.DebugF

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	halted  bool
}

// NewHub returns a Hub without clients.
func NewHub(opts *HubOpts) *Hub {
	if opts == nil {
		opts = &HubOpts{}
	}
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		timeout: opts.WriteTimeout,
		tuner:   opts.Tuner,
		debug:   opts.Debug,
		clients: map[*websocket.Conn]struct{}{},
	}
	if h.upgrader.CheckOrigin == nil {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	if h.timeout <= 0 {
		h.timeout = time.Second
	}
	if h.debug == nil {
		h.debug = func(string, ...interface{}) {}
	}
	return h
}

func (h *Hub) String() string {
	return "WebSocket"
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. After Halt, new clients are closed right away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.debug("publish: websocket upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	h.mu.Lock()
	if h.halted {
		h.mu.Unlock()
		_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(h.timeout))
		_ = c.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.debug("publish: websocket client %s connected", r.RemoteAddr)
	for {
		_, b, err := c.ReadMessage()
		if err != nil {
			break
		}
		if err := h.handle(b); err != nil {
			h.debug("publish: websocket message from %s: %v", r.RemoteAddr, err)
		}
	}
	h.drop(c)
	h.debug("publish: websocket client %s disconnected", r.RemoteAddr)
}

// handle applies one client message.
func (h *Hub) handle(b []byte) error {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m.Type != "params" {
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	if h.tuner == nil {
		return errors.New("no filter to tune")
	}
	p := h.tuner.Params()
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return err
	}
	h.tuner.SetParams(p)
	h.debug("publish: filter params %+v", p)
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Send implements Sink.
//
// Clients whose write fails are disconnected. Send never fails because of a
// client.
func (h *Hub) Send(r Reading) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(Message{Type: "imu_update", Payload: b})
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	deadline := time.Now().Add(h.timeout)
	for c := range h.clients {
		_ = c.SetWriteDeadline(deadline)
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.debug("publish: websocket write to %s: %v", c.RemoteAddr(), err)
			delete(h.clients, c)
			_ = c.Close()
		}
	}
	return nil
}

// Halt disconnects every client and refuses new ones.
func (h *Hub) Halt() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.halted = true
	for c := range h.clients {
		_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(h.timeout))
		_ = c.Close()
		delete(h.clients, c)
	}
	return nil
}

func (h *Hub) drop(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	_ = c.Close()
}

var _ Sink = &Hub{}
var _ http.Handler = &Hub{}
