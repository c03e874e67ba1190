// Copyright (C) 2025 Josh Simonot
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package seatracws is a websocket client for the SeaTrac modem daemon,
// which owns the serial link to the acoustic modem and streams its reports
// as JSON frames.
package seatracws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"couguv/pkg/logger"

	"github.com/gorilla/websocket"
)

// SeaTrac message IDs we care about. The modem tags every report with the
// CID of the frame it decoded.
const (
	CIDStatus     = 0x10
	CIDDatReceive = 0x60
)

// Report is one decoded modem frame. Attitude fields are integers in
// tenths of a degree, exactly as transmitted on the acoustic link.
type Report struct {
	Type  string `json:"type"` // "status" | "receive"
	MsgID int    `json:"msg_id"`

	AttitudeYaw   int `json:"attitude_yaw"`
	AttitudePitch int `json:"attitude_pitch"`
	AttitudeRoll  int `json:"attitude_roll"`

	// millivolts, status reports only
	SupplyVoltage int `json:"supply_voltage,omitempty"`

	// acoustic data reports only
	SrcID int    `json:"src_id,omitempty"`
	Data  []byte `json:"data,omitempty"`
}

// Client manages the websocket connection to the modem daemon.
type Client struct {
	url       string
	conn      *websocket.Conn
	mu        sync.Mutex
	onReport  func(Report)
	retryWait time.Duration
	log       *logger.Logger
}

func NewClient(url string) *Client {
	return &Client{
		url:       url,
		retryWait: 5 * time.Second,
		log:       logger.New("SeaTracWS"),
	}
}

// OnReport sets the callback invoked for every decoded report.
func (c *Client) OnReport(fn func(Report)) {
	c.onReport = fn
}

// Send sends a command frame to the modem daemon.
func (c *Client) Send(msg any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

// Connect dials the daemon and asks it to stream reports. Returns an error
// if the daemon is unreachable; the caller decides the retry policy.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil // already connected
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		c.log.Error("connect failed: %v (%v), retrying in %s", err, c.url, c.retryWait)
		return err
	}

	// close the socket on cancel to unblock any pending read
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	if err := conn.WriteJSON(map[string]any{"command": "stream_reports"}); err != nil {
		c.log.Error("stream_reports failed: %v", err)
		conn.Close()
		return err
	}

	c.conn = conn
	c.log.Info("Connected")
	return nil
}

// Close stops the client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		tmpConn := c.conn
		c.conn = nil
		tmpConn.Close()
		c.log.Info("Closed")
	}
}

// ListenNext reads and dispatches one report. Returns a non-nil error when
// the connection is broken and needs to be re-established.
func (c *Client) ListenNext() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		c.mu.Lock()
		closed := c.conn == nil
		c.mu.Unlock()
		if closed {
			return fmt.Errorf("connection closed")
		}
		c.log.Error("ReadMessage: %v", err)
		return err
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		c.log.Error("unmarshal of modem report: %v", err)
		return nil // bad frame, keep the connection
	}

	if c.onReport != nil {
		c.onReport(report)
	}
	return nil
}
