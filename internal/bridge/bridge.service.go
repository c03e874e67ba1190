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

// Package bridge is the surface-vehicle link: a websocket endpoint where
// the operator console sets mission setpoints, sends the one-shot init
// trigger, and watches the vehicle state. Setpoint limits are enforced
// here so a fat-fingered console cannot command a 300 m dive.
package bridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"couguv/internal/config"
	"couguv/internal/events"
	"couguv/pkg/eventbus"
	"couguv/pkg/logger"
)

// OperatorRequest is one inbound console message.
type OperatorRequest struct {
	Command string  `json:"command"` // "set_depth" | "set_heading" | "set_speed" | "init"
	Value   float64 `json:"value,omitempty"`
}

// VehicleState is the broadcast payload for operator consoles.
type VehicleState struct {
	DesiredDepth   float64 `json:"desired_depth"`
	DesiredHeading float64 `json:"desired_heading"`
	DesiredSpeed   float64 `json:"desired_speed"`
	Depth          float64 `json:"depth"`
	Fins           [3]int  `json:"fins"`
	Thruster       int     `json:"thruster"`
	Initialized    bool    `json:"initialized"`
}

type Service struct {
	conf        config.BridgeConfig
	bus         *eventbus.Bus
	log         *logger.Logger
	clientQueue chan OperatorRequest
	httpHandler http.Handler

	// written by the Run goroutine, read by the status page
	stateMu sync.Mutex
	state   VehicleState
}

// snapshot copies the state for readers outside the Run goroutine.
func (s *Service) snapshot() VehicleState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func New(conf *config.Config) *Service {
	s := &Service{
		conf:        conf.Bridge,
		bus:         conf.EventBus,
		log:         logger.New("Bridge"),
		clientQueue: make(chan OperatorRequest, 8),
	}
	s.httpHandler = s.buildHTTPHandler()
	return s
}

func (s *Service) Run(ctx context.Context) {
	s.log.Info("Running...")
	defer s.log.Info("Stopped")

	commandCh, _ := s.bus.Subscribe(ctx, events.TopicControlCommand, true)
	depthCh, _ := s.bus.Subscribe(ctx, events.TopicDepthData, true)

	// state broadcasts are throttled; consoles do not need the full
	// control rate
	broadcastTicker := time.NewTicker(time.Second)
	defer broadcastTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			closeAllClients()
			return

		case ev := <-commandCh:
			cmd := ev.(events.Command)
			s.stateMu.Lock()
			s.state.Fins = cmd.Fins
			s.state.Thruster = cmd.Thruster
			s.stateMu.Unlock()

		case ev := <-depthCh:
			s.stateMu.Lock()
			s.state.Depth = -ev.(events.DepthUpdate).PositionZ
			s.stateMu.Unlock()

		case req := <-s.clientQueue:
			s.handleRequest(req)

		case <-broadcastTicker.C:
			broadcastState(s.snapshot(), s.log)
		}
	}
}

func (s *Service) handleRequest(req OperatorRequest) {
	s.log.Debug("operator request: %+v", req)

	switch req.Command {
	case "set_depth":
		depth := clamp(req.Value, 0, s.conf.MaxDepthM)
		s.stateMu.Lock()
		s.state.DesiredDepth = depth
		s.stateMu.Unlock()
		s.bus.Publish(events.TopicDesiredDepth, events.DesiredDepth{DepthM: depth})

	case "set_heading":
		heading := wrapDegrees(req.Value)
		s.stateMu.Lock()
		s.state.DesiredHeading = heading
		s.stateMu.Unlock()
		s.bus.Publish(events.TopicDesiredHeading, events.DesiredHeading{HeadingDeg: heading})

	case "set_speed":
		speed := clamp(req.Value, 0, s.conf.MaxSpeedLevel)
		s.stateMu.Lock()
		s.state.DesiredSpeed = speed
		s.stateMu.Unlock()
		s.bus.Publish(events.TopicDesiredSpeed, events.DesiredSpeed{Level: speed})

	case "init":
		s.log.Info("operator sent init")
		s.stateMu.Lock()
		s.state.Initialized = true
		s.stateMu.Unlock()
		s.bus.Publish(events.TopicInit, events.Init{})

	case "broadcast":
		broadcastState(s.snapshot(), s.log)

	default:
		s.log.Error("unhandled operator command: %q", req.Command)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapDegrees normalizes a heading into [-180, 180).
func wrapDegrees(deg float64) float64 {
	for deg >= 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}
