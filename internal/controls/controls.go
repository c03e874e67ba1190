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

package controls

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"couguv/internal/config"
	"couguv/internal/controls/mixer"
	"couguv/internal/events"
	"couguv/pkg/eventbus"
	"couguv/pkg/logger"
)

// gate is the one-shot init state of the control loop. There is exactly one
// transition, uninitialized -> running, and no way back; a mission that has
// started stays started until the process exits.
type gate int

const (
	gateUninitialized gate = iota
	gateRunning
)

// Service is the control cycle driver. A single goroutine owns everything:
// it drains setpoint and sensor events between ticks and runs the bank and
// mixer on each tick, so no lock is needed around the cycle inputs.
type Service struct {
	conf config.ControlsConfig
	bus  *eventbus.Bus
	log  *logger.Logger

	bank *Bank
	mix  mixer.Params

	gate gate

	// latest-known cycle inputs, owned by the Run goroutine
	desiredDepth   float64
	desiredHeading float64
	desiredSpeed   float64
	depthZ         float64 // raw sensor value, positive-up
	actualHeading  float64
	actualVelocity float64

	// snapshot for the web page and telemetry, guarded separately
	mu      sync.RWMutex
	lastCmd events.Command
	cycles  int64
}

func New(conf *config.Config) *Service {
	log := logger.New("Controls")

	bank, err := NewBank(conf.Controls)
	if err != nil {
		// refuse to run a misconfigured loop: halt before any actuator
		// command can be emitted
		log.Fatal("calibration: %v", err)
	}

	return &Service{
		conf: conf.Controls,
		bus:  conf.EventBus,
		log:  log,
		bank: bank,
		mix: mixer.Params{
			TrimRatio:      conf.Controls.TrimRatio,
			TopFinOffset:   conf.Controls.TopFinOffset,
			RightFinOffset: conf.Controls.RightFinOffset,
			LeftFinOffset:  conf.Controls.LeftFinOffset,
		},
	}
}

func (s *Service) Run(ctx context.Context) {
	s.log.Info("Running...")
	defer s.log.Info("Stopped")

	initCh, _ := s.bus.Subscribe(ctx, events.TopicInit, true)
	desiredDepthCh, _ := s.bus.Subscribe(ctx, events.TopicDesiredDepth, true)
	desiredHeadingCh, _ := s.bus.Subscribe(ctx, events.TopicDesiredHeading, true)
	desiredSpeedCh, _ := s.bus.Subscribe(ctx, events.TopicDesiredSpeed, true)
	depthCh, _ := s.bus.Subscribe(ctx, events.TopicDepthData, true)
	modemCh, _ := s.bus.Subscribe(ctx, events.TopicModemStatus, true)
	velocityCh, _ := s.bus.Subscribe(ctx, events.TopicVelocityData, true)

	ticker := time.NewTicker(time.Duration(s.conf.TimerPeriodMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-initCh:
			if s.gate == gateUninitialized {
				s.mu.Lock()
				s.gate = gateRunning
				s.mu.Unlock()
				s.log.Info("Init message received, control loop live")
			}

		case ev := <-desiredDepthCh:
			s.desiredDepth = ev.(events.DesiredDepth).DepthM

		case ev := <-desiredHeadingCh:
			s.desiredHeading = ev.(events.DesiredHeading).HeadingDeg

		case ev := <-desiredSpeedCh:
			s.desiredSpeed = ev.(events.DesiredSpeed).Level

		case ev := <-depthCh:
			s.depthZ = ev.(events.DepthUpdate).PositionZ

		case ev := <-modemCh:
			ms := ev.(events.ModemStatus)
			// heading is degrees east of true north in [-180, 180]; the
			// modem transmits tenths of a degree as an integer
			// TODO: verify the yaw sign convention against the surface
			// bridge before fielding (MOOS defines yaw as negative heading)
			s.actualHeading = 0.1*float64(ms.AttitudeYaw) + s.conf.Declination()
			s.log.Debug("yaw update: %.1f deg", s.actualHeading)

		case ev := <-velocityCh:
			s.actualVelocity = ev.(events.VelocityUpdate).SpeedX

		case now := <-ticker.C:
			s.tick(now)

		case <-ctx.Done():
			return
		}
	}
}

// tick runs one control cycle. Before init it does nothing at all; after
// init it always emits a command, even if no input changed since the last
// cycle — stale inputs are not an error, just the latest known state.
func (s *Service) tick(now time.Time) {
	if s.gate != gateRunning {
		return
	}

	outs := s.bank.Step(Inputs{
		DesiredDepth:   s.desiredDepth,
		DesiredHeading: s.desiredHeading,
		DesiredSpeed:   s.desiredSpeed,
		// depth sensor reports positive-up position
		ActualDepth:    -s.depthZ,
		ActualHeading:  s.actualHeading,
		ActualVelocity: s.actualVelocity,
	})

	mixed := mixer.Mix(outs.Depth, outs.Heading, outs.Speed, s.mix)

	cmd := events.Command{
		Fins:     [3]int{mixed.FinTop, mixed.FinRight, mixed.FinLeft},
		Thruster: mixed.Thruster,
		Time:     now,
	}
	s.bus.Publish(events.TopicControlCommand, cmd)

	s.mu.Lock()
	s.lastCmd = cmd
	s.cycles++
	s.mu.Unlock()

	s.log.Debug("Bottom Servos: %d, Top Servo: %d, Thruster: %d",
		outs.Depth, outs.Heading, outs.Speed)
}

// GetData exposes controller state for the telemetry logger.
func (s *Service) GetData() map[string]float64 {
	s.mu.RLock()
	cmd := s.lastCmd
	cycles := s.cycles
	s.mu.RUnlock()

	return map[string]float64{
		"fin_top":   float64(cmd.Fins[0]),
		"fin_right": float64(cmd.Fins[1]),
		"fin_left":  float64(cmd.Fins[2]),
		"thruster":  float64(cmd.Thruster),
		"cycles":    float64(cycles),
	}
}

// ServeHTTP reports the last emitted command and cycle count.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := struct {
		Running bool           `json:"running"`
		Cycles  int64          `json:"cycles"`
		LastCmd events.Command `json:"last_command"`
	}{
		Running: s.gate == gateRunning,
		Cycles:  s.cycles,
		LastCmd: s.lastCmd,
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
