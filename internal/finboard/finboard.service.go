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

// Package finboard drives the Modbus-attached actuator/sensor board: it
// polls the depth and water-speed registers onto the event bus and writes
// each control command into the fin and thruster registers. This driver is
// the actuator safety boundary — commanded positions are clamped to the
// travel limits in the register map here, and only here.
package finboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"couguv/internal/config"
	"couguv/internal/events"
	"couguv/pkg/eventbus"
	"couguv/pkg/logger"
	"couguv/pkg/modbus"
)

// Register names expected in the register map.
const (
	regDepth      = "depth"
	regWaterSpeed = "water_speed"
	regFinTop     = "fin_top"
	regFinRight   = "fin_right"
	regFinLeft    = "fin_left"
	regThruster   = "thruster"
)

type Service struct {
	client     *modbus.Client
	modbusConf *modbus.Config
	bus        *eventbus.Bus
	log        *logger.Logger

	mu     sync.RWMutex
	latest map[string]float64
}

func New(modbusConf *modbus.Config, appConf *config.Config) *Service {
	return &Service{
		client:     modbus.NewClient(context.Background(), modbusConf),
		modbusConf: modbusConf,
		bus:        appConf.EventBus,
		log:        logger.New("FinBoard"),
		latest:     make(map[string]float64),
	}
}

func (s *Service) Run(ctx context.Context) {
	s.log.Info("Running...")
	defer s.log.Info("Stopped")

	// group sensor registers by poll group; the depth group runs fast
	// enough to feed the control loop, slower groups cover diagnostics
	grouped := make(map[string][]string)
	for name, reg := range s.modbusConf.Registers {
		if reg.Writable {
			continue // command registers are written, not polled
		}
		group := reg.Group
		if group == "" {
			group = "default"
		}
		grouped[group] = append(grouped[group], name)
	}

	intervals := s.modbusConf.PollGroups
	if len(intervals) == 0 {
		intervals = map[string]int{"default": 80}
	}

	var wg sync.WaitGroup
	for group, names := range grouped {
		intervalMs, ok := intervals[group]
		if !ok {
			intervalMs = intervals["default"]
		}
		wg.Add(1)
		go func(group string, names []string, interval time.Duration) {
			defer wg.Done()
			s.runGroupPoller(ctx, group, names, interval)
		}(group, names, time.Duration(intervalMs)*time.Millisecond)
	}

	commandCh, _ := s.bus.Subscribe(ctx, events.TopicControlCommand, false)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case ev := <-commandCh:
			s.writeCommand(ev.(events.Command))
		}
	}
}

func (s *Service) runGroupPoller(ctx context.Context, group string, names []string, interval time.Duration) {
	s.log.Info("Starting group %q poller (every %v)", group, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.pollRegisters(names)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollRegisters(names)
		}
	}
}

func (s *Service) pollRegisters(names []string) {
	for _, name := range names {
		val, err := s.client.ReadValue(name)
		if err != nil {
			s.log.Error("read %s: %v", name, err)
			continue
		}

		s.mu.Lock()
		s.latest[name] = val
		s.mu.Unlock()

		now := time.Now()
		switch name {
		case regDepth:
			// board reports position, meters positive-up
			s.bus.Publish(events.TopicDepthData, events.DepthUpdate{PositionZ: val, Time: now})
		case regWaterSpeed:
			s.bus.Publish(events.TopicVelocityData, events.VelocityUpdate{SpeedX: val, Time: now})
		}
	}
}

// writeCommand pushes one control command into the actuator registers,
// clamped to the travel limits declared in the register map.
func (s *Service) writeCommand(cmd events.Command) {
	writes := []struct {
		reg string
		val float64
	}{
		{regFinTop, float64(cmd.Fins[0])},
		{regFinRight, float64(cmd.Fins[1])},
		{regFinLeft, float64(cmd.Fins[2])},
		{regThruster, float64(cmd.Thruster)},
	}

	for _, w := range writes {
		val := s.clampToTravel(w.reg, w.val)
		if err := s.client.WriteValue(w.reg, val); err != nil {
			s.log.Error("write %s: %v", w.reg, err)
			continue
		}
		s.mu.Lock()
		s.latest[w.reg] = val
		s.mu.Unlock()
	}
}

func (s *Service) clampToTravel(name string, val float64) float64 {
	reg, ok := s.modbusConf.Registers[name]
	if !ok || (reg.Min == 0 && reg.Max == 0) {
		return val
	}
	if val < reg.Min {
		s.log.Debug("%s clamped %v -> %v", name, val, reg.Min)
		return reg.Min
	}
	if val > reg.Max {
		s.log.Debug("%s clamped %v -> %v", name, val, reg.Max)
		return reg.Max
	}
	return val
}

// GetData exposes the latest register values for the telemetry logger.
func (s *Service) GetData() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.latest))
	for k, v := range s.latest {
		out[k] = v
	}
	return out
}

// ServeHTTP reports the latest values of every register.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.GetData())
}
