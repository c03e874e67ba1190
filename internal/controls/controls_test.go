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
	"testing"
	"time"

	"couguv/internal/config"
	"couguv/internal/events"
	"couguv/pkg/eventbus"
)

func testServiceConfig() *config.Config {
	controls := testControlsConfig()
	controls.TimerPeriodMs = 10 // fast cycles for tests
	return &config.Config{
		EventBus: eventbus.New(),
		Controls: controls,
	}
}

func TestNewRefusesBadCalibration(t *testing.T) {
	conf := testServiceConfig()
	conf.Controls.Depth.MinOutput = 100
	conf.Controls.Depth.MaxOutput = -100

	defer func() {
		if recover() == nil {
			t.Error("expected New to halt on a misconfigured axis")
		}
	}()
	New(conf)
}

func TestNoCommandsBeforeInit(t *testing.T) {
	conf := testServiceConfig()
	s := New(conf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmdCh, unsub := conf.EventBus.Subscribe(ctx, events.TopicControlCommand, false)
	defer unsub()

	go s.Run(ctx)

	// a few setpoints arrive, but no init: the loop must stay silent
	conf.EventBus.Publish(events.TopicDesiredDepth, events.DesiredDepth{DepthM: 5})
	conf.EventBus.Publish(events.TopicDesiredSpeed, events.DesiredSpeed{Level: 50})

	select {
	case ev := <-cmdCh:
		t.Fatalf("command emitted before init: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInitStartsCyclingWithDefaults(t *testing.T) {
	conf := testServiceConfig()
	s := New(conf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmdCh, unsub := conf.EventBus.Subscribe(ctx, events.TopicControlCommand, false)
	defer unsub()

	go s.Run(ctx)
	conf.EventBus.Publish(events.TopicInit, events.Init{})

	// no setpoints or sensor data published: the first command is computed
	// from all-zero inputs and must itself be zero
	select {
	case ev := <-cmdCh:
		cmd := ev.(events.Command)
		if cmd.Fins != [3]int{} || cmd.Thruster != 0 {
			t.Errorf("expected zero command from default inputs, got %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no command emitted after init")
	}
}

func TestDepthSensorSignInversion(t *testing.T) {
	conf := testServiceConfig()
	s := New(conf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmdCh, unsub := conf.EventBus.Subscribe(ctx, events.TopicControlCommand, false)
	defer unsub()

	go s.Run(ctx)

	// sensor reports z = -3 (positive-up), so the vehicle is 3 m deep;
	// desired 5 m gives error 2, kp 2.0 gives depth output 4
	conf.EventBus.Publish(events.TopicDesiredDepth, events.DesiredDepth{DepthM: 5})
	conf.EventBus.Publish(events.TopicDepthData, events.DepthUpdate{PositionZ: -3})
	conf.EventBus.Publish(events.TopicInit, events.Init{})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-cmdCh:
			cmd := ev.(events.Command)
			// fins are [top, right, left]; depth drives the side pair opposed
			if cmd.Fins[1] == -4 && cmd.Fins[2] == 4 {
				return
			}
			// inputs may not have been drained before the first few ticks
		case <-deadline:
			t.Fatal("never saw the expected depth command")
		}
	}
}

func TestHeadingFromModemStatus(t *testing.T) {
	conf := testServiceConfig()
	declination := 10.7
	conf.Controls.MagneticDeclination = &declination
	s := New(conf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmdCh, unsub := conf.EventBus.Subscribe(ctx, events.TopicControlCommand, false)
	defer unsub()

	go s.Run(ctx)

	// modem yaw 100 tenths = 10.0 deg; with declination the heading is 20.7.
	// desired heading 20.7 means zero error, so the top fin stays centered
	conf.EventBus.Publish(events.TopicModemStatus, events.ModemStatus{AttitudeYaw: 100})
	conf.EventBus.Publish(events.TopicDesiredHeading, events.DesiredHeading{HeadingDeg: 20.7})
	conf.EventBus.Publish(events.TopicInit, events.Init{})

	// let the loop drain inputs and settle, then check the stream
	time.Sleep(100 * time.Millisecond)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-cmdCh:
			cmd := ev.(events.Command)
			if cmd.Fins[0] == 0 {
				return
			}
		case <-deadline:
			t.Fatal("top fin never centered on matched heading")
		}
	}
}

func TestInitIsOneShot(t *testing.T) {
	conf := testServiceConfig()
	s := New(conf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Run(ctx)
	conf.EventBus.Publish(events.TopicInit, events.Init{})
	time.Sleep(50 * time.Millisecond)

	// a second init is absorbed without disturbing the running loop
	conf.EventBus.Publish(events.TopicInit, events.Init{})
	time.Sleep(50 * time.Millisecond)

	data := s.GetData()
	if data["cycles"] < 2 {
		t.Errorf("expected the loop to keep cycling, got %v cycles", data["cycles"])
	}
}
