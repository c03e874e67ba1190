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
	"testing"

	"couguv/internal/config"
)

func testControlsConfig() config.ControlsConfig {
	axis := config.AxisConfig{
		Kp:        2.0,
		MinOutput: -100,
		MaxOutput: 100,
	}
	return config.ControlsConfig{
		TimerPeriodMs: 80,
		Depth:         axis,
		Heading:       axis,
		Speed:         axis,
	}
}

func TestNewBankRejectsBadAxis(t *testing.T) {
	conf := testControlsConfig()
	conf.Heading.MinOutput = 50
	conf.Heading.MaxOutput = -50

	if _, err := NewBank(conf); err == nil {
		t.Error("expected calibration error for inverted heading bounds")
	}

	conf = testControlsConfig()
	conf.TimerPeriodMs = 0
	if _, err := NewBank(conf); err == nil {
		t.Error("expected calibration error for zero cycle period")
	}
}

func TestStepAxesAreIndependent(t *testing.T) {
	bank, err := NewBank(testControlsConfig())
	if err != nil {
		t.Fatal(err)
	}

	out := bank.Step(Inputs{
		DesiredDepth:  5.0,
		ActualDepth:   3.0,
		ActualHeading: 10.0, // desired heading left at zero
	})

	if out.Depth != 4 {
		t.Errorf("depth axis: expected 4, got %d", out.Depth)
	}
	if out.Heading != -20 {
		t.Errorf("heading axis: expected -20, got %d", out.Heading)
	}
}

func TestSpeedPassThroughByDefault(t *testing.T) {
	bank, err := NewBank(testControlsConfig())
	if err != nil {
		t.Fatal(err)
	}

	// open loop: the desired level goes straight through, rounded, and the
	// measured velocity is ignored
	out := bank.Step(Inputs{DesiredSpeed: 42.6, ActualVelocity: 1000.0})
	if out.Speed != 43 {
		t.Errorf("expected pass-through speed 43, got %d", out.Speed)
	}
}

func TestSpeedClosedLoop(t *testing.T) {
	conf := testControlsConfig()
	conf.SpeedClosedLoop = true

	bank, err := NewBank(conf)
	if err != nil {
		t.Fatal(err)
	}

	// kp = 2.0, error = 1.5 m/s
	out := bank.Step(Inputs{DesiredSpeed: 2.0, ActualVelocity: 0.5})
	if out.Speed != 3 {
		t.Errorf("expected closed-loop speed 3, got %d", out.Speed)
	}
}
