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
	"fmt"
	"math"
	"time"

	"couguv/internal/config"
	"couguv/internal/controls/pid"
)

// Inputs is the latest desired/actual pair per axis, snapshotted once per
// cycle. ActualDepth is positive-down here; the sensor-convention flip
// happens before the snapshot is built.
type Inputs struct {
	DesiredDepth   float64
	DesiredHeading float64
	DesiredSpeed   float64

	ActualDepth    float64
	ActualHeading  float64
	ActualVelocity float64
}

// Outputs are the per-axis integer control outputs for one cycle.
type Outputs struct {
	Depth   int
	Heading int
	Speed   int
}

// Bank owns the axis controllers. Nothing else touches their internal
// state; all three are calibrated exactly once here before the first cycle.
type Bank struct {
	depth   pid.Controller
	heading pid.Controller
	speed   pid.Controller

	speedClosedLoop bool
}

// NewBank calibrates one controller per axis from config. Any calibration
// error means a misconfigured control loop and is returned so the caller
// can refuse to start cycling.
func NewBank(conf config.ControlsConfig) (*Bank, error) {
	period := time.Duration(conf.TimerPeriodMs) * time.Millisecond

	b := &Bank{speedClosedLoop: conf.SpeedClosedLoop}

	for _, axis := range []struct {
		name string
		ctrl *pid.Controller
		conf config.AxisConfig
	}{
		{"depth", &b.depth, conf.Depth},
		{"heading", &b.heading, conf.Heading},
		{"speed", &b.speed, conf.Speed},
	} {
		err := axis.ctrl.Calibrate(axis.conf.Kp, axis.conf.Ki, axis.conf.Kd,
			axis.conf.MinOutput, axis.conf.MaxOutput, period, axis.conf.Bias)
		if err != nil {
			return nil, fmt.Errorf("%s axis: %w", axis.name, err)
		}
	}
	return b, nil
}

// Step advances every axis one cycle. Axes are independent; the speed axis
// is a straight pass-through of the desired level unless configured to run
// closed-loop against the measured water speed.
func (b *Bank) Step(in Inputs) Outputs {
	var out Outputs
	out.Depth = b.depth.Compute(in.DesiredDepth, in.ActualDepth)
	out.Heading = b.heading.Compute(in.DesiredHeading, in.ActualHeading)

	if b.speedClosedLoop {
		out.Speed = b.speed.Compute(in.DesiredSpeed, in.ActualVelocity)
	} else {
		out.Speed = int(math.Round(in.DesiredSpeed))
	}
	return out
}
