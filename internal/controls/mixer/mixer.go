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

// Package mixer maps per-axis controller outputs onto the vehicle's
// three-fin, single-thruster tail. Mixing is a pure affine function of its
// inputs; there is no state and no clamping here. Travel limiting is owned
// by the fin board driver, which knows the servo range — do not add a
// second clamp in this package.
package mixer

import "math"

// Fin layout constants, viewed from the front. The right and left fins are
// mounted opposed, so a single depth signal pitches the vehicle by driving
// them in opposite directions. These encode the airframe, not tuning.
const (
	rightFinDepthSign = -1
	leftFinDepthSign  = +1
)

// Params are the trim and alignment corrections applied on top of the raw
// axis outputs. Fixed at startup from config.
type Params struct {
	TrimRatio      float64
	TopFinOffset   float64
	RightFinOffset float64
	LeftFinOffset  float64
}

// Command is one cycle's mixed actuator command.
type Command struct {
	FinTop   int
	FinRight int
	FinLeft  int
	Thruster int
}

// Mix combines the depth and heading controller outputs with the thruster
// level. The trim term compensates all three fins for thrust-induced bias
// in proportion to the commanded speed.
func Mix(depthOut, headingOut, speedLevel int, p Params) Command {
	trim := p.TrimRatio * float64(speedLevel)

	return Command{
		FinTop:   roundHalfAway(float64(headingOut) + trim + p.TopFinOffset),
		FinRight: roundHalfAway(rightFinDepthSign*float64(depthOut) + trim + p.RightFinOffset),
		FinLeft:  roundHalfAway(leftFinDepthSign*float64(depthOut) + trim + p.LeftFinOffset),
		Thruster: speedLevel,
	}
}

// roundHalfAway rounds to the nearest integer, ties away from zero — the
// same policy the axis controllers use, so fin positions are consistent
// everywhere.
func roundHalfAway(v float64) int {
	return int(math.Round(v))
}
