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

package pid

import (
	"fmt"
	"math"
	"time"
)

// Controller is one discrete-time PID loop. Each controlled axis (depth,
// heading, speed) gets its own instance; they differ only by tuning.
// Calibrate must be called before the first Compute. Not safe for
// concurrent use: the owning bank calls it from the cycle goroutine only.
type Controller struct {
	kp, ki, kd float64
	minOutput  float64
	maxOutput  float64
	bias       float64
	dt         float64 // cycle period, seconds

	integral   float64
	prevErr    float64
	prevOutput float64
}

// Calibrate sets the gains, output bounds, cycle period, and bias, and
// zeroes the transient state. Calling it again on a live controller is the
// supported way to re-tune: the controller restarts from a clean integral.
// A non-positive period or inverted bounds indicate a misconfigured loop
// and are rejected rather than clamped.
func (c *Controller) Calibrate(kp, ki, kd float64, minOutput, maxOutput int, period time.Duration, bias int) error {
	if period <= 0 {
		return fmt.Errorf("cycle period must be positive, got %v", period)
	}
	if minOutput > maxOutput {
		return fmt.Errorf("min output %d exceeds max output %d", minOutput, maxOutput)
	}

	c.kp, c.ki, c.kd = kp, ki, kd
	c.minOutput = float64(minOutput)
	c.maxOutput = float64(maxOutput)
	c.bias = float64(bias)
	c.dt = period.Seconds()

	c.integral = 0
	c.prevErr = 0
	c.prevOutput = 0
	return nil
}

// Compute advances the loop one cycle and returns the bounded actuator
// output for the given setpoint and measurement. Deterministic, never
// panics for finite inputs, and the result always lies within
// [minOutput, maxOutput].
func (c *Controller) Compute(desired, actual float64) int {
	err := desired - actual

	// a corrupt sensor sample (NaN or Inf off the wire) must not reach the
	// accumulator: skip the state update and hold the previous output for
	// this cycle, so the loop resumes normally on the next good sample
	if math.IsNaN(err) || math.IsInf(err, 0) {
		out := math.Min(math.Max(c.prevOutput, c.minOutput), c.maxOutput)
		c.prevOutput = out
		return int(out)
	}

	c.integral += err * c.dt

	raw := c.kp*err + c.ki*c.integral + c.kd*(err-c.prevErr)/c.dt + c.bias

	// anti-windup: if the output saturates and this cycle's integral step
	// pushed further in the saturating direction, roll the step back so a
	// long saturation does not bank up integral to unwind later
	if (raw > c.maxOutput && err > 0) || (raw < c.minOutput && err < 0) {
		c.integral -= err * c.dt
	}

	c.prevErr = err

	out := raw
	switch {
	case math.IsNaN(out):
		// a NaN must never reach an actuator; hold the previous output,
		// forced into bounds
		out = math.Min(math.Max(c.prevOutput, c.minOutput), c.maxOutput)
	case out > c.maxOutput:
		out = c.maxOutput
	case out < c.minOutput:
		out = c.minOutput
	}

	// round half away from zero; fin commands are integer servo positions
	out = math.Round(out)
	c.prevOutput = out
	return int(out)
}
