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

package events

import (
	"time"

	"couguv/pkg/eventbus"
)

// Topic names match the channel names of the original vehicle stack, so
// recorded missions and surface tooling keep working.
var (
	TopicInit           eventbus.Topic = "init"
	TopicDesiredDepth   eventbus.Topic = "desired_depth"
	TopicDesiredHeading eventbus.Topic = "desired_heading"
	TopicDesiredSpeed   eventbus.Topic = "desired_speed"
	TopicDepthData      eventbus.Topic = "depth_data"
	TopicModemStatus    eventbus.Topic = "modem_status"
	TopicVelocityData   eventbus.Topic = "velocity_data"
	TopicControlCommand eventbus.Topic = "control_command"
)

// Init is the content-free mission-start trigger. The first Init opens the
// control gate for the life of the process; later ones are ignored.
type Init struct{}

// DesiredDepth is the depth setpoint in meters, positive down.
type DesiredDepth struct {
	DepthM float64
}

// DesiredHeading is the heading setpoint in degrees.
type DesiredHeading struct {
	HeadingDeg float64
}

// DesiredSpeed is the commanded speed in thruster-level units.
type DesiredSpeed struct {
	Level float64
}

// DepthUpdate carries the measured vertical position in meters. The sensor
// convention is positive-up, so the controls node negates it before use.
type DepthUpdate struct {
	PositionZ float64
	Time      time.Time
}

// ModemStatus carries the attitude report from the acoustic modem. Yaw is
// the raw transmitted integer in tenths of a degree; scaling and the
// magnetic declination correction are applied by the consumer.
type ModemStatus struct {
	AttitudeYaw int
	Time        time.Time
}

// VelocityUpdate carries the measured forward water speed, used only when
// the speed axis runs closed-loop.
type VelocityUpdate struct {
	SpeedX float64
	Time   time.Time
}

// Command is one cycle's actuator command: three fin positions and a
// thruster level. Values are controller outputs; the fin board driver is
// the one that limits them to servo travel before writing hardware.
type Command struct {
	Fins     [3]int // top, right, left (viewed from the front)
	Thruster int
	Time     time.Time
}
