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

package config

import (
	"encoding/json"
	"log"
	"os"

	"couguv/pkg/eventbus"
)

// AxisConfig holds the tuning of one PID axis. Zero gains give a zero
// output; the vehicle is only as lively as the config file says.
type AxisConfig struct {
	Kp        float64 `json:"kp"`
	Ki        float64 `json:"ki"`
	Kd        float64 `json:"kd"`
	MinOutput int     `json:"min_output"`
	MaxOutput int     `json:"max_output"`
	Bias      int     `json:"bias"`
}

type ControlsConfig struct {
	// Control cycle period in milliseconds. 80 ms came out of
	// experimentation with the BlueRobotics depth sensor.
	TimerPeriodMs int `json:"timer_period_ms"`

	Depth   AxisConfig `json:"depth"`
	Heading AxisConfig `json:"heading"`
	Speed   AxisConfig `json:"speed"`

	// When false the thruster level is the desired speed passed through
	// untouched; when true the speed axis runs its own PID against the
	// measured water speed.
	SpeedClosedLoop bool `json:"speed_closed_loop"`

	// Speed-proportional correction applied to every fin to counter
	// thrust-induced pitch/yaw bias.
	TrimRatio float64 `json:"trim_ratio"`

	// Mechanical alignment offsets per fin.
	TopFinOffset   float64 `json:"top_fin_offset"`
	RightFinOffset float64 `json:"right_fin_offset"`
	LeftFinOffset  float64 `json:"left_fin_offset"`

	// Additive correction for the modem compass, degrees. A pointer so an
	// explicit 0.0 (a real value near the magnetic equator, or a compass
	// that corrects internally) survives the defaulting pass.
	MagneticDeclination *float64 `json:"magnetic_declination"`
}

const defaultDeclination = 10.7 // Utah Lake

// Declination returns the configured magnetic declination, or the default
// when the config file does not mention it.
func (c ControlsConfig) Declination() float64 {
	if c.MagneticDeclination == nil {
		return defaultDeclination
	}
	return *c.MagneticDeclination
}

type ModemConfig struct {
	// Address of the SeaTrac modem daemon websocket.
	WSAddr string `json:"ws_addr"`
}

type BridgeConfig struct {
	// Operator setpoint limits enforced at the bridge, not in the
	// control loop.
	MaxDepthM     float64 `json:"max_depth_m"`
	MaxSpeedLevel float64 `json:"max_speed_level"`
}

type ShorelogConfig struct {
	Addr            string `json:"addr"`
	ApiKey          string `json:"apikey"`
	IntervalSeconds int    `json:"interval_seconds"`
}

type Config struct {
	Controls ControlsConfig `json:"controls"`
	Modem    ModemConfig    `json:"modem"`
	Bridge   BridgeConfig   `json:"bridge"`
	Shorelog ShorelogConfig `json:"shorelog"`

	// not loaded from file, but added here to
	// pass to all services alongside config
	EventBus *eventbus.Bus
	RootDir  string
}

func LoadFile(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open config: %v", err)
	}
	defer f.Close()

	var c Config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		log.Fatalf("decode config: %v", err)
	}

	// apply defaults; gains, biases, and offsets intentionally default
	// to zero
	if c.Controls.TimerPeriodMs == 0 {
		c.Controls.TimerPeriodMs = 80
	}
	if c.Bridge.MaxDepthM == 0 {
		c.Bridge.MaxDepthM = 30
	}
	if c.Bridge.MaxSpeedLevel == 0 {
		c.Bridge.MaxSpeedLevel = 100
	}
	if c.Shorelog.IntervalSeconds == 0 {
		c.Shorelog.IntervalSeconds = 60
	}
	return &c
}
