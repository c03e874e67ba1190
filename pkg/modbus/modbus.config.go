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

package modbus

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the register map of the fin board, loaded from YAML. The board
// exposes fin/thruster command registers and the depth and water-speed
// sensor registers over Modbus TCP.
type Config struct {
	Modbus     ModbusConfig           `yaml:"modbus"`
	PollGroups map[string]int         `yaml:"poll_groups"` // group name -> interval ms
	Registers  map[string]RegisterDef `yaml:"registers"`
}

type ModbusConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	SlaveID byte   `yaml:"slave_id"`
	Timeout int    `yaml:"timeout"` // seconds
}

type RegisterDef struct {
	Address     uint16  `yaml:"address"`
	DataType    string  `yaml:"data_type"` // "int16", "uint16", "float32"
	Scale       float64 `yaml:"scale"`     // raw * scale + offset = engineering value
	Offset      float64 `yaml:"offset"`
	Description string  `yaml:"description"`
	Writable    bool    `yaml:"writable"`
	Group       string  `yaml:"group,omitempty"`

	// Engineering-value travel limits for writable registers. Both zero
	// means unlimited. This is where actuator safety limiting lives; the
	// control mixer upstream does not clamp.
	Min float64 `yaml:"min,omitempty"`
	Max float64 `yaml:"max,omitempty"`
}

func LoadConfig(filename string) *Config {
	data, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("failed to read register map: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		log.Fatalf("failed to parse register map: %v", err)
	}
	return &config
}
