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
	"os"
	"path/filepath"
	"testing"
)

const registerMapYAML = `
modbus:
  host: 192.168.194.10
  port: 502
  slave_id: 1
  timeout: 5

poll_groups:
  sensors: 80

registers:
  depth:
    address: 100
    data_type: float32
    scale: 1.0
    description: "depth sensor, metres, positive up"
    group: sensors
  fin_top:
    address: 200
    data_type: int16
    scale: 1.0
    writable: true
    min: -35
    max: 35
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finboard.modbus.yml")
	if err := os.WriteFile(path, []byte(registerMapYAML), 0644); err != nil {
		t.Fatal(err)
	}

	conf := LoadConfig(path)

	if conf.Modbus.Host != "192.168.194.10" || conf.Modbus.Port != 502 {
		t.Errorf("modbus endpoint: got %+v", conf.Modbus)
	}
	if conf.Modbus.SlaveID != 1 || conf.Modbus.Timeout != 5 {
		t.Errorf("modbus params: got %+v", conf.Modbus)
	}

	if got := conf.PollGroups["sensors"]; got != 80 {
		t.Errorf("sensors poll interval: got %d, want 80", got)
	}

	depth, ok := conf.Registers["depth"]
	if !ok {
		t.Fatal("depth register missing")
	}
	if depth.Address != 100 || depth.DataType != "float32" || depth.Writable {
		t.Errorf("depth register: got %+v", depth)
	}
	if depth.Group != "sensors" {
		t.Errorf("depth group: got %q", depth.Group)
	}

	fin, ok := conf.Registers["fin_top"]
	if !ok {
		t.Fatal("fin_top register missing")
	}
	if !fin.Writable || fin.Min != -35 || fin.Max != 35 {
		t.Errorf("fin_top travel limits: got %+v", fin)
	}
}
