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

package finboard

import (
	"testing"

	"couguv/pkg/logger"
	"couguv/pkg/modbus"
)

func TestClampToTravel(t *testing.T) {
	s := &Service{
		log: logger.New("FinBoardTest"),
		modbusConf: &modbus.Config{
			Registers: map[string]modbus.RegisterDef{
				regFinTop:   {Min: -35, Max: 35, Writable: true},
				regThruster: {Writable: true}, // no limits declared
			},
		},
	}

	cases := []struct {
		reg  string
		in   float64
		want float64
	}{
		{regFinTop, 0, 0},
		{regFinTop, 35, 35},
		{regFinTop, 100, 35},
		{regFinTop, -100, -35},
		{regThruster, 10000, 10000},   // both-zero limits mean unlimited
		{"unknown_register", 500, 500}, // no register def, no clamp
	}
	for _, c := range cases {
		if got := s.clampToTravel(c.reg, c.in); got != c.want {
			t.Errorf("clampToTravel(%s, %v) = %v, want %v", c.reg, c.in, got, c.want)
		}
	}
}
