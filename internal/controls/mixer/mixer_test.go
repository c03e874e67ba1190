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

package mixer

import "testing"

func TestZeroInputsZeroParams(t *testing.T) {
	cmd := Mix(0, 0, 0, Params{})
	if cmd != (Command{}) {
		t.Errorf("expected all-zero command, got %+v", cmd)
	}
}

func TestDepthDrivesOpposedFins(t *testing.T) {
	cmd := Mix(10, 0, 0, Params{})

	if cmd.FinRight != -10 {
		t.Errorf("right fin should oppose depth output, got %d", cmd.FinRight)
	}
	if cmd.FinLeft != 10 {
		t.Errorf("left fin should follow depth output, got %d", cmd.FinLeft)
	}
	if cmd.FinTop != 0 {
		t.Errorf("top fin should not react to depth, got %d", cmd.FinTop)
	}
}

func TestHeadingDrivesTopFinOnly(t *testing.T) {
	cmd := Mix(0, 25, 0, Params{})

	if cmd.FinTop != 25 {
		t.Errorf("top fin should carry heading output, got %d", cmd.FinTop)
	}
	if cmd.FinRight != 0 || cmd.FinLeft != 0 {
		t.Errorf("side fins should not react to heading, got %+v", cmd)
	}
}

func TestThrusterPassesThrough(t *testing.T) {
	for _, level := range []int{-100, 0, 37, 100} {
		if cmd := Mix(0, 0, level, Params{TrimRatio: 0.5}); cmd.Thruster != level {
			t.Errorf("thruster level %d came out as %d", level, cmd.Thruster)
		}
	}
}

func TestTrimAppliedToAllFins(t *testing.T) {
	cmd := Mix(0, 0, 40, Params{TrimRatio: 0.1})

	// trim = 0.1 * 40 = 4, applied to each fin
	if cmd.FinTop != 4 || cmd.FinRight != 4 || cmd.FinLeft != 4 {
		t.Errorf("expected trim 4 on all fins, got %+v", cmd)
	}
}

func TestPerFinOffsets(t *testing.T) {
	p := Params{TopFinOffset: 1, RightFinOffset: -2, LeftFinOffset: 3}
	cmd := Mix(0, 0, 0, p)

	if cmd.FinTop != 1 || cmd.FinRight != -2 || cmd.FinLeft != 3 {
		t.Errorf("expected offsets (1, -2, 3), got %+v", cmd)
	}
}

func TestCombinedMixing(t *testing.T) {
	p := Params{
		TrimRatio:      0.05,
		TopFinOffset:   2,
		RightFinOffset: -1,
		LeftFinOffset:  1,
	}
	cmd := Mix(20, -15, 60, p)

	// trim = 0.05 * 60 = 3
	want := Command{
		FinTop:   -15 + 3 + 2, // heading + trim + offset
		FinRight: -20 + 3 - 1, // -depth + trim + offset
		FinLeft:  20 + 3 + 1,  // +depth + trim + offset
		Thruster: 60,
	}
	if cmd != want {
		t.Errorf("got %+v, want %+v", cmd, want)
	}
}

func TestNoClamping(t *testing.T) {
	// the mixer must not limit travel; that belongs to the fin board driver
	cmd := Mix(10000, -10000, 100, Params{})

	if cmd.FinTop != -10000 || cmd.FinLeft != 10000 || cmd.FinRight != -10000 {
		t.Errorf("mixer clamped its outputs: %+v", cmd)
	}
}

func TestRoundsTiesAwayFromZero(t *testing.T) {
	// trim = 0.5 on an otherwise zero command
	cmd := Mix(0, 0, 1, Params{TrimRatio: 0.5})
	if cmd.FinTop != 1 {
		t.Errorf("0.5 should round to 1, got %d", cmd.FinTop)
	}

	cmd = Mix(0, 0, 1, Params{TrimRatio: -0.5})
	if cmd.FinTop != -1 {
		t.Errorf("-0.5 should round to -1, got %d", cmd.FinTop)
	}
}
