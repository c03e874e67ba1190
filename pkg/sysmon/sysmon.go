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

package sysmon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"couguv/pkg/logger"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Service reports CPU, memory, and disk usage of the vehicle computer.
// Useful when debugging a mission over the surface link: a saturated CPU
// or a full disk shows up here before it shows up as missed control cycles.
type Service struct {
	log *logger.Logger
}

func New() *Service {
	return &Service{
		log: logger.New("SysMonitor"),
	}
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cpuPercentList, _ := cpu.Percent(0, false)
	cpuPercent := 0.0
	if len(cpuPercentList) > 0 {
		cpuPercent = cpuPercentList[0]
	}

	vmem, _ := mem.VirtualMemory()
	totalDisk, freeDisk, usedDisk, _ := DiskUsage("/")

	var procMem uint64
	var procCPU float64
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			procMem = memInfo.RSS
		}
		if pct, err := p.CPUPercent(); err == nil {
			procCPU = pct
		}
	}

	metrics := map[string]any{
		"go_version": runtime.Version(),
		"cpu": map[string]any{
			"system_percent":  cpuPercent,
			"process_percent": procCPU,
		},
		"memory": map[string]any{
			"system_total": vmem.Total,
			"system_used":  vmem.Used,
			"system_free":  vmem.Available,
			"process_rss":  procMem,
		},
		"disk": map[string]any{
			"total": totalDisk,
			"used":  usedDisk,
			"free":  freeDisk,
		},
	}

	if r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metrics)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<!DOCTYPE html><html><head><title>System Monitor</title></head><body>")
	fmt.Fprintln(w, "<h1>Vehicle Computer</h1>")
	fmt.Fprintf(w, "<p>Go: %s</p>", runtime.Version())
	fmt.Fprintf(w, "<p>CPU: system %.1f%%, process %.1f%%</p>", cpuPercent, procCPU)
	fmt.Fprintf(w, "<p>Memory: %d / %d MB used, process RSS %d MB</p>",
		vmem.Used>>20, vmem.Total>>20, procMem>>20)
	fmt.Fprintf(w, "<p>Disk: %d / %d MB used</p>", usedDisk>>20, totalDisk>>20)
	fmt.Fprintln(w, "</body></html>")
}
