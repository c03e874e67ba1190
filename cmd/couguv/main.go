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

package main

import (
	"log"
	"os"
	"path/filepath"

	"couguv/internal/bridge"
	"couguv/internal/config"
	"couguv/internal/controls"
	"couguv/internal/finboard"
	"couguv/internal/seatrac"
	"couguv/internal/shorelog"
	"couguv/pkg/appctx"
	"couguv/pkg/eventbus"
	"couguv/pkg/logger"
	"couguv/pkg/modbus"
	"couguv/pkg/rootserv"
	"couguv/pkg/service"
	"couguv/pkg/sysmon"
)

func main() {

	rootdir := os.Getenv("PROJECT_ROOT")
	if rootdir == "" {
		rootdir = "."
	}

	if err := logger.Init(filepath.Join(rootdir, "var/logs/couguv.log")); err != nil {
		log.Fatalf("open log file: %v", err)
	}

	appConf := config.LoadFile(filepath.Join(rootdir, "var/config/couguv.json"))
	registerMap := modbus.LoadConfig(filepath.Join(rootdir, "var/config/finboard.modbus.yml"))

	// use conf to pass eventbus to whoever needs it
	appConf.EventBus = eventbus.New()
	appConf.RootDir = rootdir

	ctx, ctxCancel := appctx.New()

	// init services; a bad control config makes controls.New panic here,
	// before any service starts and before any command can reach a fin
	server := rootserv.New(":80")
	sysMonitorService := sysmon.New()
	controlsService := controls.New(appConf)
	finboardService := finboard.New(registerMap, appConf)
	seatracService := seatrac.New(appConf)
	bridgeService := bridge.New(appConf)
	shoreLogService := shorelog.New(appConf, map[string]shorelog.DataSource{
		"controls": controlsService,
		"finboard": finboardService,
	})

	// attach web handler enabled services
	server.Attach("/logger", "Logger", logger.WebService())
	server.Attach("/monitor", "System Monitor", sysMonitorService)
	server.Attach("/controls", "Control Loop State", controlsService)
	server.Attach("/finboard", "Fin Board Registers", finboardService)
	server.Attach("/modem", "SeaTrac Modem", seatracService)
	server.Attach("/bridge", "Surface Bridge", bridgeService)

	// start runnable services
	exitCh := service.Start(ctx, ctxCancel, []service.Runnable{
		controlsService,
		finboardService,
		seatracService,
		bridgeService,
		shoreLogService,
		server,
	})

	// waits for all services to stop
	os.Exit(<-exitCh)
}
