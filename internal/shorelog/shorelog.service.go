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

// Package shorelog posts dive telemetry to the shore data server whenever
// the vehicle is surfaced and the link is up. Failures are expected (the
// vehicle spends most of a mission underwater) and just logged.
package shorelog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"couguv/internal/config"
	"couguv/pkg/logger"
	"couguv/pkg/service"
)

// DataSource is anything with loggable key/value telemetry.
type DataSource interface {
	GetData() map[string]float64
}

type loggerService struct {
	addr     string
	apiKey   string
	interval time.Duration
	log      *logger.Logger
	sources  map[string]DataSource
}

func New(appConfig *config.Config, sources map[string]DataSource) service.Runnable {
	return &loggerService{
		addr:     appConfig.Shorelog.Addr,
		apiKey:   appConfig.Shorelog.ApiKey,
		interval: time.Duration(appConfig.Shorelog.IntervalSeconds) * time.Second,
		log:      logger.New("ShoreLog"),
		sources:  sources,
	}
}

func (c *loggerService) Run(ctx context.Context) {
	if c.addr == "" {
		c.log.Info("no shore server configured, telemetry disabled")
		return
	}

	c.log.Info("Running...")
	defer c.log.Info("Stopped")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *loggerService) tick() {
	for node, source := range c.sources {
		data := source.GetData()
		if len(data) == 0 {
			continue
		}
		if err := c.inputPost(node, data); err != nil {
			c.log.Debug("post %s failed: %v", node, err)
		}
	}
}

func (c *loggerService) inputPost(node string, data map[string]float64) error {
	payload, err := json.Marshal(data)
	if err != nil {
		c.log.Error("json.Marshal: %v", err)
		return err
	}

	request := fmt.Sprintf("%s/input/post?node=%s&apikey=%s&fulljson=%s",
		c.addr, node, c.apiKey, string(payload))

	resp, err := http.Get(request)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shore server returned %d", resp.StatusCode)
	}
	return nil
}
