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

package seatrac

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"couguv/internal/config"
	"couguv/internal/events"
	"couguv/pkg/eventbus"
	"couguv/pkg/logger"
	"couguv/pkg/seatracws"
)

// Service bridges the acoustic modem onto the event bus. The modem's AHRS
// is the vehicle's heading source: every status report carries an attitude,
// and we republish the raw yaw for the controls node to scale and correct.
type Service struct {
	client *seatracws.Client
	bus    *eventbus.Bus
	log    *logger.Logger

	mu   sync.RWMutex
	last seatracws.Report
	seen int64
}

func New(conf *config.Config) *Service {
	s := &Service{
		client: seatracws.NewClient(conf.Modem.WSAddr),
		bus:    conf.EventBus,
		log:    logger.New("SeaTrac"),
	}
	s.client.OnReport(s.handleReport)
	return s
}

func (s *Service) handleReport(r seatracws.Report) {
	s.mu.Lock()
	s.last = r
	s.seen++
	s.mu.Unlock()

	switch r.MsgID {
	case seatracws.CIDStatus:
		s.bus.Publish(events.TopicModemStatus, events.ModemStatus{
			AttitudeYaw: r.AttitudeYaw,
			Time:        time.Now(),
		})

	case seatracws.CIDDatReceive:
		// acoustic data frames also carry the attitude sampled at
		// reception, usable as a heading update between status reports
		s.bus.Publish(events.TopicModemStatus, events.ModemStatus{
			AttitudeYaw: r.AttitudeYaw,
			Time:        time.Now(),
		})
		s.log.Debug("acoustic data from beacon %d: %d bytes", r.SrcID, len(r.Data))

	default:
		s.log.Debug("unhandled modem report: msg_id=0x%02x", r.MsgID)
	}
}

func (s *Service) Run(ctx context.Context) {
	s.log.Info("Running...")
	defer s.log.Info("Stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := s.client.Connect(ctx); err != nil {
				time.Sleep(5 * time.Second)
				continue
			}
			if err := s.client.ListenNext(); err != nil {
				s.client.Close()
			}
		}
	}
}

// ServeHTTP reports the last modem frame seen.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := struct {
		ReportsSeen int64            `json:"reports_seen"`
		LastReport  seatracws.Report `json:"last_report"`
	}{s.seen, s.last}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
