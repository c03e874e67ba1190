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

package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"couguv/pkg/logger"

	"github.com/gorilla/websocket"
)

type clientSync struct {
	clients map[*websocket.Conn]bool
	mutex   sync.Mutex
}

var clients = clientSync{clients: make(map[*websocket.Conn]bool)}

func (c *clientSync) broadcast(pm *websocket.PreparedMessage, log *logger.Logger) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for ws := range c.clients {
		if err := ws.WritePreparedMessage(pm); err != nil {
			log.Error("failed to write message: %v", err)
			ws.Close()
			delete(c.clients, ws)
		}
	}
}

func (c *clientSync) add(ws *websocket.Conn) {
	c.mutex.Lock()
	c.clients[ws] = true
	c.mutex.Unlock()
}

func (c *clientSync) remove(ws *websocket.Conn) {
	c.mutex.Lock()
	delete(c.clients, ws)
	c.mutex.Unlock()
}

func closeAllClients() {
	clients.mutex.Lock()
	defer clients.mutex.Unlock()
	for ws := range clients.clients {
		ws.Close()
		delete(clients.clients, ws)
	}
}

func broadcastState(state VehicleState, log *logger.Logger) {
	data, err := json.Marshal(state)
	if err != nil {
		log.Error("failed to marshal state: %v", err)
		return
	}
	pm, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
	if err != nil {
		log.Error("failed to prepare message: %v", err)
		return
	}
	clients.broadcast(pm, log)
}

func (s *Service) buildHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveStatus)
	mux.HandleFunc("/ws", s.serveWebSockets(s.clientQueue))
	return mux
}

// ServeHTTP lets the root server attach the bridge pages.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpHandler.ServeHTTP(w, r)
}

func (s *Service) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<!DOCTYPE html><html><head><title>Surface Bridge</title></head><body>")
	fmt.Fprintln(w, "<h1>Surface Bridge</h1>")
	fmt.Fprintln(w, "<p>Operator consoles connect on <code>/bridge/ws</code>.</p>")
	fmt.Fprintf(w, "<pre>%+v</pre>", s.snapshot())
	fmt.Fprintln(w, "</body></html>")
}

func (s *Service) serveWebSockets(msgQueue chan OperatorRequest) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return false
			}
			if strings.Contains(origin, "localhost") {
				return true
			}
			return strings.Contains(origin, r.Host)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Error("failed to upgrade websocket: %v", err)
			return
		}
		clients.add(ws)
		defer func() {
			clients.remove(ws)
			ws.Close()
		}()

		// push current state to the new console
		select {
		case msgQueue <- OperatorRequest{Command: "broadcast"}:
		default:
		}

		var req OperatorRequest
		for {
			if err := ws.ReadJSON(&req); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					break
				}
				s.log.Error("failed ws ReadJSON: %v", err)
				break
			}
			select {
			case msgQueue <- req:
			default:
				s.log.Debug("clientQueue is full; dropping operator message")
			}
		}
	}
}
