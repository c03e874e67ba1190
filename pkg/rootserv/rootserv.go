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

package rootserv

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"couguv/pkg/logger"
)

// RootServer multiplexes the per-service web pages under one address and
// serves an index page listing them.
type RootServer struct {
	log        *logger.Logger
	addr       string
	mux        *http.ServeMux
	subservers map[string]string // path -> description
	mainPage   http.Handler
}

// New creates a RootServer bound to addr.
func New(addr string) *RootServer {
	return &RootServer{
		addr:       addr,
		mux:        http.NewServeMux(),
		subservers: make(map[string]string),
		log:        logger.New("HTTPServer"),
	}
}

// Attach registers a subserver under path. A path of "/" becomes the main
// page and may handle its own subpaths.
func (ms *RootServer) Attach(path, desc string, handler http.Handler) {
	ms.log.Info("Attach: %s", path)

	if path == "/" {
		ms.mainPage = handler
		return
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	strip := strings.TrimRight(path, "/")
	ms.subservers[strip] = desc
	ms.mux.Handle(path, http.StripPrefix(strip, handler))
}

// handleIndex renders the index page listing all subservers.
func (ms *RootServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	fmt.Fprintln(w, "<!DOCTYPE html><html><head><title>CougUV</title></head><body>")
	fmt.Fprintln(w, "<h1>Vehicle Services</h1><ul>")

	paths := make([]string, 0, len(ms.subservers))
	for path := range ms.subservers {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fmt.Fprintf(w, `<li><a href="%s">%s</a> - %s</li>`, path, path, ms.subservers[path])
	}
	fmt.Fprintln(w, "</ul></body></html>")
}

// Run serves until the context is canceled.
func (ms *RootServer) Run(ctx context.Context) {
	ms.log.Info("Running...")

	ms.mux.HandleFunc("/index", ms.handleIndex)

	ms.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		for path := range ms.subservers {
			if r.URL.Path == path || strings.HasPrefix(r.URL.Path, path+"/") {
				ms.mux.ServeHTTP(w, r)
				return
			}
		}
		if ms.mainPage != nil {
			ms.mainPage.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "/index", http.StatusTemporaryRedirect)
	})

	srv := &http.Server{
		Addr:    ms.addr,
		Handler: ms.mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		ms.log.Info("Stopped")
	case err := <-errCh:
		ms.log.Error("Stopped: %T %+v", err, err)
	}
}
