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

package logger

import (
	"bufio"
	"html/template"
	"net/http"
	"os"
	"strings"
	"sync"
)

// Service exposes the process log over HTTP: view the tail, toggle debug
// output, clear the file. Attached under /logger by the root server.
type Service struct {
	mu sync.Mutex
}

func WebService() *Service {
	return &Service{}
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/toggle":
		EnableDebug(!IsDebug())
		http.Redirect(w, r, "/logger", http.StatusSeeOther)

	case "/clear":
		if err := s.clearLog(); err != nil {
			http.Error(w, "failed to clear log: "+err.Error(), 500)
			return
		}
		http.Redirect(w, r, "/logger", http.StatusSeeOther)

	default:
		s.renderPage(w)
	}
}

func (s *Service) renderPage(w http.ResponseWriter) {
	logs, _ := s.tail(250)

	tpl := `
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>CougUV Logger</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 2em; background: #f9f9f9; color: #333; }
    .btn { display:inline-block; padding:0.5em 1em; margin:0.2em; font-size:0.9em;
           background:#007bff; color:white; border-radius:4px; text-decoration:none; }
    .btn-danger { background:#dc3545; }
    pre.log { background:#222; color:#eee; padding:1em; border-radius:6px; max-height:500px; overflow:auto; }
  </style>
</head>
<body>
  <h1>Logger</h1>
  <div>Debug logging: <b>{{if .Debug}}ENABLED{{else}}disabled{{end}}</b></div>
  <a class="btn" href="/logger/toggle">Toggle Debug</a>
  <a class="btn btn-danger" href="/logger/clear">Clear Log</a>
  <h2>Log Tail</h2>
  <pre class="log">{{.Logs}}</pre>
</body>
</html>`

	t := template.Must(template.New("logger").Parse(tpl))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	t.Execute(w, struct {
		Debug bool
		Logs  string
	}{
		Debug: IsDebug(),
		Logs:  strings.Join(logs, "\n"),
	})
}

// tail returns up to n trailing lines of the log file.
func (s *Service) tail(n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if logFile == nil {
		return nil, nil
	}
	f, err := os.Open(logFile.Name())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

func (s *Service) clearLog() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if logFile == nil {
		return nil
	}
	return os.Truncate(logFile.Name(), 0)
}
