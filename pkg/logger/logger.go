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
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Logger is a prefixed view of the shared process logger. One per
// service, named after the service.
type Logger struct {
	prefix string
	logger *log.Logger
}

var (
	baseLogger   *log.Logger
	logFile      *os.File
	once         sync.Once
	debugEnabled bool
	debugMu      sync.RWMutex
)

// Init opens the log file and sets up the base logger writing to both
// stdout and the file. Safe to call more than once; only the first call
// takes effect. If the file cannot be opened the logger still works,
// stdout-only, and the error is returned for the caller to act on.
// Debug output is enabled at startup if DEBUG is set.
func Init(logPath string) error {
	var err error
	once.Do(func() {
		if os.Getenv("DEBUG") != "" {
			debugEnabled = true
		}
		logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			baseLogger = log.New(os.Stdout, "", log.LstdFlags)
			return
		}
		baseLogger = log.New(io.MultiWriter(os.Stdout, logFile), "", log.LstdFlags)
	})
	return err
}

// Close releases the log file (call on shutdown).
func Close() {
	if logFile != nil {
		logFile.Close()
	}
}

// EnableDebug turns debug logging on or off at runtime.
func EnableDebug(on bool) {
	debugMu.Lock()
	debugEnabled = on
	debugMu.Unlock()
}

// IsDebug returns the current debug state.
func IsDebug() bool {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugEnabled
}

func New(prefix string) *Logger {
	Init("couguv.log")
	return &Logger{
		prefix: prefix,
		logger: log.New(baseLogger.Writer(), "", log.LstdFlags),
	}
}

func (l *Logger) Info(fmtstr string, v ...any) {
	l.logger.Printf("[%s] INFO: %v", l.prefix, fmt.Sprintf(fmtstr, v...))
}

func (l *Logger) Error(fmtstr string, v ...any) {
	formatted := fmt.Sprintf(fmtstr, v...)
	if _, file, line, ok := runtime.Caller(1); ok {
		l.logger.Printf("[%s] ERROR: (%s:%d) %s", l.prefix, filepath.Base(file), line, formatted)
	} else {
		l.logger.Printf("[%s] ERROR: %v", l.prefix, formatted)
	}
}

// Fatal logs the message and panics. The service supervisor recovers the
// panic and brings the whole process down, so a Fatal during startup stops
// the vehicle before any actuator command is emitted.
func (l *Logger) Fatal(fmtstr string, v ...any) {
	formatted := fmt.Sprintf(fmtstr, v...)
	if _, file, line, ok := runtime.Caller(1); ok {
		l.logger.Printf("[%s] FATAL: (%s:%d) %s", l.prefix, filepath.Base(file), line, formatted)
	} else {
		l.logger.Printf("[%s] FATAL: %v", l.prefix, formatted)
	}
	panic(formatted)
}

func (l *Logger) Debug(fmtstr string, v ...any) {
	if !IsDebug() {
		return
	}
	l.logger.Printf("[%s] DEBUG: %v", l.prefix, fmt.Sprintf(fmtstr, v...))
}
