// Package logger is the process-wide log sink for the CLI and daemon.
// Debug and info lines need --verbose; warnings and errors always print.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type level uint8

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var levelTags = [...]string{"[DEBUG] ", "[INFO] ", "[WARN] ", "[ERROR] "}

type sink struct {
	mu         sync.Mutex
	out        io.Writer
	verbose    bool
	timestamps bool
}

var (
	std = &sink{out: os.Stderr}
	now = time.Now
)

func SetVerbose(v bool) {
	std.mu.Lock()
	std.verbose = v
	std.mu.Unlock()
}

func IsVerbose() bool {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.verbose
}

// SetTimestamps prefixes lines with a UTC RFC 3339 time. `intake serve`
// turns it on.
func SetTimestamps(v bool) {
	std.mu.Lock()
	std.timestamps = v
	std.mu.Unlock()
}

// SetOutput redirects logging, mostly for tests.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.out = w
	std.mu.Unlock()
}

func (s *sink) logf(lvl level, format string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lvl < levelWarn && !s.verbose {
		return
	}
	var line []byte
	if s.timestamps {
		line = now().UTC().AppendFormat(line, time.RFC3339)
		line = append(line, ' ')
	}
	line = append(line, levelTags[lvl]...)
	line = fmt.Appendf(line, format, args...)
	line = append(line, '\n')
	_, _ = s.out.Write(line)
}

func Debug(format string, args ...any) { std.logf(levelDebug, format, args) }
func Info(format string, args ...any)  { std.logf(levelInfo, format, args) }
func Warn(format string, args ...any)  { std.logf(levelWarn, format, args) }
func Error(format string, args ...any) { std.logf(levelError, format, args) }
