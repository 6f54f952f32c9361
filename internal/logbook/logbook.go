// Package logbook records user-visible activity (logins, edits, failed
// requests) in a plain text journal that the TUI tails in its log panel.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// DefaultMaxBytes bounds the journal; older lines are dropped past it.
const DefaultMaxBytes int64 = 512 << 10

// Logbook appends entries to a text file.
type Logbook struct {
	path     string
	maxBytes int64
	clock    func() time.Time
	mu       sync.Mutex
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithMaxBytes overrides the size at which the journal is compacted.
func WithMaxBytes(n int64) Option {
	return func(l *Logbook) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithClock lets tests pin timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a logbook that writes to the provided path.
func New(path string, opts ...Option) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	l := &Logbook{
		path:     path,
		maxBytes: DefaultMaxBytes,
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry. Multi-line messages are folded onto one line.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	message = strings.Join(strings.Fields(message), " ")
	line := fmt.Sprintf("%s %-5s %s\n",
		l.clock().Format(time.RFC3339),
		string(level),
		message,
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	_, _ = file.WriteString(line)
	info, statErr := file.Stat()
	file.Close()
	if statErr == nil && info.Size() > l.maxBytes {
		l.compactLocked()
	}
}

// compactLocked keeps the newest half of the journal.
func (l *Logbook) compactLocked() {
	lines, err := l.readLocked()
	if err != nil || len(lines) < 2 {
		return
	}
	keep := lines[len(lines)/2:]
	data := strings.Join(keep, "\n") + "\n"
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, l.path)
}

func (l *Logbook) readLocked() ([]string, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Tail returns up to maxLines of the most recent entries and the total
// number of entries in the journal.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lines, err := l.readLocked()
	if err != nil || len(lines) == 0 {
		return nil, 0
	}
	total := len(lines)
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
