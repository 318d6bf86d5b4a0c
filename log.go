package emola

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Log persists the top-level definitions of a session so a later session can
// replay them into a fresh global environment.
type Log interface {
	Append(entry string) error
	Entries() ([]string, error)
	Truncate() error
	Close() error
}

// FileLog stores entries in a text file, one Go-quoted entry per line, so
// string literals spanning lines survive the round trip.
type FileLog struct {
	path string
	f    *os.File
}

// OpenFileLog opens (or creates) the log at path for appending.
func OpenFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return &FileLog{path: path, f: f}, nil
}

func (l *FileLog) Append(entry string) error {
	_, err := fmt.Fprintln(l.f, strconv.Quote(strings.TrimSpace(entry)))
	return err
}

func (l *FileLog) Entries() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return splitLogEntries(string(data))
}

func (l *FileLog) Truncate() error {
	if l.f != nil {
		l.f.Close()
		l.f = nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate log: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("reopen log: %w", err)
	}
	l.f = f
	return nil
}

func (l *FileLog) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

func splitLogEntries(data string) ([]string, error) {
	var entries []string
	for i, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry, err := strconv.Unquote(line)
		if err != nil {
			return nil, fmt.Errorf("log line %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MemLog is an in-memory Log, used when no log path is configured.
type MemLog struct {
	entries []string
}

func (l *MemLog) Append(entry string) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *MemLog) Entries() ([]string, error) {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

func (l *MemLog) Truncate() error {
	l.entries = nil
	return nil
}

func (l *MemLog) Close() error { return nil }
