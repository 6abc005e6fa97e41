// Package sink delivers presence events to their output channels: the
// JSON-lines log file, standard output, an in-memory recent buffer and an
// optional MQTT topic.
package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"btwatch/pkg/models"
)

// ErrWrite indicates a sink could not deliver an event.
var ErrWrite = errors.New("sink write failure")

// Sink consumes presence events. Write is called once per event from a
// single goroutine.
type Sink interface {
	Write(e models.Event) error
	Close() error
}

// File appends one JSON object per line to the event log and syncs after
// every write, so a crash loses at most the line being written.
type File struct {
	f *os.File
}

// NewFile opens (creating if needed) the event log for appending.
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrWrite, path, err)
	}
	return &File{f: f}, nil
}

// Write appends the event as a JSON line.
func (s *File) Write(e models.Event) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if _, err := s.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Close closes the log file.
func (s *File) Close() error { return s.f.Close() }

// Stdout writes one colon-delimited line per presence event, e.g.
// NEW:AA:BB:CC:DD:EE:01:Sensor:-55. Observations are not printed.
type Stdout struct {
	w io.Writer
}

// NewStdout creates a stdout sink.
func NewStdout() *Stdout { return &Stdout{w: os.Stdout} }

// NewWriterSink creates a line sink on an arbitrary writer.
func NewWriterSink(w io.Writer) *Stdout { return &Stdout{w: w} }

// Write prints the event line.
func (s *Stdout) Write(e models.Event) error {
	if e.Kind == models.EventObservation {
		return nil
	}
	if _, err := fmt.Fprintf(s.w, "%s:%s:%s:%d\n", e.Kind, e.MAC, e.Name, e.RSSI); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Close is a no-op.
func (s *Stdout) Close() error { return nil }

// Multi fans an event out to several sinks, best-effort. A failing sink is
// logged and skipped; it never suppresses delivery to the others. Repeated
// failures of the same sink escalate from warning to error so persistent
// outages are visible.
type Multi struct {
	sinks    []Sink
	failures []int
	log      zerolog.Logger
}

// NewMulti creates a fan-out sink.
func NewMulti(log zerolog.Logger, sinks ...Sink) *Multi {
	return &Multi{
		sinks:    sinks,
		failures: make([]int, len(sinks)),
		log:      log.With().Str("component", "sink").Logger(),
	}
}

// Write delivers the event to every sink.
func (m *Multi) Write(e models.Event) error {
	for i, s := range m.sinks {
		if err := s.Write(e); err != nil {
			m.failures[i]++
			level := zerolog.WarnLevel
			if m.failures[i] > 1 {
				level = zerolog.ErrorLevel
			}
			m.log.WithLevel(level).
				Err(err).
				Int("consecutive_failures", m.failures[i]).
				Msg("Event sink write failed")
			continue
		}
		m.failures[i] = 0
	}
	return nil
}

// Close closes all sinks.
func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
