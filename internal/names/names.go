// Package names resolves friendly display names for devices whose
// advertisements carry no usable name.
package names

import (
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"btwatch/pkg/models"
	"btwatch/pkg/utils"
)

// Manager loads a device-names file and serves lookups from it. The file
// holds one entry per line: a MAC address, a display name and optional
// aliases, with # or ; comments.
type Manager struct {
	path    string
	entries map[string]models.NameEntry
	watcher *fsnotify.Watcher
	log     zerolog.Logger
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// NewManager creates a manager for the given names file.
func NewManager(path string, log zerolog.Logger) *Manager {
	return &Manager{
		path:    path,
		entries: make(map[string]models.NameEntry),
		log:     log.With().Str("component", "names").Logger(),
		stopCh:  make(chan struct{}),
	}
}

// Load reads the names file and replaces the current entries.
func (m *Manager) Load() error {
	content, err := os.ReadFile(m.path)
	if err != nil {
		return utils.WrapError(err, "failed to read names file")
	}

	entries := ParseNames(string(content))

	m.mu.Lock()
	m.entries = make(map[string]models.NameEntry, len(entries))
	for _, e := range entries {
		m.entries[e.MAC] = e
	}
	m.mu.Unlock()

	m.log.Info().Int("entries", len(entries)).Msg("Loaded device names")
	return nil
}

// Lookup returns the display name configured for a MAC, or "".
func (m *Manager) Lookup(mac string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.entries[strings.ToUpper(mac)]; ok {
		return e.Name
	}
	return ""
}

// Entries returns all configured entries.
func (m *Manager) Entries() []models.NameEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.NameEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// Start begins watching the names file for changes and reloads it on write.
func (m *Manager) Start() error {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return utils.WrapError(err, "failed to create file watcher")
	}

	go m.watchFile()

	if err := m.watcher.Add(m.path); err != nil {
		m.log.Warn().Err(err).Str("file", m.path).Msg("Failed to watch names file")
	}

	return nil
}

// Stop stops watching.
func (m *Manager) Stop() {
	close(m.stopCh)
	if m.watcher != nil {
		m.watcher.Close()
	}
}

func (m *Manager) watchFile() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				m.log.Info().Str("file", event.Name).Msg("Names file modified")
				if err := m.Load(); err != nil {
					m.log.Warn().Err(err).Msg("Failed to reload device names")
				}
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn().Err(err).Msg("File watcher error")

		case <-m.stopCh:
			return
		}
	}
}

// ParseNames parses device-names file content.
func ParseNames(content string) []models.NameEntry {
	var entries []models.NameEntry

	for _, line := range strings.Split(content, "\n") {
		line = stripComment(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		mac, err := utils.NormalizeMAC(fields[0])
		if err != nil {
			continue
		}

		entry := models.NameEntry{
			MAC:  mac,
			Name: fields[1],
		}
		if len(fields) > 2 {
			entry.Alias = fields[2:]
		}

		entries = append(entries, entry)
	}

	return entries
}

// stripComment removes comments from a line
func stripComment(line string) string {
	if idx := strings.IndexAny(line, "#;"); idx >= 0 {
		return strings.TrimRightFunc(line[:idx], unicode.IsSpace)
	}
	return line
}
