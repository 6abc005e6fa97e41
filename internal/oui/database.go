// Package oui annotates MAC addresses with vendor information from a
// JSON-lines OUI database.
package oui

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"btwatch/pkg/models"
	"btwatch/pkg/utils"
)

var unknownEntry = &models.OUIEntry{
	OUI:     "00:00:00:00:00:00",
	Company: "UNKNOWN",
	Address: "UNKNOWN",
}

var privateEntry = &models.OUIEntry{
	Private: true,
	Company: "Local/Privacy MAC",
	Address: "UNKNOWN",
}

// Database handles MAC address OUI lookups
type Database struct {
	path      string
	cache     map[string]*models.OUIEntry
	preload   bool
	preloaded bool
	watcher   *fsnotify.Watcher
	log       zerolog.Logger
	mu        sync.RWMutex
	stopCh    chan struct{}
}

// NewDatabase creates a new MAC vendor database instance
func NewDatabase(path string, preload bool, log zerolog.Logger) (*Database, error) {
	db := &Database{
		path:    path,
		cache:   make(map[string]*models.OUIEntry),
		preload: preload,
		log:     log.With().Str("component", "oui").Logger(),
		stopCh:  make(chan struct{}),
	}

	// Verify the file is readable up front
	file, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapError(err, "failed to open OUI database")
	}
	file.Close()

	if preload {
		if err := db.load(); err != nil {
			db.log.Warn().Err(err).Msg("Failed to preload OUI database")
		}
	}

	return db, nil
}

// load reads all entries into the cache
func (db *Database) load() error {
	file, err := os.Open(db.path)
	if err != nil {
		return err
	}
	defer file.Close()

	cache := make(map[string]*models.OUIEntry)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry models.OUIEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		e := entry
		cache[strings.ToUpper(e.OUI)] = &e
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	db.cache = cache
	db.preloaded = true
	db.mu.Unlock()

	db.log.Info().Int("entries", len(cache)).Msg("Loaded OUI database")
	return nil
}

// Lookup finds vendor information for a MAC address. Locally administered
// addresses resolve to a private placeholder since they carry no vendor.
func (db *Database) Lookup(mac string) *models.OUIEntry {
	mac = strings.ToUpper(mac)

	if utils.IsPrivateMAC(mac) {
		return privateEntry
	}

	// Try cache first with progressively shorter prefixes
	db.mu.RLock()
	for i := len(mac); i >= 0; i-- {
		if entry, exists := db.cache[mac[0:i]]; exists {
			db.mu.RUnlock()
			return entry
		}
	}
	preloaded := db.preloaded
	db.mu.RUnlock()

	if preloaded {
		return unknownEntry
	}

	// Not preloaded: search the file
	if entry := db.searchFile(mac); entry != nil {
		return entry
	}

	return unknownEntry
}

// searchFile scans the database file for a matching MAC prefix and caches
// the result
func (db *Database) searchFile(mac string) *models.OUIEntry {
	file, err := os.Open(db.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry models.OUIEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}

		prefix := strings.ToUpper(entry.OUI)
		if prefix != "" && strings.HasPrefix(mac, prefix) {
			db.mu.Lock()
			db.cache[prefix] = &entry
			db.mu.Unlock()
			return &entry
		}
	}

	return nil
}

// Start begins watching the database file and reloads it on change.
func (db *Database) Start() error {
	var err error
	db.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return utils.WrapError(err, "failed to create file watcher")
	}

	go db.watchFile()

	if err := db.watcher.Add(db.path); err != nil {
		db.log.Warn().Err(err).Str("file", db.path).Msg("Failed to watch OUI database")
	}

	return nil
}

// Stop stops watching.
func (db *Database) Stop() {
	close(db.stopCh)
	if db.watcher != nil {
		db.watcher.Close()
	}
}

func (db *Database) watchFile() {
	for {
		select {
		case event, ok := <-db.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				db.log.Info().Str("file", event.Name).Msg("OUI database modified")
				if db.preload {
					if err := db.load(); err != nil {
						db.log.Warn().Err(err).Msg("Failed to reload OUI database")
					}
				} else {
					db.mu.Lock()
					db.cache = make(map[string]*models.OUIEntry)
					db.mu.Unlock()
				}
			}

		case err, ok := <-db.watcher.Errors:
			if !ok {
				return
			}
			db.log.Warn().Err(err).Msg("File watcher error")

		case <-db.stopCh:
			return
		}
	}
}
