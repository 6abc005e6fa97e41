// Package track holds the presence-tracking engine: the device registry
// state machine, the exclusion filter and the scan loop driving them.
package track

import (
	"sort"
	"time"

	"btwatch/pkg/models"
)

// Clock abstracts time so the sweep can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the real time.
func SystemClock() Clock { return systemClock{} }

// Registry holds one presence record per known device. It is not safe for
// concurrent use; the engine owns it and serializes access.
type Registry struct {
	devices     map[string]*models.DeviceRecord
	timeout     time.Duration
	weakTimeout time.Duration
	weakRSSI    int
}

// NewRegistry creates a registry. weakTimeout extends the grace period for
// devices whose last RSSI is below weakRSSI; zero disables the extension.
func NewRegistry(timeout, weakTimeout time.Duration, weakRSSI int) *Registry {
	return &Registry{
		devices:     make(map[string]*models.DeviceRecord),
		timeout:     timeout,
		weakTimeout: weakTimeout,
		weakRSSI:    weakRSSI,
	}
}

// Apply folds one sighting into the registry. It returns true when the
// sighting created a new record, i.e. the device just became Present.
// Repeated sightings of an already present device only refresh the record.
func (r *Registry) Apply(s models.Sighting) bool {
	rec, ok := r.devices[s.MAC]
	if !ok {
		r.devices[s.MAC] = &models.DeviceRecord{
			MAC:       s.MAC,
			Name:      s.Name,
			AddrType:  s.AddrType,
			RSSI:      s.RSSI,
			FirstSeen: s.ObservedAt,
			LastSeen:  s.ObservedAt,
			State:     models.StatePresent,
		}
		return true
	}

	// Several sightings of one MAC may arrive within a cycle; only the
	// most recent one wins.
	if s.ObservedAt.Before(rec.LastSeen) {
		return false
	}

	rec.LastSeen = s.ObservedAt
	rec.RSSI = s.RSSI
	if s.Name != "" {
		rec.Name = s.Name
	}
	if s.AddrType != "" {
		rec.AddrType = s.AddrType
	}

	return false
}

// Sweep removes every record whose silence exceeds its grace period and
// returns the removed records, sorted by MAC. A later sighting of the same
// device re-enters through Apply as a fresh record.
func (r *Registry) Sweep(now time.Time) []*models.DeviceRecord {
	var lost []*models.DeviceRecord

	for mac, rec := range r.devices {
		grace := r.timeout
		if r.weakTimeout > 0 && rec.RSSI < r.weakRSSI {
			grace = r.weakTimeout
		}
		if now.Sub(rec.LastSeen) > grace {
			rec.State = models.StateAbsent
			delete(r.devices, mac)
			lost = append(lost, rec)
		}
	}

	sort.Slice(lost, func(i, j int) bool { return lost[i].MAC < lost[j].MAC })

	return lost
}

// Devices returns a snapshot of the current records, sorted by MAC.
func (r *Registry) Devices() []models.DeviceRecord {
	out := make([]models.DeviceRecord, 0, len(r.devices))
	for _, rec := range r.devices {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MAC < out[j].MAC })
	return out
}

// Len returns the number of tracked devices.
func (r *Registry) Len() int { return len(r.devices) }
