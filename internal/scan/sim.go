package scan

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"btwatch/pkg/models"
)

// Simulated synthesizes a cast of devices appearing and disappearing over
// time without touching any hardware. With the same seed it produces the
// same sequence of scan windows.
type Simulated struct {
	rng     *rand.Rand
	devices []*simDevice
	counter int
}

type simDevice struct {
	mac  string
	name string
	rssi int
}

// NewSimulated creates a simulated scan source with the given seed.
func NewSimulated(seed int64) *Simulated {
	return &Simulated{rng: rand.New(rand.NewSource(seed))}
}

// Scan generates one synthetic scan window. Active devices vanish with
// probability 0.1, drift their RSSI by up to 2 dBm, and a new device
// appears with probability 0.3.
func (s *Simulated) Scan(ctx context.Context) ([]models.Sighting, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanUnavailable, err)
	}

	observedAt := time.Now().UTC()
	var sightings []models.Sighting

	kept := s.devices[:0]
	for _, dev := range s.devices {
		if s.rng.Float64() < 0.1 {
			continue
		}
		dev.rssi += s.rng.Intn(5) - 2
		kept = append(kept, dev)
		sightings = append(sightings, models.Sighting{
			MAC:        dev.mac,
			Name:       dev.name,
			AddrType:   "public",
			RSSI:       dev.rssi,
			ObservedAt: observedAt,
		})
	}
	s.devices = kept

	if s.rng.Float64() < 0.3 {
		s.counter++
		dev := &simDevice{
			mac:  fmt.Sprintf("02:00:00:00:00:%02X", s.counter),
			rssi: -80 + s.rng.Intn(41),
		}
		dev.name = fmt.Sprintf("Sim%s", dev.mac[len(dev.mac)-2:])
		s.devices = append(s.devices, dev)
		sightings = append(sightings, models.Sighting{
			MAC:        dev.mac,
			Name:       dev.name,
			AddrType:   "public",
			RSSI:       dev.rssi,
			ObservedAt: observedAt,
		})
	}

	return sightings, nil
}
