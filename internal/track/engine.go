package track

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"btwatch/internal/config"
	"btwatch/internal/names"
	"btwatch/internal/oui"
	"btwatch/internal/scan"
	"btwatch/internal/sink"
	"btwatch/pkg/models"
	"btwatch/pkg/utils"
)

// Engine drives the scan loop: one scan-update-sweep-emit cycle per scan
// interval. All registry mutation happens on the loop goroutine.
type Engine struct {
	cfg      *config.Config
	source   scan.Source
	sink     sink.Sink
	registry *Registry
	filter   *PrefixFilter
	log      zerolog.Logger

	// Optional collaborators, assigned before Start.
	Clock Clock
	Names *names.Manager
	OUI   *oui.Database

	scanFailures int
	mu           sync.RWMutex
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// New creates an engine over the given scan source and event sink.
func New(cfg *config.Config, source scan.Source, snk sink.Sink, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		source:   source,
		sink:     snk,
		registry: NewRegistry(cfg.PresenceTimeout, cfg.WeakPresenceTimeout, cfg.WeakRSSI),
		filter:   NewPrefixFilter(cfg.ExcludeMACPrefixes),
		log:      log.With().Str("component", "engine").Logger(),
		Clock:    SystemClock(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the scan loop.
func (e *Engine) Start() {
	go e.run()
}

// Stop signals the loop to exit and waits for the in-flight cycle to finish
// emitting its events.
func (e *Engine) Stop() {
	close(e.stopCh)
	<-e.doneCh
}

func (e *Engine) run() {
	defer close(e.doneCh)

	e.log.Info().
		Dur("scan_interval", e.cfg.ScanInterval).
		Dur("presence_timeout", e.cfg.PresenceTimeout).
		Msg("Presence engine started")

	for {
		start := time.Now()
		e.cycle(context.Background())

		// Compensate for time spent scanning so the effective period
		// stays close to the configured interval.
		sleep := e.cfg.ScanInterval - time.Since(start)
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-e.stopCh:
			return
		case <-time.After(sleep):
		}
	}
}

// cycle runs one scan window: collect sightings, fold them into the
// registry, sweep for timeouts and deliver the resulting events. It returns
// the presence events it emitted.
func (e *Engine) cycle(ctx context.Context) []models.Event {
	ctx, cancel := context.WithTimeout(ctx, e.scanTimeout())
	defer cancel()

	sightings, err := e.source.Scan(ctx)
	if err != nil {
		// Absence of data is not evidence of absence of devices: keep
		// all presence state untouched for this cycle.
		e.scanFailures++
		level := zerolog.WarnLevel
		if e.scanFailures > 1 {
			level = zerolog.ErrorLevel
		}
		e.log.WithLevel(level).
			Err(err).
			Int("consecutive_failures", e.scanFailures).
			Msg("Scan failed, skipping cycle")
		return nil
	}
	e.scanFailures = 0

	now := e.Clock.Now()
	var observations, events []models.Event

	e.mu.Lock()
	for _, s := range sightings {
		mac, err := utils.NormalizeMAC(s.MAC)
		if err != nil {
			e.log.Debug().Str("mac", s.MAC).Msg("Dropping sighting without usable MAC")
			continue
		}
		s.MAC = mac

		if e.filter.Excluded(s.MAC) {
			continue
		}
		if s.RSSI < e.cfg.MinRSSI {
			continue
		}
		if s.Name == "" && e.Names != nil {
			s.Name = e.Names.Lookup(s.MAC)
		}

		if e.cfg.LogObservations {
			observations = append(observations, models.Event{
				Kind:      models.EventObservation,
				Timestamp: s.ObservedAt,
				MAC:       s.MAC,
				Name:      s.Name,
				RSSI:      s.RSSI,
			})
		}

		if e.registry.Apply(s) {
			events = append(events, models.Event{
				Kind:      models.EventNew,
				Timestamp: now,
				MAC:       s.MAC,
				Name:      s.Name,
				RSSI:      s.RSSI,
			})
			if e.OUI != nil {
				e.log.Debug().
					Str("mac", s.MAC).
					Str("vendor", e.OUI.Lookup(s.MAC).Company).
					Msg("New device")
			}
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].MAC < events[j].MAC })

	// Updates ran first, so a device re-seen this cycle cannot be swept.
	for _, rec := range e.registry.Sweep(now) {
		events = append(events, models.Event{
			Kind:      models.EventLost,
			Timestamp: now,
			MAC:       rec.MAC,
			Name:      rec.Name,
			RSSI:      rec.RSSI,
		})
	}
	e.mu.Unlock()

	// The fan-out sink logs per-channel failures itself; a sink outage
	// must not stop presence detection.
	for _, ev := range observations {
		_ = e.sink.Write(ev)
	}
	for _, ev := range events {
		_ = e.sink.Write(ev)
	}

	return events
}

// scanTimeout bounds one scan call. It stays below the scan interval so a
// hung scan cannot push the cycle past its schedule.
func (e *Engine) scanTimeout() time.Duration {
	if e.cfg.ScanTimeout > 0 {
		return e.cfg.ScanTimeout
	}
	return e.cfg.ScanInterval * 9 / 10
}

// Devices returns a snapshot of the currently present devices, annotated
// with vendor information when an OUI database is configured.
func (e *Engine) Devices() []models.DeviceRecord {
	e.mu.RLock()
	devices := e.registry.Devices()
	e.mu.RUnlock()

	if e.OUI != nil {
		for i := range devices {
			devices[i].Info = e.OUI.Lookup(devices[i].MAC)
		}
	}

	return devices
}
