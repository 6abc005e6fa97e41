package scan

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"btwatch/pkg/models"
	"btwatch/pkg/utils"
)

// Live scans through the local Bluetooth adapter by running btmgmt find,
// which discovers both BR/EDR and LE devices and reports RSSI.
type Live struct {
	binary  string
	adapter string
	timeout time.Duration
	log     zerolog.Logger
}

// NewLive creates a live scan source for the given adapter. The timeout
// bounds one btmgmt invocation so a hung stack cannot stall the engine.
func NewLive(binary, adapter string, timeout time.Duration, log zerolog.Logger) *Live {
	return &Live{
		binary:  binary,
		adapter: adapter,
		timeout: timeout,
		log:     log.With().Str("component", "scan").Logger(),
	}
}

// Scan runs one discovery pass and returns the sightings it produced.
func (l *Live) Scan(ctx context.Context) ([]models.Sighting, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, l.binary, "--index", l.adapter, "find")
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: btmgmt find timed out after %s", ErrScanUnavailable, l.timeout)
		}
		return nil, fmt.Errorf("%w: btmgmt find: %v", ErrScanUnavailable, err)
	}

	sightings := l.parseFind(string(output), time.Now().UTC())
	l.log.Debug().Int("sightings", len(sightings)).Msg("Scan window complete")

	return sightings, nil
}

// parseFind extracts sightings from btmgmt find output. Device lines look
// like:
//
//	hci0 dev_found: C4:7C:8D:6A:42:1F type LE Public rssi -71 flags 0x0000
//	name Flower care
//
// A name line applies to the most recent dev_found line.
func (l *Live) parseFind(output string, observedAt time.Time) []models.Sighting {
	var sightings []models.Sighting
	byMAC := make(map[string]int)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		if name, ok := strings.CutPrefix(line, "name "); ok {
			if len(sightings) > 0 {
				sightings[len(sightings)-1].Name = name
			}
			continue
		}

		idx := strings.Index(line, "dev_found:")
		if idx < 0 {
			continue
		}

		fields := strings.Fields(line[idx+len("dev_found:"):])
		if len(fields) == 0 {
			continue
		}

		mac, err := utils.NormalizeMAC(fields[0])
		if err != nil {
			l.log.Debug().Str("line", line).Msg("Dropping sighting without usable MAC")
			continue
		}

		sighting := models.Sighting{
			MAC:        mac,
			AddrType:   addrType(fields),
			RSSI:       rssiField(fields),
			ObservedAt: observedAt,
		}

		// btmgmt may report the same device several times per window;
		// keep the latest report.
		if i, seen := byMAC[mac]; seen {
			name := sightings[i].Name
			sightings[i] = sighting
			if sighting.Name == "" {
				sightings[i].Name = name
			}
			continue
		}

		byMAC[mac] = len(sightings)
		sightings = append(sightings, sighting)
	}

	return sightings
}

// addrType joins the tokens between "type" and the next keyword, e.g.
// "LE Public", "LE Random" or "BR/EDR".
func addrType(fields []string) string {
	var parts []string
	for i := 0; i < len(fields); i++ {
		if fields[i] != "type" {
			continue
		}
		for j := i + 1; j < len(fields); j++ {
			if fields[j] == "rssi" || fields[j] == "flags" {
				break
			}
			parts = append(parts, fields[j])
		}
		break
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func rssiField(fields []string) int {
	for i := 0; i < len(fields)-1; i++ {
		if fields[i] == "rssi" {
			if rssi, err := strconv.Atoi(fields[i+1]); err == nil {
				return rssi
			}
		}
	}
	// btmgmt omits rssi for some transports; report a floor value
	return -127
}
