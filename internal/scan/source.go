// Package scan produces device sightings, either from a live Bluetooth
// adapter or from a synthetic generator.
package scan

import (
	"context"
	"errors"

	"btwatch/pkg/models"
)

// ErrScanUnavailable indicates the underlying stack could not complete a
// scan. It is distinct from an empty result, which means nothing is nearby.
var ErrScanUnavailable = errors.New("scan unavailable")

// Source produces the complete set of devices observable during one scan
// window. A call may block up to the source's internal timeout but never
// indefinitely.
type Source interface {
	Scan(ctx context.Context) ([]models.Sighting, error)
}
