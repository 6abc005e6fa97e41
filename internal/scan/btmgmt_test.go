package scan

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const findOutput = `Discovery started
hci0 type 7 discovering on
hci0 dev_found: C4:7C:8D:6A:42:1F type LE Public rssi -71 flags 0x0000
AD flags 0x06
eir_len 26
name Flower care
hci0 dev_found: 5E:11:22:33:44:55 type LE Random rssi -88 flags 0x0000
eir_len 3
hci0 dev_found: 00:1A:7D:DA:71:13 type BR/EDR rssi -60 flags 0x0000
name Desktop
hci0 type 7 discovering off
`

func newTestLive() *Live {
	return NewLive("/usr/bin/btmgmt", "hci0", time.Second, zerolog.Nop())
}

func TestParseFind(t *testing.T) {
	observedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	sightings := newTestLive().parseFind(findOutput, observedAt)

	require.Len(t, sightings, 3)

	assert.Equal(t, "C4:7C:8D:6A:42:1F", sightings[0].MAC)
	assert.Equal(t, "Flower care", sightings[0].Name)
	assert.Equal(t, "le public", sightings[0].AddrType)
	assert.Equal(t, -71, sightings[0].RSSI)
	assert.Equal(t, observedAt, sightings[0].ObservedAt)

	assert.Equal(t, "5E:11:22:33:44:55", sightings[1].MAC)
	assert.Empty(t, sightings[1].Name)
	assert.Equal(t, "le random", sightings[1].AddrType)
	assert.Equal(t, -88, sightings[1].RSSI)

	assert.Equal(t, "00:1A:7D:DA:71:13", sightings[2].MAC)
	assert.Equal(t, "Desktop", sightings[2].Name)
	assert.Equal(t, "br/edr", sightings[2].AddrType)
	assert.Equal(t, -60, sightings[2].RSSI)
}

func TestParseFindDuplicateReports(t *testing.T) {
	output := `hci0 dev_found: C4:7C:8D:6A:42:1F type LE Public rssi -71 flags 0x0000
name Flower care
hci0 dev_found: C4:7C:8D:6A:42:1F type LE Public rssi -69 flags 0x0000
`
	sightings := newTestLive().parseFind(output, time.Now())

	require.Len(t, sightings, 1)
	assert.Equal(t, -69, sightings[0].RSSI, "latest report wins")
	assert.Equal(t, "Flower care", sightings[0].Name, "earlier name is retained")
}

func TestParseFindMalformedLines(t *testing.T) {
	output := `hci0 dev_found: zz:zz:zz type LE Public rssi -71
hci0 dev_found:
garbage line
hci0 dev_found: AA:BB:CC:DD:EE:01 type LE Public rssi -40 flags 0x0000
`
	sightings := newTestLive().parseFind(output, time.Now())

	require.Len(t, sightings, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", sightings[0].MAC)
}

func TestParseFindMissingRSSI(t *testing.T) {
	output := `hci0 dev_found: AA:BB:CC:DD:EE:01 type BR/EDR flags 0x0000
`
	sightings := newTestLive().parseFind(output, time.Now())

	require.Len(t, sightings, 1)
	assert.Equal(t, -127, sightings[0].RSSI)
}

func TestParseFindEmpty(t *testing.T) {
	assert.Empty(t, newTestLive().parseFind("", time.Now()))
}
