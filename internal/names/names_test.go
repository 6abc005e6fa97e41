package names

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNames(t *testing.T) {
	content := `# known devices
AA:BB:CC:DD:EE:01 Thermostat
aa:bb:cc:dd:ee:02 Doorbell front porch  ; trailing comment
not-a-mac Ignored
AA:BB:CC:DD:EE:03
`

	entries := ParseNames(content)
	require.Len(t, entries, 2)

	assert.Equal(t, "AA:BB:CC:DD:EE:01", entries[0].MAC)
	assert.Equal(t, "Thermostat", entries[0].Name)
	assert.Empty(t, entries[0].Alias)

	assert.Equal(t, "AA:BB:CC:DD:EE:02", entries[1].MAC)
	assert.Equal(t, "Doorbell", entries[1].Name)
	assert.Equal(t, []string{"front", "porch"}, entries[1].Alias)
}

func TestManagerLoadAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.conf")
	require.NoError(t, os.WriteFile(path, []byte("AA:BB:CC:DD:EE:01 Thermostat\n"), 0644))

	m := NewManager(path, zerolog.Nop())
	require.NoError(t, m.Load())

	assert.Equal(t, "Thermostat", m.Lookup("AA:BB:CC:DD:EE:01"))
	assert.Equal(t, "Thermostat", m.Lookup("aa:bb:cc:dd:ee:01"))
	assert.Empty(t, m.Lookup("AA:BB:CC:DD:EE:99"))
}

func TestManagerLoadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent.conf"), zerolog.Nop())
	assert.Error(t, m.Load())
}

func TestManagerReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.conf")
	require.NoError(t, os.WriteFile(path, []byte("AA:BB:CC:DD:EE:01 Old\n"), 0644))

	m := NewManager(path, zerolog.Nop())
	require.NoError(t, m.Load())
	require.Equal(t, "Old", m.Lookup("AA:BB:CC:DD:EE:01"))

	require.NoError(t, os.WriteFile(path, []byte("AA:BB:CC:DD:EE:01 New\n"), 0644))
	require.NoError(t, m.Load())
	assert.Equal(t, "New", m.Lookup("AA:BB:CC:DD:EE:01"))
}
