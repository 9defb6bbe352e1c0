package oui

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_LongestPrefix(t *testing.T) {
	db := &DB{
		Entries: map[string]Entry{
			"001122":    {Manufacturer: "Broadcom (OUI-24)"},
			"0011223":   {Manufacturer: "Chipset X (OUI-28)"},
			"001122334": {Manufacturer: "Device Y (OUI-36)"},
			"A0BBCC":    {Manufacturer: "Vendor B"},
		},
	}

	tests := []struct {
		mac  string
		want string
	}{
		{"00:11:22:AA:BB:CC", "Broadcom (OUI-24)"},
		{"00:11:22:30:00:00", "Chipset X (OUI-28)"},
		{"00:11:22:33:4F:FF", "Device Y (OUI-36)"},
		{"a0-bb-cc-dd-ee-ff", "Vendor B"},
		{"0011.2233.4455", "Device Y (OUI-36)"},
		{"00:11:22", "Broadcom (OUI-24)"},
		{"02:11:22:33:44:55", RandomMAC},
		{"52:54:00:12:34:56", RandomMAC},
		{"00:11:2", ""},
		{"XX:YY:ZZ:00:00:00", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.mac, func(t *testing.T) {
			assert.Equal(t, tt.want, db.Lookup(tt.mac))
		})
	}
}

func TestLookup_NilDB(t *testing.T) {
	var db *DB
	assert.Equal(t, "", db.Lookup("00:11:22:33:44:55"))
	assert.Zero(t, db.Len())
}

func TestSaveLoad(t *testing.T) {
	db := &DB{Entries: map[string]Entry{"AABBCC": {Manufacturer: "Test Corp", Country: "XX"}}}
	path := filepath.Join(t.TempDir(), "oui.db.gz")
	require.NoError(t, db.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, "Test Corp", loaded.Entries["AABBCC"].Manufacturer)
}

func TestLoad_Garbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not gzip")))
	assert.ErrorContains(t, err, "read oui db")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.db.gz"))
	assert.Error(t, err)
}
