// Package oui resolves MAC address prefixes to the vendor that registered them.
package oui

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// RandomMAC is returned by Lookup for locally administered addresses.
const RandomMAC = "Random MAC"

// DB is the compact vendor database: raw upper-case hex prefix to entry.
// Prefixes are 6, 7 or 9 hex digits (MA-L, MA-M and MA-S registries).
type DB struct {
	Entries map[string]Entry
	Updated time.Time
}

type Entry struct {
	Manufacturer string
	Country      string
}

// Len returns the number of registered prefixes.
func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.Entries)
}

// Lookup returns the manufacturer for a MAC address, RandomMAC for locally
// administered addresses, or "" when the prefix is unknown.
func (db *DB) Lookup(mac string) string {
	if db == nil {
		return ""
	}

	raw := strings.NewReplacer(":", "", "-", "", ".", "").Replace(mac)
	if len(raw) < 6 {
		return ""
	}
	raw = strings.ToUpper(raw)

	// Bit 1 of the first octet marks a locally administered address.
	switch raw[1] {
	case '2', '6', 'A', 'E':
		return RandomMAC
	}

	// Longest prefix wins: MA-S, then MA-M, then MA-L.
	for _, n := range []int{9, 7, 6} {
		if len(raw) < n {
			continue
		}
		if entry, ok := db.Entries[raw[:n]]; ok {
			return entry.Manufacturer
		}
	}
	return ""
}

// Save writes the database as gzipped gob.
func (db *DB) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(db); err != nil {
		f.Close()
		return fmt.Errorf("encode oui db: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a database written by Save.
func Load(r io.Reader) (*DB, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read oui db: %w", err)
	}
	defer zr.Close()

	var db DB
	if err := gob.NewDecoder(zr).Decode(&db); err != nil {
		return nil, fmt.Errorf("decode oui db: %w", err)
	}
	if db.Entries == nil {
		db.Entries = make(map[string]Entry)
	}
	return &db, nil
}

// LoadFile opens path and loads the database from it.
func LoadFile(path string) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
