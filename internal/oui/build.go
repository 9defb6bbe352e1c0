package oui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"grimm.is/linkctl/internal/brand"
	"grimm.is/linkctl/internal/logging"
)

// IEEE registries, largest blocks first.
const (
	IEEEOUISource = "https://standards-oui.ieee.org/oui/oui.txt"
	IEEEMAMSource = "https://standards-oui.ieee.org/oui28/mam.txt"
	IEEEMASSource = "https://standards-oui.ieee.org/oui36/oui36.txt"
	IEEEIABSource = "https://standards-oui.ieee.org/iab/iab.txt"
)

// DefaultSources lists every registry Build fetches when none are given.
var DefaultSources = []string{IEEEOUISource, IEEEMAMSource, IEEEMASSource, IEEEIABSource}

// Registry lines look like:
//
//	00-00-5E   (hex)		USC INFORMATION SCIENCES INST
//	00-55-DA-9     (hex)	Shinko Technos co.,ltd.
var hexLineRegex = regexp.MustCompile(`^([0-9A-F]{2})-([0-9A-F]{2})-([0-9A-F]{2})([-0-9A-F]*)\s+\(hex\)\s+(.+)$`)

// Build downloads the given registries and merges them into one database.
// A nil client uses a client with a one minute timeout.
func Build(ctx context.Context, client *http.Client, sources ...string) (*DB, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if len(sources) == 0 {
		sources = DefaultSources
	}
	log := logging.WithComponent("oui")

	db := &DB{
		Entries: make(map[string]Entry),
		Updated: time.Now(),
	}
	for _, url := range sources {
		before := db.Len()
		if err := fetchAndParse(ctx, client, url, db); err != nil {
			return nil, fmt.Errorf("failed to process %s: %w", url, err)
		}
		log.Info("registry loaded", "source", url, "prefixes", db.Len()-before)
	}
	return db, nil
}

func fetchAndParse(ctx context.Context, client *http.Client, url string, db *DB) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	// IEEE blocks requests without a User-Agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; "+brand.UserAgent(brand.Version)+")")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	return parse(resp.Body, db)
}

func parse(r io.Reader, db *DB) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := hexLineRegex.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		prefix := m[1] + m[2] + m[3] + strings.ReplaceAll(m[4], "-", "")
		db.Entries[prefix] = Entry{Manufacturer: strings.TrimSpace(m[5])}
	}
	return scanner.Err()
}
