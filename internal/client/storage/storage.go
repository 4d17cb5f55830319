// Package storage holds the client-side offer cache and the server sync
// client.
package storage

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/offersync/offersync/internal/models"
)

// LocalStorage caches the most recent extraction result on disk. Each
// extraction run overwrites the previous one; the cache survives until the
// next run replaces it.
type LocalStorage struct {
	// Offers is the deduplicated result of the last extraction.
	Offers []models.Candidate `json:"offers"`
	// Site is the portal the offers were extracted from.
	Site models.Source `json:"site"`
	// ExtractedAt is when the last extraction completed.
	ExtractedAt time.Time `json:"extractedAt"`

	mu   sync.Mutex
	path string
}

// NewLocalStorage returns a LocalStorage persisting to path.
func NewLocalStorage(path string) *LocalStorage {
	return &LocalStorage{path: path}
}

// Load reads the cache from disk. A missing file yields an empty cache.
func (ls *LocalStorage) Load() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := os.Open(ls.path)
	if err != nil {
		if os.IsNotExist(err) {
			ls.Offers = nil
			ls.Site = models.SourceUnknown
			ls.ExtractedAt = time.Time{}
			return nil
		}
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(ls)
}

// Save writes the cache to disk.
func (ls *LocalStorage) Save() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := os.Create(ls.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(ls)
}

// Replace overwrites the cached result with a new extraction run.
func (ls *LocalStorage) Replace(site models.Source, offers []models.Candidate) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.Site = site
	ls.Offers = offers
	ls.ExtractedAt = time.Now()
}

// Snapshot returns the cached site and a copy of the cached offers.
func (ls *LocalStorage) Snapshot() (models.Source, []models.Candidate) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	offers := make([]models.Candidate, len(ls.Offers))
	copy(offers, ls.Offers)
	return ls.Site, offers
}

// Domains returns the sorted set of merchant domains derived from the cached
// offers. Merchant names are lowercased and a leading "www." is stripped so
// they can be matched against hostnames.
func (ls *LocalStorage) Domains() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	set := make(map[string]bool)
	for _, o := range ls.Offers {
		m := strings.ToLower(strings.TrimSpace(o.Merchant))
		if m == "" {
			continue
		}
		set[strings.TrimPrefix(m, "www.")] = true
	}

	domains := make([]string, 0, len(set))
	for d := range set {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
