package offers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/models"
)

// Store holds the loaded offer library. Offers are loaded once and are
// immutable afterwards; the backing file is edited out-of-band.
type Store struct {
	offers []models.Offer
	logger logger.Logger
}

// offersFile is the on-disk shape of the offer library.
type offersFile struct {
	Offers []json.RawMessage `json:"offers"`
}

// NewStore creates a Store from an already-loaded offer slice.
func NewStore(offers []models.Offer, log logger.Logger) *Store {
	return &Store{offers: offers, logger: log}
}

// LoadFile loads the offer library from a JSON file. Malformed input never
// fails the load: a missing or unparseable file yields an empty store with
// a diagnostic, and individual bad entries are skipped.
func LoadFile(path string, log logger.Logger) *Store {
	f, err := os.Open(path)
	if err != nil {
		log.Error("Failed to open offers file",
			logger.String("path", path),
			logger.Error(err),
		)
		return NewStore(nil, log)
	}
	defer f.Close()

	store := Load(f, log)
	log.Info("Loaded offer library",
		logger.String("path", path),
		logger.Int("offer_count", len(store.offers)),
	)
	return store
}

// Load reads the offer library from r. The source must be a JSON object
// with a list-valued "offers" key; anything else yields an empty store
// with a diagnostic rather than an error.
func Load(r io.Reader, log logger.Logger) *Store {
	data, err := io.ReadAll(r)
	if err != nil {
		log.Error("Failed to read offers source", logger.Error(err))
		return NewStore(nil, log)
	}

	var file offersFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Error("Offers source is not an object with an 'offers' list",
			logger.Error(err),
		)
		return NewStore(nil, log)
	}
	if file.Offers == nil {
		log.Error("Offers source has no 'offers' key")
		return NewStore(nil, log)
	}

	offers := make([]models.Offer, 0, len(file.Offers))
	for i, raw := range file.Offers {
		var offer models.Offer
		if err := json.Unmarshal(raw, &offer); err != nil {
			log.Warn("Skipping malformed offer entry",
				logger.Int("index", i),
				logger.Error(err),
			)
			continue
		}
		if offer.Priority <= 0 {
			offer.Priority = models.DefaultPriority
		}
		offers = append(offers, offer)
	}

	return NewStore(offers, log)
}

// Offers returns all valid offers in the store.
func (s *Store) Offers() []models.Offer {
	return s.offers
}

// Len returns the number of valid offers in the store.
func (s *Store) Len() int {
	return len(s.offers)
}

// Categories aggregates the distinct category labels across all offers,
// sorted for deterministic output.
func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	for i := range s.offers {
		for _, c := range s.offers[i].Categories {
			if c == "" {
				continue
			}
			seen[c] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// String implements fmt.Stringer for diagnostics.
func (s *Store) String() string {
	return fmt.Sprintf("offers.Store(%d offers)", len(s.offers))
}
