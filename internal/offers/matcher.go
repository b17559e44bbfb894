package offers

import (
	"math/rand"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/models"
)

// Matcher selects the most relevant offer for a piece of content.
type Matcher struct {
	store  *Store
	rng    *rand.Rand
	logger logger.Logger
}

// NewMatcher creates a Matcher over the given store.
func NewMatcher(store *Store, log logger.Logger) *Matcher {
	return &Matcher{
		store:  store,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: log,
	}
}

// NewMatcherWithRand creates a Matcher with a caller-supplied random source,
// used by tests that need a deterministic fallback choice.
func NewMatcherWithRand(store *Store, rng *rand.Rand, log logger.Logger) *Matcher {
	return &Matcher{store: store, rng: rng, logger: log}
}

// Match returns the best-scoring offer for the content and title, or nil
// when the store is empty. Ties resolve to the higher priority, then to
// the lexicographically smallest offer ID so the result does not depend
// on load order. When no offer scores above zero the matcher falls back
// to a uniformly random offer so a CTA is still usually shown.
func (m *Matcher) Match(content, title string) *models.Offer {
	offers := m.store.Offers()
	if len(offers) == 0 {
		m.logger.Warn("No offers loaded, cannot match content")
		return nil
	}

	var best *models.Offer
	bestScore := -1

	for i := range offers {
		offer := &offers[i]
		score := Score(offer, content, title)

		switch {
		case score > bestScore:
			best = offer
			bestScore = score
		case score == bestScore && best != nil:
			if offer.EffectivePriority() > best.EffectivePriority() {
				best = offer
			} else if offer.EffectivePriority() == best.EffectivePriority() && offer.ID < best.ID {
				best = offer
			}
		}
	}

	if bestScore > 0 && best != nil {
		m.logger.Info("Matched content to offer",
			logger.String("offer_id", best.ID),
			logger.String("offer_name", best.Name),
			logger.Int("score", bestScore),
		)
		return best
	}

	fallback := &offers[m.rng.Intn(len(offers))]
	m.logger.Warn("No relevant offer found, falling back to random offer",
		logger.String("offer_id", fallback.ID),
		logger.String("offer_name", fallback.Name),
	)
	return fallback
}
