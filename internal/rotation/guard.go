package rotation

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wealthautomationhq/autopost/internal/history"
	"github.com/wealthautomationhq/autopost/internal/logger"
)

// Default sliding windows for duplicate detection.
const (
	DefaultTopicWindow = 7 * 24 * time.Hour
	DefaultCTAWindow   = 3 * 24 * time.Hour
)

var (
	// nonAlnum strips everything except letters, digits and whitespace.
	nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

	// timestampSuffix matches the "(YYYY-MM-DD HH:MM)" suffix appended to
	// published blog titles.
	timestampSuffix = regexp.MustCompile(`\s*\(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}\)\s*`)

	// strategiesSuffix matches the "- Key Strategies..." title decoration.
	strategiesSuffix = regexp.MustCompile(`\s*-\s*Key\s+Strategies.*`)
)

// Guard decides whether a topic or offer was used too recently, and picks
// non-duplicate topics from a candidate list.
type Guard struct {
	now    func() time.Time
	rng    *rand.Rand
	logger logger.Logger
}

// NewGuard creates a Guard with the wall clock and a time-seeded RNG.
func NewGuard(log logger.Logger) *Guard {
	return &Guard{
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: log,
	}
}

// NewGuardWithClock creates a Guard with a caller-supplied clock and RNG
// for deterministic tests.
func NewGuardWithClock(now func() time.Time, rng *rand.Rand, log logger.Logger) *Guard {
	return &Guard{now: now, rng: rng, logger: log}
}

// Normalize reduces text to a comparison key: non-alphanumerics stripped,
// lowercased, whitespace trimmed.
func Normalize(text string) string {
	return strings.TrimSpace(strings.ToLower(nonAlnum.ReplaceAllString(text, "")))
}

// StripTitleSuffixes removes the timestamp and "- Key Strategies..."
// decorations a published title carries on top of its base topic.
func StripTitleSuffixes(title string) string {
	title = timestampSuffix.ReplaceAllString(title, "")
	return strategiesSuffix.ReplaceAllString(title, "")
}

// IsDuplicateTopic reports whether the topic matches a historical title
// within the window. Historical titles are stripped of their decorations
// before normalizing; the window boundary is inclusive.
func (g *Guard) IsDuplicateTopic(topic string, hist []history.Record, window time.Duration) bool {
	if len(hist) == 0 {
		return false
	}

	cutoff := g.now().Add(-window)
	normalized := Normalize(topic)

	for _, rec := range hist {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		if Normalize(StripTitleSuffixes(rec.Text)) == normalized {
			g.logger.Warn("Duplicate topic detected",
				logger.String("topic", topic),
				logger.String("matched_title", rec.Text),
				logger.Time("used_at", rec.Timestamp),
			)
			return true
		}
	}
	return false
}

// IsDuplicateCTA reports whether the offer name matches a historical CTA
// record within the window. Comparison is case-insensitive and trimmed;
// punctuation is kept, offer names are exact strings.
func (g *Guard) IsDuplicateCTA(offerName string, hist []history.Record, window time.Duration) bool {
	if len(hist) == 0 {
		return false
	}

	cutoff := g.now().Add(-window)
	normalized := strings.TrimSpace(strings.ToLower(offerName))

	for _, rec := range hist {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		if strings.TrimSpace(strings.ToLower(rec.Text)) == normalized {
			g.logger.Warn("Duplicate CTA detected",
				logger.String("offer_name", offerName),
				logger.Time("used_at", rec.Timestamp),
			)
			return true
		}
	}
	return false
}

// SelectTopic picks a topic from the candidates that was not used within
// the topic window. Candidates are tried in shuffled order; when every one
// is a recent duplicate the guard falls back to the candidate matching the
// oldest historical record, and failing that to a uniformly random
// candidate. It never returns empty for a non-empty candidate list.
func (g *Guard) SelectTopic(candidates []string, hist []history.Record) string {
	if len(candidates) == 0 {
		return ""
	}

	shuffled := make([]string, len(candidates))
	copy(shuffled, candidates)
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, topic := range shuffled {
		if !g.IsDuplicateTopic(topic, hist, DefaultTopicWindow) {
			g.logger.Info("Selected topic", logger.String("topic", topic))
			return topic
		}
	}

	// Everything was used recently: reuse the least-recently-used topic.
	if len(hist) > 0 {
		sorted := make([]history.Record, len(hist))
		copy(sorted, hist)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		base := strings.ToLower(StripTitleSuffixes(sorted[0].Text))
		for _, topic := range candidates {
			if strings.Contains(base, strings.ToLower(topic)) {
				g.logger.Info("All topics used recently, selecting least recent",
					logger.String("topic", topic),
				)
				return topic
			}
		}
	}

	topic := candidates[g.rng.Intn(len(candidates))]
	g.logger.Info("Falling back to random topic", logger.String("topic", topic))
	return topic
}
