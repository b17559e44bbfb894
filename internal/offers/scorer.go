package offers

import (
	"strings"

	"github.com/wealthautomationhq/autopost/internal/models"
)

// Relevance weights. A keyword hit in the title outweighs one in the body,
// and keywords outweigh categories at the same location.
const (
	keywordBodyWeight   = 2
	keywordTitleWeight  = 5
	categoryBodyWeight  = 1
	categoryTitleWeight = 3
)

// Score computes the relevance of one offer against a content body and
// title. Matching is case-insensitive substring matching; each distinct
// keyword or category counts once per location. The offer's priority is
// added once, so any offer scores at least its priority.
func Score(offer *models.Offer, content, title string) int {
	contentLower := strings.ToLower(content)
	titleLower := strings.ToLower(title)

	score := 0
	for _, keyword := range offer.Keywords {
		if keyword == "" {
			continue
		}
		k := strings.ToLower(keyword)
		if strings.Contains(contentLower, k) {
			score += keywordBodyWeight
		}
		if strings.Contains(titleLower, k) {
			score += keywordTitleWeight
		}
	}
	for _, category := range offer.Categories {
		if category == "" {
			continue
		}
		c := strings.ToLower(category)
		if strings.Contains(contentLower, c) {
			score += categoryBodyWeight
		}
		if strings.Contains(titleLower, c) {
			score += categoryTitleWeight
		}
	}

	return score + offer.EffectivePriority()
}
