package cta

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/models"
)

// Default UTM attribution values applied to tracked links.
const (
	DefaultUTMSource = "wealthautomation"
	DefaultUTMMedium = "blog"

	// urlPlaceholder is the literal substituted in CTA templates.
	urlPlaceholder = "{{url}}"

	// fallbackCampaign is used when an offer has no ID.
	fallbackCampaign = "offer"
)

// Renderer renders an offer's CTA template with a tracked link.
type Renderer struct {
	utmSource string
	utmMedium string
	rng       *rand.Rand
	logger    logger.Logger
}

// NewRenderer creates a Renderer with the given UTM attribution values.
// Empty values fall back to the defaults.
func NewRenderer(utmSource, utmMedium string, log logger.Logger) *Renderer {
	if utmSource == "" {
		utmSource = DefaultUTMSource
	}
	if utmMedium == "" {
		utmMedium = DefaultUTMMedium
	}
	return &Renderer{
		utmSource: utmSource,
		utmMedium: utmMedium,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    log,
	}
}

// NewRendererWithRand creates a Renderer with a caller-supplied random
// source for deterministic template selection in tests.
func NewRendererWithRand(utmSource, utmMedium string, rng *rand.Rand, log logger.Logger) *Renderer {
	r := NewRenderer(utmSource, utmMedium, log)
	r.rng = rng
	return r
}

// TrackedURL builds the offer URL with UTM query parameters appended.
// The separator is & when the offer URL already carries a query string.
func (r *Renderer) TrackedURL(offer *models.Offer) string {
	offerURL := offer.URL
	if offerURL == "" {
		offerURL = "#"
	}

	campaign := offer.ID
	if campaign == "" {
		campaign = fallbackCampaign
	}

	separator := "?"
	if strings.Contains(offerURL, "?") {
		separator = "&"
	}

	return fmt.Sprintf("%s%sutm_source=%s&utm_medium=%s&utm_campaign=%s",
		offerURL, separator, r.utmSource, r.utmMedium, campaign)
}

// Render picks one of the offer's CTA templates at random and substitutes
// the tracked URL for the {{url}} placeholder. An offer without usable
// templates renders to an empty string, which callers treat as "no CTA".
// Offer fields are trusted; no escaping is applied.
func (r *Renderer) Render(offer *models.Offer) string {
	if offer == nil {
		return ""
	}

	templates := offer.ValidTemplates()
	if len(templates) == 0 {
		r.logger.Warn("Offer has no valid CTA templates",
			logger.String("offer_id", offer.ID),
			logger.String("offer_name", offer.Name),
		)
		return ""
	}

	template := templates[r.rng.Intn(len(templates))]
	return strings.ReplaceAll(template, urlPlaceholder, r.TrackedURL(offer))
}
