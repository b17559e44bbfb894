package cta

import (
	"regexp"
	"strings"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/models"
)

// Position selects where the CTA block is inserted into content.
type Position string

// Injection positions. Unknown values behave like PositionEnd.
const (
	PositionStart  Position = "start"
	PositionMiddle Position = "middle"
	PositionEnd    Position = "end"
)

// ctaWrapper is the fixed container markup around the rendered CTA.
const ctaWrapper = `<div class="wealthautomation-cta">`

// paragraphBoundary matches closing paragraph tags with trailing
// whitespace, the seam middle injection inserts after.
var paragraphBoundary = regexp.MustCompile(`(?i)</p>\s*`)

// minMiddleSegments is the smallest split the middle position accepts;
// anything shorter (two paragraphs or fewer) degrades to end placement.
const minMiddleSegments = 5

// Injector inserts rendered CTA HTML into content.
type Injector struct {
	renderer *Renderer
	logger   logger.Logger
}

// NewInjector creates an Injector that renders CTAs with the given renderer.
func NewInjector(renderer *Renderer, log logger.Logger) *Injector {
	return &Injector{renderer: renderer, logger: log}
}

// Inject renders the offer's CTA and inserts it into content at the
// requested position. When the offer is nil or renders to an empty CTA the
// original content is returned unchanged. Re-injection is not detected:
// two calls append two CTA blocks.
func (i *Injector) Inject(content string, offer *models.Offer, position Position) string {
	if offer == nil {
		return content
	}

	ctaHTML := i.renderer.Render(offer)
	if ctaHTML == "" {
		return content
	}

	wrapped := ctaWrapper + ctaHTML + "</div>"

	switch position {
	case PositionStart:
		return wrapped + "\n\n" + content
	case PositionMiddle:
		return i.injectMiddle(content, wrapped)
	default:
		return content + "\n\n" + wrapped
	}
}

// injectMiddle inserts the wrapped CTA after the paragraph boundary nearest
// the midpoint of the content. Content with two or fewer paragraphs is too
// short to split and falls back to end placement.
func (i *Injector) injectMiddle(content, wrapped string) string {
	segments := splitParagraphs(content)
	if len(segments) < minMiddleSegments {
		i.logger.Warn("Content too short for middle injection, falling back to end",
			logger.Int("segments", len(segments)),
		)
		return content + "\n\n" + wrapped
	}

	// Even indexes are text, odd indexes are </p> delimiters. Land the
	// midpoint on a delimiter so the CTA sits between paragraphs.
	mid := len(segments) / 2
	if mid%2 == 0 {
		mid--
	}

	var b strings.Builder
	for idx, seg := range segments {
		b.WriteString(seg)
		if idx == mid {
			b.WriteString(wrapped)
		}
	}
	return b.String()
}

// splitParagraphs splits content on paragraph boundaries, keeping the
// delimiters as their own segments. A trailing empty segment is dropped.
func splitParagraphs(content string) []string {
	matches := paragraphBoundary.FindAllStringIndex(content, -1)
	if len(matches) == 0 {
		return []string{content}
	}

	segments := make([]string, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		segments = append(segments, content[last:m[0]], content[m[0]:m[1]])
		last = m[1]
	}
	if tail := content[last:]; tail != "" {
		segments = append(segments, tail)
	}
	return segments
}
