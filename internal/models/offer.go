package models

// DefaultPriority is assigned to offers that do not declare a priority.
const DefaultPriority = 1

// Offer represents an affiliate promotion record with targeting metadata
// and renderable CTA templates. Offers are loaded once at startup and are
// immutable for the process lifetime.
type Offer struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url"`
	Commission   string   `json:"commission,omitempty"`
	Categories   []string `json:"categories"`
	Keywords     []string `json:"keywords"`
	Priority     int      `json:"priority"`
	CTATemplates []string `json:"ctaTemplates"`
}

// EffectivePriority returns the offer's priority, or DefaultPriority when
// the offer does not declare a positive one.
func (o *Offer) EffectivePriority() int {
	if o.Priority <= 0 {
		return DefaultPriority
	}
	return o.Priority
}

// HasTemplates reports whether the offer carries at least one non-empty
// CTA template. Offers without templates still participate in relevance
// matching but render to an empty CTA.
func (o *Offer) HasTemplates() bool {
	for _, t := range o.CTATemplates {
		if t != "" {
			return true
		}
	}
	return false
}

// ValidTemplates returns the offer's non-empty CTA templates.
func (o *Offer) ValidTemplates() []string {
	templates := make([]string, 0, len(o.CTATemplates))
	for _, t := range o.CTATemplates {
		if t != "" {
			templates = append(templates, t)
		}
	}
	return templates
}
