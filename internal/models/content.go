package models

import "time"

// ContentUnit is one generated piece of content. It is produced per cycle
// and never persisted except in logs.
type ContentUnit struct {
	Title string
	Body  string
}

// GeneratedContent holds everything one generation call produces: the blog
// post and the matching email announcement.
type GeneratedContent struct {
	BlogTitle    string
	BlogBody     string
	EmailSubject string
	EmailBody    string

	// Fallback is true when the generator degraded to emergency copy
	// instead of calling the LLM.
	Fallback bool
}

// UsageRecord is one append-only entry in the offer usage audit trail.
type UsageRecord struct {
	Timestamp    time.Time `db:"created_at"`
	OfferID      string    `db:"offer_id"`
	OfferName    string    `db:"offer_name"`
	ContentType  string    `db:"content_type"`
	ContentTitle string    `db:"content_title"`
}
