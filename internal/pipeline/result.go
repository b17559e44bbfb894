package pipeline

import "errors"

// ErrRateLimited is returned when a cycle is requested faster than the
// configured rate allows.
var ErrRateLimited = errors.New("cycle rate limit exceeded")

// Cycle outcome statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// CycleResult reports what one publishing cycle accomplished. A cycle
// degrades stage by stage rather than aborting, so every outcome field
// must be checked individually.
type CycleResult struct {
	Topic        string   `json:"topic"`
	BlogTitle    string   `json:"blog_title"`
	OfferID      string   `json:"offer_id,omitempty"`
	OfferName    string   `json:"offer_name,omitempty"`
	PostID       int      `json:"post_id,omitempty"`
	PostURL      string   `json:"post_url,omitempty"`
	BroadcastID  int64    `json:"broadcast_id,omitempty"`
	UsedFallback bool     `json:"used_fallback"`
	Published    bool     `json:"published"`
	Broadcasted  bool     `json:"broadcasted"`
	WebhookFired bool     `json:"webhook_fired"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Status summarizes the cycle outcome.
func (r *CycleResult) Status() string {
	switch {
	case !r.Published && !r.Broadcasted:
		return StatusFailed
	case r.Published && r.Broadcasted && len(r.Warnings) == 0:
		return StatusSuccess
	default:
		return StatusPartial
	}
}

func (r *CycleResult) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
