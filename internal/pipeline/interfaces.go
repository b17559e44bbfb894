package pipeline

import (
	"context"

	"github.com/wealthautomationhq/autopost/internal/cta"
	"github.com/wealthautomationhq/autopost/internal/kit"
	"github.com/wealthautomationhq/autopost/internal/models"
	"github.com/wealthautomationhq/autopost/internal/notify"
	"github.com/wealthautomationhq/autopost/internal/wordpress"
)

// ContentGenerator produces blog and email content for a topic.
type ContentGenerator interface {
	Generate(ctx context.Context, topic string) (*models.GeneratedContent, error)
}

// OfferMatcher picks the best affiliate offer for a piece of content.
type OfferMatcher interface {
	Match(content, title string) *models.Offer
}

// CTAInjector renders an offer CTA and places it into content.
type CTAInjector interface {
	Inject(content string, offer *models.Offer, position cta.Position) string
}

// Publisher creates a post on the CMS.
type Publisher interface {
	CreatePost(ctx context.Context, title, content string) (*wordpress.Post, error)
}

// Broadcaster sends the email announcement.
type Broadcaster interface {
	SendBroadcast(ctx context.Context, subject, content string) (*kit.Broadcast, error)
}

// Notifier delivers best-effort operational notifications.
type Notifier interface {
	Notify(ctx context.Context, level notify.Level, message string)
}

// AutomationTrigger fires downstream automation after a successful post.
type AutomationTrigger interface {
	Configured() bool
	TriggerNewPost(ctx context.Context, postID int, title, url string) error
}

// UsageLog records offer usage in the audit trail.
type UsageLog interface {
	Append(rec models.UsageRecord) error
}
