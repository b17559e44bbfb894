// Package pipeline orchestrates one publishing cycle: topic selection,
// content generation, offer matching, CTA injection, CMS publish, email
// broadcast and downstream automation. Stages degrade and continue; a
// cycle only hard-fails when nothing could be delivered.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wealthautomationhq/autopost/internal/cta"
	"github.com/wealthautomationhq/autopost/internal/history"
	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/metrics"
	"github.com/wealthautomationhq/autopost/internal/models"
	"github.com/wealthautomationhq/autopost/internal/notify"
	"github.com/wealthautomationhq/autopost/internal/rotation"
)

// usageContentType marks usage records written for the combined blog and
// email injection of a single cycle.
const usageContentType = "blog_and_email"

// Config holds pipeline tuning knobs.
type Config struct {
	Topics       []string
	TopicWindow  time.Duration
	CTAWindow    time.Duration
	RateLimitCPM int
}

// Deps holds the pipeline collaborators.
type Deps struct {
	Guard       *rotation.Guard
	Generator   ContentGenerator
	Matcher     OfferMatcher
	Injector    CTAInjector
	Publisher   Publisher
	Broadcaster Broadcaster
	Notifier    Notifier
	Automation  AutomationTrigger

	BlogHistory history.Store
	CTAHistory  history.Store
	UsageLog    UsageLog
	UsageMirror UsageMirror

	Metrics *metrics.Metrics
	Logger  logger.Logger
}

// UsageMirror optionally mirrors usage records into a queryable store.
type UsageMirror interface {
	Record(ctx context.Context, rec models.UsageRecord) error
}

// Service runs publishing cycles.
type Service struct {
	cfg     Config
	deps    Deps
	limiter *rate.Limiter
	logger  logger.Logger
	now     func() time.Time
}

// NewService creates a pipeline service.
func NewService(cfg Config, deps Deps) *Service {
	if cfg.TopicWindow == 0 {
		cfg.TopicWindow = rotation.DefaultTopicWindow
	}
	if cfg.CTAWindow == 0 {
		cfg.CTAWindow = rotation.DefaultCTAWindow
	}
	if cfg.RateLimitCPM == 0 {
		cfg.RateLimitCPM = 2
	}

	return &Service{
		cfg:     cfg,
		deps:    deps,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimitCPM)), 1),
		logger:  deps.Logger,
		now:     time.Now,
	}
}

// RunCycle executes one full publishing cycle. topic may be empty, in
// which case one is selected from the configured rotation, avoiding
// recently used topics.
func (s *Service) RunCycle(ctx context.Context, topic string) (*CycleResult, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	start := s.now()
	result := &CycleResult{}

	s.logger.Info("Starting publishing cycle", logger.String("requested_topic", topic))
	s.deps.Notifier.Notify(ctx, notify.LevelInfo, "WealthAutomation cycle started.")

	result.Topic = s.selectTopic(ctx, topic, result)

	content, err := s.deps.Generator.Generate(ctx, result.Topic)
	if err != nil {
		s.logger.Error("Content generation failed", logger.String("topic", result.Topic), logger.Error(err))
		s.deps.Notifier.Notify(ctx, notify.LevelError, fmt.Sprintf("Content generation failed: %v", err))
		s.deps.Metrics.RecordCycle(StatusFailed, s.now().Sub(start).Seconds())
		return nil, fmt.Errorf("generate content: %w", err)
	}
	result.BlogTitle = content.BlogTitle
	result.UsedFallback = content.Fallback
	if content.Fallback {
		s.deps.Metrics.GenerationFallbacks.Inc()
		result.warn("generation degraded to emergency fallback content")
	}

	blogBody, emailBody := s.applyOffer(ctx, content, result)

	s.publish(ctx, content.BlogTitle, blogBody, result)
	s.broadcast(ctx, content.EmailSubject, emailBody, result)
	s.fireAutomation(ctx, result)

	s.deps.Notifier.Notify(ctx, notify.LevelInfo, "WealthAutomation cycle finished.")

	status := result.Status()
	s.deps.Metrics.RecordCycle(status, s.now().Sub(start).Seconds())
	s.logger.Info("Publishing cycle finished",
		logger.String("topic", result.Topic),
		logger.String("status", status),
		logger.Bool("published", result.Published),
		logger.Bool("broadcasted", result.Broadcasted),
	)

	return result, nil
}

// selectTopic resolves the topic for this cycle. An explicitly requested
// topic always wins; otherwise one is picked from the rotation avoiding
// titles posted within the topic window.
func (s *Service) selectTopic(ctx context.Context, requested string, result *CycleResult) string {
	hist, err := s.deps.BlogHistory.Recent(ctx, s.cfg.TopicWindow)
	if err != nil {
		s.logger.Warn("Failed to read blog history, proceeding without duplicate checks", logger.Error(err))
		result.warn("blog history unavailable")
		hist = nil
	}

	if requested != "" {
		if s.deps.Guard.IsDuplicateTopic(requested, hist, s.cfg.TopicWindow) {
			s.logger.Warn("Requested topic was recently posted", logger.String("topic", requested))
			s.deps.Metrics.RecordDuplicateSkipped("topic")
			result.warn("requested topic was recently posted")
		}
		return requested
	}

	topic := s.deps.Guard.SelectTopic(s.cfg.Topics, hist)
	if s.deps.Guard.IsDuplicateTopic(topic, hist, s.cfg.TopicWindow) {
		// All candidates were recently used; the guard falls back to the
		// least recently used one.
		s.deps.Metrics.RecordDuplicateSkipped("topic")
		result.warn("all topics recently used, reusing least recent")
	}
	return topic
}

// applyOffer matches an affiliate offer and injects its CTA into the blog
// (middle) and email (end). Offers whose CTA ran within the CTA window
// are skipped. Returns the final blog and email bodies.
func (s *Service) applyOffer(ctx context.Context, content *models.GeneratedContent, result *CycleResult) (string, string) {
	blogBody := content.BlogBody
	emailBody := content.EmailBody

	offer := s.deps.Matcher.Match(content.BlogBody, content.BlogTitle)
	if offer == nil {
		s.logger.Warn("No suitable affiliate offer found")
		return blogBody, emailBody
	}

	ctaHist, err := s.deps.CTAHistory.Recent(ctx, s.cfg.CTAWindow)
	if err != nil {
		s.logger.Warn("Failed to read CTA history, proceeding without duplicate checks", logger.Error(err))
		ctaHist = nil
	}
	if s.deps.Guard.IsDuplicateCTA(offer.Name, ctaHist, s.cfg.CTAWindow) {
		s.logger.Info("Skipping CTA, offer ran recently", logger.String("offer", offer.Name))
		s.deps.Metrics.RecordDuplicateSkipped("cta")
		result.warn(fmt.Sprintf("offer %q skipped, CTA ran recently", offer.Name))
		return blogBody, emailBody
	}

	result.OfferID = offer.ID
	result.OfferName = offer.Name

	blogBody = s.deps.Injector.Inject(blogBody, offer, cta.PositionMiddle)
	s.deps.Metrics.RecordCTAInjection("blog")
	emailBody = s.deps.Injector.Inject(emailBody, offer, cta.PositionEnd)
	s.deps.Metrics.RecordCTAInjection("email")

	s.recordUsage(ctx, offer, content.BlogTitle, result)

	s.logger.Info("Injected CTA into blog and email content",
		logger.String("offer_id", offer.ID),
		logger.String("offer_name", offer.Name),
	)

	return blogBody, emailBody
}

// recordUsage writes the usage audit entry and the CTA history record.
// Failures are warnings: a broken audit trail must not block publishing.
func (s *Service) recordUsage(ctx context.Context, offer *models.Offer, blogTitle string, result *CycleResult) {
	rec := models.UsageRecord{
		Timestamp:    s.now(),
		OfferID:      offer.ID,
		OfferName:    offer.Name,
		ContentType:  usageContentType,
		ContentTitle: blogTitle,
	}

	if err := s.deps.UsageLog.Append(rec); err != nil {
		s.logger.Error("Failed to append usage log", logger.Error(err))
		result.warn("usage log append failed")
	}
	if s.deps.UsageMirror != nil {
		if err := s.deps.UsageMirror.Record(ctx, rec); err != nil {
			s.logger.Warn("Failed to mirror usage record", logger.Error(err))
		}
	}
	if err := s.deps.CTAHistory.Append(ctx, history.Record{Timestamp: s.now(), Text: offer.Name}); err != nil {
		s.logger.Error("Failed to append CTA history", logger.Error(err))
		result.warn("CTA history append failed")
	}
}

func (s *Service) publish(ctx context.Context, title, body string, result *CycleResult) {
	post, err := s.deps.Publisher.CreatePost(ctx, title, body)
	if err != nil {
		s.logger.Error("WordPress posting failed", logger.String("title", title), logger.Error(err))
		s.deps.Metrics.PublishFailures.Inc()
		s.deps.Notifier.Notify(ctx, notify.LevelWarning,
			"WordPress posting FAILED. Content saved to fallback.")
		result.warn("wordpress publish failed")
		return
	}

	result.Published = true
	result.PostID = post.ID
	result.PostURL = post.URL

	s.deps.Notifier.Notify(ctx, notify.LevelSuccess,
		fmt.Sprintf("New WordPress Post: %s - %s", title, post.URL))

	if err := s.deps.BlogHistory.Append(ctx, history.Record{Timestamp: s.now(), Text: title}); err != nil {
		s.logger.Error("Failed to append blog history", logger.Error(err))
		result.warn("blog history append failed")
	}
}

func (s *Service) broadcast(ctx context.Context, subject, body string, result *CycleResult) {
	if result.PostURL != "" {
		body += fmt.Sprintf("<p>Read the full post here: <a href=\"%s\">%s</a></p>", result.PostURL, result.PostURL)
	}

	broadcast, err := s.deps.Broadcaster.SendBroadcast(ctx, subject, body)
	if err != nil {
		s.logger.Error("Email broadcast failed", logger.String("subject", subject), logger.Error(err))
		s.deps.Metrics.BroadcastFailures.Inc()
		s.deps.Notifier.Notify(ctx, notify.LevelWarning,
			"Email broadcast FAILED. Content saved to fallback.")
		result.warn("email broadcast failed")
		return
	}

	result.Broadcasted = true
	result.BroadcastID = broadcast.ID
	s.deps.Metrics.BroadcastsSent.Inc()

	s.deps.Notifier.Notify(ctx, notify.LevelSuccess,
		fmt.Sprintf("Email Broadcast Sent: %s (Broadcast ID: %d)", subject, broadcast.ID))
}

// fireAutomation triggers the Make.com webhook, but only when a post was
// actually created.
func (s *Service) fireAutomation(ctx context.Context, result *CycleResult) {
	if !result.Published {
		s.logger.Info("Skipping automation webhook, WordPress post failed")
		return
	}
	if s.deps.Automation == nil || !s.deps.Automation.Configured() {
		s.logger.Info("Automation webhook not configured, skipping trigger")
		return
	}

	if err := s.deps.Automation.TriggerNewPost(ctx, result.PostID, result.BlogTitle, result.PostURL); err != nil {
		s.logger.Error("Automation webhook trigger failed", logger.Error(err))
		s.deps.Notifier.Notify(ctx, notify.LevelError,
			fmt.Sprintf("Make.com webhook trigger FAILED: %v", err))
		result.warn("automation webhook failed")
		return
	}

	result.WebhookFired = true
	s.deps.Notifier.Notify(ctx, notify.LevelInfo,
		fmt.Sprintf("Triggered Make.com webhook for post ID %d", result.PostID))
}
