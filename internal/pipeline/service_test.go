package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wealthautomationhq/autopost/internal/cta"
	"github.com/wealthautomationhq/autopost/internal/history"
	"github.com/wealthautomationhq/autopost/internal/kit"
	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/metrics"
	"github.com/wealthautomationhq/autopost/internal/models"
	"github.com/wealthautomationhq/autopost/internal/notify"
	"github.com/wealthautomationhq/autopost/internal/rotation"
	"github.com/wealthautomationhq/autopost/internal/wordpress"
)

const threeParagraphs = "<p>Intro paragraph.</p>\n<p>Strategy one.</p>\n<p>Conclusion.</p>"

type fakeGenerator struct {
	content *models.GeneratedContent
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, topic string) (*models.GeneratedContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.content != nil {
		return f.content, nil
	}
	return &models.GeneratedContent{
		BlogTitle:    topic + " - Key Strategies (2026-03-15 09:30)",
		BlogBody:     threeParagraphs,
		EmailSubject: "New Post: " + topic + " Insights",
		EmailBody:    "<p>Check out our latest post.</p>",
	}, nil
}

type fakeMatcher struct {
	offer *models.Offer
}

func (f *fakeMatcher) Match(_, _ string) *models.Offer { return f.offer }

type fakePublisher struct {
	post     *wordpress.Post
	err      error
	gotTitle string
	gotBody  string
}

func (f *fakePublisher) CreatePost(_ context.Context, title, content string) (*wordpress.Post, error) {
	f.gotTitle = title
	f.gotBody = content
	if f.err != nil {
		return nil, f.err
	}
	return f.post, nil
}

type fakeBroadcaster struct {
	broadcast  *kit.Broadcast
	err        error
	gotSubject string
	gotBody    string
}

func (f *fakeBroadcaster) SendBroadcast(_ context.Context, subject, content string) (*kit.Broadcast, error) {
	f.gotSubject = subject
	f.gotBody = content
	if f.err != nil {
		return nil, f.err
	}
	return f.broadcast, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, level notify.Level, message string) {
	f.messages = append(f.messages, string(level)+": "+message)
}

type fakeAutomation struct {
	configured bool
	err        error
	fired      bool
}

func (f *fakeAutomation) Configured() bool { return f.configured }

func (f *fakeAutomation) TriggerNewPost(_ context.Context, _ int, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.fired = true
	return nil
}

type memHistory struct {
	recs      []history.Record
	recentErr error
}

func (m *memHistory) Recent(_ context.Context, _ time.Duration) ([]history.Record, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return m.recs, nil
}

func (m *memHistory) Append(_ context.Context, rec history.Record) error {
	m.recs = append(m.recs, rec)
	return nil
}

type memUsageLog struct {
	recs []models.UsageRecord
}

func (m *memUsageLog) Append(rec models.UsageRecord) error {
	m.recs = append(m.recs, rec)
	return nil
}

type fixture struct {
	svc         *Service
	publisher   *fakePublisher
	broadcaster *fakeBroadcaster
	notifier    *fakeNotifier
	automation  *fakeAutomation
	blogHistory *memHistory
	ctaHistory  *memHistory
	usageLog    *memUsageLog
}

func testOffer() *models.Offer {
	return &models.Offer{
		ID:           "o1",
		Name:         "AI Toolkit",
		URL:          "https://offers.example.com/ai",
		CTATemplates: []string{`<p>Try the toolkit: <a href="{{url}}">here</a></p>`},
	}
}

func newFixture(t *testing.T, offer *models.Offer) *fixture {
	t.Helper()

	log := logger.NewNopLogger()
	f := &fixture{
		publisher:   &fakePublisher{post: &wordpress.Post{ID: 42, URL: "https://example.com/?p=42"}},
		broadcaster: &fakeBroadcaster{broadcast: &kit.Broadcast{ID: 9001}},
		notifier:    &fakeNotifier{},
		automation:  &fakeAutomation{configured: true},
		blogHistory: &memHistory{},
		ctaHistory:  &memHistory{},
		usageLog:    &memUsageLog{},
	}

	renderer := cta.NewRenderer(cta.DefaultUTMSource, cta.DefaultUTMMedium, log)
	f.svc = NewService(
		Config{
			Topics:       []string{"Topic A", "Topic B"},
			RateLimitCPM: 120,
		},
		Deps{
			Guard:       rotation.NewGuard(log),
			Generator:   &fakeGenerator{},
			Matcher:     &fakeMatcher{offer: offer},
			Injector:    cta.NewInjector(renderer, log),
			Publisher:   f.publisher,
			Broadcaster: f.broadcaster,
			Notifier:    f.notifier,
			Automation:  f.automation,
			BlogHistory: f.blogHistory,
			CTAHistory:  f.ctaHistory,
			UsageLog:    f.usageLog,
			Metrics:     metrics.NewMetrics(prometheus.NewRegistry()),
			Logger:      log,
		},
	)
	return f
}

func TestRunCycleHappyPath(t *testing.T) {
	f := newFixture(t, testOffer())

	result, err := f.svc.RunCycle(context.Background(), "Topic A")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if result.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q (warnings: %v)", result.Status(), StatusSuccess, result.Warnings)
	}
	if result.Topic != "Topic A" {
		t.Errorf("Topic = %q", result.Topic)
	}
	if !result.Published || result.PostID != 42 {
		t.Errorf("Published = %v, PostID = %d", result.Published, result.PostID)
	}
	if !result.Broadcasted || result.BroadcastID != 9001 {
		t.Errorf("Broadcasted = %v, BroadcastID = %d", result.Broadcasted, result.BroadcastID)
	}
	if result.OfferID != "o1" {
		t.Errorf("OfferID = %q, want o1", result.OfferID)
	}
	if !result.WebhookFired || !f.automation.fired {
		t.Error("automation webhook was not fired")
	}

	if !strings.Contains(f.publisher.gotBody, `<div class="wealthautomation-cta">`) {
		t.Error("blog body missing injected CTA")
	}
	if !strings.Contains(f.broadcaster.gotBody, `<div class="wealthautomation-cta">`) {
		t.Error("email body missing injected CTA")
	}
	if !strings.Contains(f.broadcaster.gotBody, "https://example.com/?p=42") {
		t.Error("email body missing post link")
	}

	if len(f.usageLog.recs) != 1 {
		t.Fatalf("usage log has %d records, want 1", len(f.usageLog.recs))
	}
	if f.usageLog.recs[0].ContentType != "blog_and_email" {
		t.Errorf("usage ContentType = %q", f.usageLog.recs[0].ContentType)
	}
	if len(f.ctaHistory.recs) != 1 || f.ctaHistory.recs[0].Text != "AI Toolkit" {
		t.Errorf("CTA history = %+v", f.ctaHistory.recs)
	}
	if len(f.blogHistory.recs) != 1 || f.blogHistory.recs[0].Text != result.BlogTitle {
		t.Errorf("blog history = %+v", f.blogHistory.recs)
	}
}

func TestRunCycleNoOffer(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.RunCycle(context.Background(), "Topic A")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if result.OfferID != "" {
		t.Errorf("OfferID = %q, want empty", result.OfferID)
	}
	if strings.Contains(f.publisher.gotBody, "wealthautomation-cta") {
		t.Error("blog body should not contain a CTA without an offer")
	}
	if len(f.usageLog.recs) != 0 {
		t.Errorf("usage log has %d records, want 0", len(f.usageLog.recs))
	}
	if result.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want success without offer", result.Status())
	}
}

func TestRunCyclePublishFailureStillBroadcasts(t *testing.T) {
	f := newFixture(t, testOffer())
	f.publisher.err = errors.New("wordpress down")

	result, err := f.svc.RunCycle(context.Background(), "Topic A")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if result.Published {
		t.Error("Published = true, want false")
	}
	if !result.Broadcasted {
		t.Error("Broadcasted = false, broadcast should proceed after publish failure")
	}
	if strings.Contains(f.broadcaster.gotBody, "Read the full post here") {
		t.Error("email body should not link a post that was never created")
	}
	if result.WebhookFired || f.automation.fired {
		t.Error("automation webhook must not fire when the post failed")
	}
	if len(f.blogHistory.recs) != 0 {
		t.Errorf("blog history = %+v, want empty after publish failure", f.blogHistory.recs)
	}
	if result.Status() != StatusPartial {
		t.Errorf("Status() = %q, want partial", result.Status())
	}
}

func TestRunCycleBroadcastFailure(t *testing.T) {
	f := newFixture(t, testOffer())
	f.broadcaster.err = errors.New("kit down")

	result, err := f.svc.RunCycle(context.Background(), "Topic A")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if !result.Published {
		t.Error("Published = false, want true")
	}
	if result.Broadcasted {
		t.Error("Broadcasted = true, want false")
	}
	if result.Status() != StatusPartial {
		t.Errorf("Status() = %q, want partial", result.Status())
	}
}

func TestRunCycleEverythingFails(t *testing.T) {
	f := newFixture(t, testOffer())
	f.publisher.err = errors.New("wordpress down")
	f.broadcaster.err = errors.New("kit down")

	result, err := f.svc.RunCycle(context.Background(), "Topic A")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if result.Status() != StatusFailed {
		t.Errorf("Status() = %q, want failed", result.Status())
	}
}

func TestRunCycleSkipsRecentCTA(t *testing.T) {
	f := newFixture(t, testOffer())
	f.ctaHistory.recs = []history.Record{
		{Timestamp: time.Now().Add(-24 * time.Hour), Text: "AI Toolkit"},
	}

	result, err := f.svc.RunCycle(context.Background(), "Topic A")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if result.OfferID != "" {
		t.Errorf("OfferID = %q, want empty when CTA ran recently", result.OfferID)
	}
	if strings.Contains(f.publisher.gotBody, "wealthautomation-cta") {
		t.Error("blog body should not contain a CTA for a recently used offer")
	}
	if len(f.usageLog.recs) != 0 {
		t.Errorf("usage log has %d records, want 0", len(f.usageLog.recs))
	}
}

func TestRunCycleAvoidsRecentTopic(t *testing.T) {
	f := newFixture(t, nil)
	f.blogHistory.recs = []history.Record{
		{Timestamp: time.Now().Add(-24 * time.Hour), Text: "Topic A - Key Strategies (2026-03-14 09:30)"},
	}

	result, err := f.svc.RunCycle(context.Background(), "")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if result.Topic != "Topic B" {
		t.Errorf("Topic = %q, want Topic B (Topic A was recently posted)", result.Topic)
	}
}

func TestRunCycleRateLimited(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.limiter.SetLimit(0)
	f.svc.limiter.SetBurst(1)
	// Consume the single burst token.
	if _, err := f.svc.RunCycle(context.Background(), "Topic A"); err != nil {
		t.Fatalf("first RunCycle() error = %v", err)
	}

	_, err := f.svc.RunCycle(context.Background(), "Topic A")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("RunCycle() error = %v, want ErrRateLimited", err)
	}
}

func TestRunCycleGenerationFallbackIsPartial(t *testing.T) {
	f := newFixture(t, nil)
	gen := &fakeGenerator{content: &models.GeneratedContent{
		BlogTitle:    "Topic A - Key Strategies (2026-03-15 09:30)",
		BlogBody:     "<p>emergency copy</p>",
		EmailSubject: "New Post: Topic A Insights",
		EmailBody:    "<p>emergency copy</p>",
		Fallback:     true,
	}}
	f.svc.deps.Generator = gen

	result, err := f.svc.RunCycle(context.Background(), "Topic A")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if !result.UsedFallback {
		t.Error("UsedFallback = false, want true")
	}
	if result.Status() != StatusPartial {
		t.Errorf("Status() = %q, want partial when fallback content was used", result.Status())
	}
}
