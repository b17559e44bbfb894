package generator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

func TestGenerateFallbackWithoutKey(t *testing.T) {
	g := NewGenerator("", logger.NewNopLogger())
	g.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	}

	content, err := g.Generate(context.Background(), "Scaling Your Online Business with Automation")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !content.Fallback {
		t.Error("Fallback = false, want true without API key")
	}
	want := "Scaling Your Online Business with Automation - Key Strategies (2026-03-15 09:30)"
	if content.BlogTitle != want {
		t.Errorf("BlogTitle = %q, want %q", content.BlogTitle, want)
	}
	if content.EmailSubject != "New Post: Scaling Your Online Business with Automation Insights" {
		t.Errorf("EmailSubject = %q", content.EmailSubject)
	}
	if !strings.Contains(content.BlogBody, "emergency fallback post about Scaling Your Online Business with Automation") {
		t.Errorf("BlogBody missing fallback copy: %q", content.BlogBody)
	}
	if !strings.Contains(content.EmailBody, "exciting new content about") {
		t.Errorf("EmailBody missing fallback copy: %q", content.EmailBody)
	}
}

func TestFallbackBodiesAreHTML(t *testing.T) {
	g := NewGenerator("", logger.NewNopLogger())

	content, err := g.Generate(context.Background(), "AI Tools")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(content.BlogBody, "<p>") {
		t.Errorf("BlogBody does not start with <p>: %q", content.BlogBody)
	}
	if !strings.HasPrefix(content.EmailBody, "<p>") {
		t.Errorf("EmailBody does not start with <p>: %q", content.EmailBody)
	}
}

func TestHTMLFormattedDetection(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"paragraph tags", "<p>hello</p>", true},
		{"heading tags", "<h2>Strategies</h2>", true},
		{"plain text", "just some text\n\nmore text", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlFormatted.MatchString(tt.body); got != tt.want {
				t.Errorf("htmlFormatted.MatchString(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
