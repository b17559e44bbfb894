package generator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/models"
)

const (
	// minBlogLength is the length below which generated blog content is
	// flagged as suspiciously short.
	minBlogLength = 500

	titleTimestampLayout = "2006-01-02 15:04"

	blogSystemPrompt  = "You are an expert content writer specializing in digital marketing, online business, and wealth automation."
	emailSystemPrompt = "You are an expert email copywriter specializing in engaging newsletter content."
)

const blogPromptTemplate = `Write a comprehensive, in-depth blog post about %s.

The blog post should:
- Have a professional, authoritative tone
- Include at least 5 specific strategies or techniques
- Provide actionable advice that readers can implement
- Include examples where appropriate
- Be at least 1000 words in length
- Format the content with proper HTML tags (<p>, <h2>, <h3>, <ul>, <li>, etc.)

Do not include a title or introduction saying "Introduction" - start directly with engaging content.`

const emailPromptTemplate = `Write an engaging email to announce a new blog post about %s.

The email should:
- Have a friendly, conversational tone
- Highlight 2-3 key points from the blog post
- Create curiosity to encourage clicking through to the full post
- Be concise (150-200 words)
- Format with proper HTML tags (<p>, <strong>, etc.)

Do not include a greeting like "Hi [Name]" - start with engaging content.`

// htmlFormatted matches content that already carries block-level HTML.
var htmlFormatted = regexp.MustCompile(`<h[2-3]|<p>`)

// Generator produces a blog post and matching email announcement for a
// topic. When no API key is configured, or the API fails, it degrades to
// emergency fallback copy rather than returning an error: a cycle must
// always have something to publish.
type Generator struct {
	client     *openai.Client
	blogModel  openai.ChatModel
	emailModel openai.ChatModel
	logger     logger.Logger
	now        func() time.Time
}

// NewGenerator creates a content generator. An empty apiKey leaves the
// generator in fallback-only mode.
func NewGenerator(apiKey string, log logger.Logger) *Generator {
	g := &Generator{
		blogModel:  openai.ChatModelGPT4,
		emailModel: openai.ChatModelGPT3_5Turbo,
		logger:     log,
		now:        time.Now,
	}
	if apiKey != "" {
		client := openai.NewClient(option.WithAPIKey(apiKey))
		g.client = &client
	}
	return g
}

// Generate produces blog and email content for the topic.
func (g *Generator) Generate(ctx context.Context, topic string) (*models.GeneratedContent, error) {
	ts := g.now().Format(titleTimestampLayout)
	content := &models.GeneratedContent{
		BlogTitle:    fmt.Sprintf("%s - Key Strategies (%s)", topic, ts),
		EmailSubject: fmt.Sprintf("New Post: %s Insights", topic),
	}

	if g.client == nil {
		g.logger.Warn("Using emergency fallback content due to missing API key",
			logger.String("topic", topic))
		g.applyFallback(content, topic)
		return content, nil
	}

	g.logger.Info("Generating content", logger.String("topic", topic))

	blogBody, err := g.complete(ctx, g.blogModel, blogSystemPrompt,
		fmt.Sprintf(blogPromptTemplate, topic), 2500)
	if err != nil {
		g.logger.Error("Blog generation failed, using emergency fallback content",
			logger.String("topic", topic), logger.Error(err))
		g.applyFallback(content, topic)
		return content, nil
	}

	emailBody, err := g.complete(ctx, g.emailModel, emailSystemPrompt,
		fmt.Sprintf(emailPromptTemplate, topic), 500)
	if err != nil {
		g.logger.Error("Email generation failed, using emergency fallback content",
			logger.String("topic", topic), logger.Error(err))
		g.applyFallback(content, topic)
		return content, nil
	}

	if len(blogBody) < minBlogLength {
		g.logger.Warn("Generated blog content is too short",
			logger.String("topic", topic), logger.Int("length", len(blogBody)))
	}

	if !htmlFormatted.MatchString(blogBody) {
		g.logger.Warn("Generated blog content lacks HTML formatting, adding basic formatting",
			logger.String("topic", topic))
		blogBody = "<p>" + strings.ReplaceAll(blogBody, "\n\n", "</p><p>") + "</p>"
	}

	content.BlogBody = blogBody
	content.EmailBody = emailBody

	g.logger.Info("Successfully generated content",
		logger.String("topic", topic),
		logger.String("blog_title", content.BlogTitle),
		logger.Int("blog_length", len(content.BlogBody)))

	return content, nil
}

func (g *Generator) complete(ctx context.Context, model openai.ChatModel, system, user string, maxTokens int64) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *Generator) applyFallback(content *models.GeneratedContent, topic string) {
	content.BlogBody = fmt.Sprintf(
		"<p>This is an emergency fallback post about %s.</p>\n"+
			"<p>Our regular content generation system is currently experiencing technical difficulties.</p>\n"+
			"<p>Please check back later for our regularly scheduled content.</p>", topic)
	content.EmailBody = fmt.Sprintf(
		"<p>We're preparing some exciting new content about %s.</p>\n"+
			"<p>Due to technical issues, our regular content will be slightly delayed.</p>", topic)
	content.Fallback = true
}
