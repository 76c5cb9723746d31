package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/yuin/goldmark"

	"github.com/maheshrc27/autopost-api/internal/models"
)

const (
	minComplexity = 4
	maxComplexity = 10
)

type GenerateOptions struct {
	Style      models.ContentStyle
	Complexity int
	Plan       models.PlanTier
}

type GenerationParams struct {
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
	MaxTokens        int
}

// DefaultGenerationParams sit toward the high-diversity end of the valid range.
var DefaultGenerationParams = GenerationParams{
	Temperature:      0.9,
	PresencePenalty:  0.6,
	FrequencyPenalty: 0.6,
	MaxTokens:        3000,
}

type ContentService interface {
	Generate(ctx context.Context, keyword string, opts GenerateOptions) *models.GeneratedArticle
}

type contentService struct {
	llm     TextGenerator
	rnd     *Random
	params  GenerationParams
	prompts *promptCatalogue
	now     func() time.Time
}

func NewContentService(llm TextGenerator, rnd *Random, params GenerationParams) ContentService {
	return &contentService{
		llm:     llm,
		rnd:     rnd,
		params:  params,
		prompts: defaultPrompts,
		now:     time.Now,
	}
}

// Generate never fails: any upstream problem yields a stub article.
func (s *contentService) Generate(ctx context.Context, keyword string, opts GenerateOptions) *models.GeneratedArticle {
	keyword = strings.TrimSpace(keyword)
	style := s.pickStyle(opts.Style)
	complexity := s.pickComplexity(opts.Complexity, opts.Plan)

	article, err := s.generate(ctx, keyword, style, complexity)
	if err != nil {
		slog.Warn("content generation failed, using stub article", "keyword", keyword, "style", style, "error", err)
		article = StubArticle(keyword, s.now(), uuid.NewString())
	}
	article.TransformedKeyword = keyword
	article.Style = style
	article.Complexity = complexity
	return article
}

func (s *contentService) generate(ctx context.Context, keyword string, style models.ContentStyle, complexity int) (*models.GeneratedArticle, error) {
	if s.llm == nil {
		return nil, newError(KindUpstreamUnavailable, "content.generate", "text generator not configured", nil)
	}

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	system, err := s.prompts.render(style, promptData{
		Keyword:    keyword,
		Complexity: complexity,
		Nonce:      fmt.Sprintf("%s-%s", s.now().Format(time.RFC3339Nano), token),
	})
	if err != nil {
		return nil, err
	}

	reply, err := s.llm.Complete(ctx, CompletionRequest{
		System:           system,
		User:             fmt.Sprintf("Keyword: %s", keyword),
		Temperature:      s.params.Temperature,
		PresencePenalty:  s.params.PresencePenalty,
		FrequencyPenalty: s.params.FrequencyPenalty,
		MaxTokens:        s.params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	body, err := replyToHTML(reply)
	if err != nil {
		return nil, newError(KindUpstreamUnavailable, "content.generate", "malformed reply", err)
	}
	if strings.TrimSpace(body) == "" {
		return nil, newError(KindUpstreamUnavailable, "content.generate", "empty reply", nil)
	}

	return &models.GeneratedArticle{
		Title:    ExtractTitle(body, keyword),
		BodyHTML: InsertPlaceholders(body),
	}, nil
}

func (s *contentService) pickStyle(hint models.ContentStyle) models.ContentStyle {
	for _, st := range models.ContentStyles {
		if st == hint {
			return hint
		}
	}
	return models.ContentStyles[s.rnd.Intn(len(models.ContentStyles))]
}

// pickComplexity biases premium jobs toward the upper end of the range.
func (s *contentService) pickComplexity(hint int, plan models.PlanTier) int {
	if hint >= minComplexity && hint <= maxComplexity {
		return hint
	}
	if plan == models.PlanTierPremium {
		return s.rnd.IntRange(7, maxComplexity)
	}
	return s.rnd.IntRange(minComplexity, 8)
}

var (
	codeFence = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n(.*?)\\n?```\\s*$")
	htmlBlock = regexp.MustCompile(`(?i)<(h[1-6]|p|ul|ol|table|div|section|article)[\s>]`)
)

func replyToHTML(reply string) (string, error) {
	reply = strings.TrimSpace(reply)
	if m := codeFence.FindStringSubmatch(reply); m != nil {
		reply = strings.TrimSpace(m[1])
	}
	if htmlBlock.MatchString(reply) {
		return reply, nil
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(reply), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func FallbackTitle(keyword string) string {
	return fmt.Sprintf("%s: complete guide", keyword)
}

// ExtractTitle returns the first h1, then the first h2, then a synthesized title.
func ExtractTitle(body, keyword string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		for _, sel := range []string{"h1", "h2"} {
			if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
				return strings.Join(strings.Fields(t), " ")
			}
		}
	}
	return FallbackTitle(keyword)
}

// StubArticle is the offline article used when generation is unavailable.
func StubArticle(keyword string, now time.Time, id string) *models.GeneratedArticle {
	title := FallbackTitle(keyword)
	kw := html.EscapeString(keyword)

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "<p>This guide to <strong>%s</strong> was prepared on %s (ref %s).</p>\n",
		kw, now.Format("2006-01-02 15:04 MST"), html.EscapeString(id))
	fmt.Fprintf(&b, "<h2>What is %s?</h2>\n", kw)
	fmt.Fprintf(&b, "<p>An overview of <em>%s</em> and the terms you will meet along the way.</p>\n", kw)
	fmt.Fprintf(&b, "<h2>Why %s matters</h2>\n", kw)
	fmt.Fprintf(&b, "<p>The main benefits of %s and who gets the most out of it.</p>\n", kw)
	fmt.Fprintf(&b, "<h2>Getting started with %s</h2>\n", kw)
	fmt.Fprintf(&b, "<ul><li>Set a clear goal</li><li>Start small</li><li>Review the results</li></ul>\n")

	return &models.GeneratedArticle{
		Title:    title,
		BodyHTML: InsertPlaceholders(b.String()),
		Stub:     true,
	}
}
