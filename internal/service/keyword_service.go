package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type KeywordService interface {
	Transform(ctx context.Context, seed string) (string, error)
}

var keywordPrompts = []string{
	"Suggest one narrower sub-topic of %q that a reader would search for.",
	"Suggest one niche synonym or closely related search phrase for %q.",
	"Reframe %q from an unexpected angle as one short search phrase.",
	"Expand %q into one broader related concept as a short search phrase.",
	"Turn %q into one provocative question a curious reader might ask.",
}

const keywordSystemPrompt = "You generate blog keywords. Reply with a single phrase only, no explanation, no quotes, no numbering."

var listPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

type keywordService struct {
	llm TextGenerator
	rnd *Random
}

func NewKeywordService(llm TextGenerator, rnd *Random) KeywordService {
	return &keywordService{llm: llm, rnd: rnd}
}

// Transform derives a related keyword. On any failure the seed is returned
// together with the error so the caller can carry on with it.
func (s *keywordService) Transform(ctx context.Context, seed string) (string, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return "", newError(KindInvalidInput, "keyword.transform", "empty seed keyword", nil)
	}
	if s.llm == nil {
		return seed, newError(KindUpstreamUnavailable, "keyword.transform", "text generator not configured", nil)
	}

	prompt := fmt.Sprintf(keywordPrompts[s.rnd.Intn(len(keywordPrompts))], seed)
	reply, err := s.llm.Complete(ctx, CompletionRequest{
		System:      keywordSystemPrompt,
		User:        prompt,
		Temperature: 0.9,
		MaxTokens:   40,
	})
	if err != nil {
		slog.Warn("keyword transform failed", "seed", seed, "error", err)
		return seed, newError(KindUpstreamUnavailable, "keyword.transform", "", err)
	}

	derived := cleanKeyword(reply)
	if utf8.RuneCountInString(derived) < 2 {
		return seed, nil
	}
	return derived, nil
}

func cleanKeyword(reply string) string {
	var line string
	for _, l := range strings.Split(reply, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	line = listPrefix.ReplaceAllString(line, "")
	line = strings.TrimFunc(line, func(r rune) bool {
		switch r {
		case '"', '\'', '`', '“', '”', '‘', '’', '«', '»', '「', '」':
			return true
		}
		return unicode.IsSpace(r)
	})
	line = strings.TrimRightFunc(line, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return strings.Join(strings.Fields(line), " ")
}
