package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned when no model client is configured.
var ErrUnavailable = errors.New("ai unavailable")

// Summary is what the backend stores alongside a link.
type Summary struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Summarizer produces a short summary and tags for an article.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (Summary, error)
}

// Fallback is used whenever the model cannot produce a usable answer.
func Fallback(title string) Summary {
	return Summary{Summary: "Article: " + title, Tags: []string{"saved"}}
}

const promptContentLimit = 3000

func buildPrompt(title, content string) string {
	if r := []rune(content); len(r) > promptContentLimit {
		content = string(r[:promptContentLimit])
	}
	return fmt.Sprintf(`Analyze this article and provide:
1. A concise 2-3 sentence summary
2. 3-5 relevant tags (single words, camelCase if needed)

Title: %s
Content: %s

Examples of good tags: ["AI", "Technology", "Security", "GoogleCloud", "OpenSource"]
Examples of bad tags: ["Machine Learning", "Cloud Computing", "Web Development"]

Respond ONLY with valid JSON in this exact format (no markdown, no code blocks):
{"summary": "...", "tags": ["tag1", "tag2"]}`, title, content)
}

// parseSummary accepts the raw model output, optionally wrapped in ``` fences.
func parseSummary(text string) (Summary, error) {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "```") {
		for _, part := range strings.Split(text, "```") {
			part = strings.TrimSpace(part)
			part = strings.TrimSpace(strings.TrimPrefix(part, "json"))
			if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
				text = part
				break
			}
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	if _, ok := raw["summary"]; !ok {
		return Summary{}, errors.New("invalid response format: missing summary")
	}
	if _, ok := raw["tags"]; !ok {
		return Summary{}, errors.New("invalid response format: missing tags")
	}
	var out Summary
	if err := json.Unmarshal(raw["summary"], &out.Summary); err != nil {
		return Summary{}, fmt.Errorf("decode summary text: %w", err)
	}
	if err := json.Unmarshal(raw["tags"], &out.Tags); err != nil {
		return Summary{}, fmt.Errorf("decode tags: %w", err)
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out, nil
}
