package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiConfig selects the backend: an APIKey uses the Gemini API, otherwise Project and
// Location select Vertex AI.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
	Model    string
}

// GeminiSummarizer asks Gemini for a summary and falls back on any failure.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
	log    logrus.FieldLogger
}

// NewGeminiSummarizer never fails: a client that cannot be built leaves the summarizer in
// fallback-only mode, mirroring a backend that keeps serving without AI.
func NewGeminiSummarizer(ctx context.Context, cfg GeminiConfig, logger logrus.FieldLogger) *GeminiSummarizer {
	log := logger.WithField("component", "summarizer")
	s := &GeminiSummarizer{model: cfg.Model, log: log}

	var cc *genai.ClientConfig
	switch {
	case strings.TrimSpace(cfg.APIKey) != "":
		cc = &genai.ClientConfig{APIKey: strings.TrimSpace(cfg.APIKey), Backend: genai.BackendGeminiAPI}
	case cfg.Project != "":
		cc = &genai.ClientConfig{Project: cfg.Project, Location: cfg.Location, Backend: genai.BackendVertexAI}
	default:
		log.Warn("No Gemini credentials configured, summaries use the fallback")
		return s
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		log.WithError(err).Warn("GenAI init failed, summaries use the fallback")
		return s
	}
	s.client = client
	return s
}

// Summarize never returns an error to its caller; failures are logged and replaced by Fallback.
func (s *GeminiSummarizer) Summarize(ctx context.Context, title, content string) (Summary, error) {
	out, err := s.generate(ctx, title, content)
	if err != nil {
		s.log.WithError(err).WithField("title", title).Warn("Gemini summary failed")
		return Fallback(title), nil
	}
	return out, nil
}

func (s *GeminiSummarizer) generate(ctx context.Context, title, content string) (Summary, error) {
	if s.client == nil {
		return Summary{}, ErrUnavailable
	}
	resp, err := s.client.Models.GenerateContent(
		ctx,
		s.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: buildPrompt(title, content)}}}},
		nil,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("generate content: %w", err)
	}
	return parseSummary(resp.Text())
}
