package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Ensure GeminiScorer implements Scorer
var _ Scorer = (*GeminiScorer)(nil)

const maxContentLength = 2000

const scoringPrompt = `You are an AI content quality evaluator for a micro-tipping platform called MNEE-Pulse.

Evaluate the following content and provide a quality score from 1-10 based on these criteria:
- Originality and creativity (1-3 points)
- Value to community (1-3 points)
- Effort and quality (1-2 points)
- Engagement potential (1-2 points)

Content to evaluate:
"""
%s
"""

Respond in this exact JSON format only, no other text:
{
  "score": <number 1-10>,
  "summary": "<brief 10-word summary of content>",
  "reason": "<1 sentence why this score>"
}`

// GeminiScorer scores content with the Gemini API. It is constructed once at
// startup and injected; there are no lazy global clients. Without an API key
// it serves a fixed demo evaluation so the rest of the relay stays usable.
type GeminiScorer struct {
	client *genai.Client
	model  string
}

// NewGemini creates a scorer for the given model. An empty API key yields a
// scorer running in demo mode.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiScorer, error) {
	if apiKey == "" {
		return &GeminiScorer{model: model}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiScorer{client: client, model: model}, nil
}

// Score evaluates content. Model failures degrade to a conservative
// non-qualifying evaluation rather than an error.
func (s *GeminiScorer) Score(ctx context.Context, content string) *Evaluation {
	if s.client == nil {
		return &Evaluation{
			Score:     8,
			Summary:   "Demo content evaluation",
			Reason:    "Gemini API key not configured - using demo score",
			Qualified: true,
		}
	}

	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(scoringPrompt, content)},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		slog.Warn("Content scoring failed, applying degraded score", "error", err)
		return degradedEvaluation()
	}

	eval, err := parseEvaluation(resp.Text())
	if err != nil {
		slog.Warn("Content scoring returned unparseable response", "error", err)
		return degradedEvaluation()
	}
	return eval
}

// Status probes the model with a trivial generation.
func (s *GeminiScorer) Status(ctx context.Context) *Status {
	if s.client == nil {
		return &Status{Available: false, Error: "GEMINI_API_KEY not set"}
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(`Say "OK" only`), nil)
	if err != nil {
		return &Status{Available: false, Model: s.model, Error: err.Error()}
	}
	return &Status{Available: resp.Text() != "", Model: s.model}
}

func degradedEvaluation() *Evaluation {
	return &Evaluation{
		Score:     6,
		Summary:   "Evaluation pending",
		Reason:    "AI temporarily unavailable - default score applied",
		Qualified: false,
	}
}

// parseEvaluation extracts the JSON object from the model output, tolerating
// markdown fences and surrounding prose.
func parseEvaluation(raw string) (*Evaluation, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var parsed struct {
		Score   float64 `json:"score"`
		Summary string  `json:"summary"`
		Reason  string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %w", err)
	}

	score := int(parsed.Score)
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	summary := parsed.Summary
	if summary == "" {
		summary = "Content evaluated"
	}
	reason := parsed.Reason
	if reason == "" {
		reason = "AI evaluation complete"
	}

	return &Evaluation{
		Score:     score,
		Summary:   summary,
		Reason:    reason,
		Qualified: score >= QualifyingScore,
	}, nil
}
