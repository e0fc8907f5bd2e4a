package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"ultra-eval/internal/config"
	"ultra-eval/internal/models"
)

const fallbackFeedback = "Evaluation failed. Please resubmit with more significant details."

var imageURLPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif)(\?|$)`)

// EvaluationService grades student reports against the scoring rubric using
// an external reasoning model.
type EvaluationService struct {
	apiKey         string
	baseURL        string
	model          string
	enabled        bool
	attachmentBase string
	client         *http.Client
}

// NewEvaluationService creates a new evaluation service. attachmentBaseURL is
// the public base URL of the attachment store; URLs under it are trusted as
// image evidence even when the object key carries no file extension.
func NewEvaluationService(cfg *config.OpenAIConfig, attachmentBaseURL string) *EvaluationService {
	return &EvaluationService{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		enabled:        cfg.Enabled,
		attachmentBase: strings.TrimRight(attachmentBaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// EvaluationOutcome carries the evaluation plus any non-fatal warnings.
// Warnings is empty for a clean model round-trip; a degraded (zero-value)
// evaluation always carries at least one warning so callers and tests can
// tell it apart from a legitimately low score.
type EvaluationOutcome struct {
	Evaluation models.Evaluation `json:"evaluation"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// Degraded reports whether the outcome is a fallback rather than a real grade.
func (o *EvaluationOutcome) Degraded() bool {
	return len(o.Warnings) > 0
}

// OpenAI chat-completions wire types

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Evaluate grades a report. It never fails: every internal error (missing
// credentials, transport failure, malformed model output) is downgraded to a
// zero-value evaluation with a warning, so the submission pipeline always
// receives a usable result.
func (s *EvaluationService) Evaluate(ctx context.Context, title, description, category string, fileURLs []string) *EvaluationOutcome {
	if !s.enabled {
		return degradedOutcome("evaluation service is disabled")
	}
	if s.apiKey == "" {
		slog.Error("Evaluation skipped: missing model API key")
		return degradedOutcome("missing model API credentials")
	}

	content := []chatContentPart{
		{Type: "text", Text: buildRubricPrompt(title, description, category)},
	}
	for _, url := range fileURLs {
		if s.isImageURL(url) {
			content = append(content, chatContentPart{
				Type:     "image_url",
				ImageURL: &chatImageURL{URL: url},
			})
		}
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a strict, fair achievement evaluator. If a report is garbage or nonsense, award 0 ELO. Otherwise, award 0-100 based on impact.",
			},
			{
				Role:    "user",
				Content: content,
			},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		slog.Error("Failed to marshal evaluation request", "error", err)
		return degradedOutcome("failed to build evaluation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		slog.Error("Failed to build evaluation request", "error", err)
		return degradedOutcome("failed to build evaluation request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("Evaluation model unreachable", "error", err)
		return degradedOutcome("evaluation model unreachable")
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		slog.Error("Evaluation model returned non-200 status", "status", resp.StatusCode, "body", string(bodyBytes))
		return degradedOutcome(fmt.Sprintf("evaluation model returned status %d", resp.StatusCode))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		slog.Error("Failed to decode model response", "error", err)
		return degradedOutcome("malformed model response")
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		slog.Error("Evaluation model returned no content")
		return degradedOutcome("empty model response")
	}

	var evaluation models.Evaluation
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &evaluation); err != nil {
		slog.Error("Failed to parse model grading output", "error", err)
		return degradedOutcome("unparseable model grading output")
	}
	if evaluation.Feedback == "" {
		evaluation.Feedback = "No feedback provided."
	}

	clampEvaluation(&evaluation)

	return &EvaluationOutcome{Evaluation: evaluation}
}

// degradedOutcome returns the zero-value evaluation used whenever grading
// cannot be completed. The caller still treats this as success.
func degradedOutcome(warning string) *EvaluationOutcome {
	return &EvaluationOutcome{
		Evaluation: models.Evaluation{
			EloAwarded:    0,
			Feedback:      fallbackFeedback,
			AnalysisParts: []string{fallbackFeedback},
		},
		Warnings: []string{warning},
	}
}

// clampEvaluation forces all scores into their valid ranges regardless of
// model compliance.
func clampEvaluation(e *models.Evaluation) {
	e.EloAwarded = clamp(e.EloAwarded, 0, 100)
	e.CategoryScore.Impact = clamp(e.CategoryScore.Impact, 0, 10)
	e.CategoryScore.Productivity = clamp(e.CategoryScore.Productivity, 0, 10)
	e.CategoryScore.Quality = clamp(e.CategoryScore.Quality, 0, 10)
	e.CategoryScore.Relevance = clamp(e.CategoryScore.Relevance, 0, 10)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *EvaluationService) isImageURL(url string) bool {
	if imageURLPattern.MatchString(url) {
		return true
	}
	return s.attachmentBase != "" && strings.HasPrefix(url, s.attachmentBase+"/")
}

func buildRubricPrompt(title, description, category string) string {
	var sb strings.Builder
	sb.WriteString("You are a high-level achievement evaluator for Ultra Eval. ")
	sb.WriteString("Your task is to analyze a student's reported accomplishment and assign an ELO score (0-100) based on its objective real-world impact.\n\n")
	sb.WriteString("If there are images attached, ANALYZE THEM carefully as primary evidence.\n\n")

	sb.WriteString("STUDENT REPORT:\n")
	sb.WriteString(fmt.Sprintf("**Title:** %s\n", title))
	sb.WriteString(fmt.Sprintf("**Category:** %s\n", category))
	sb.WriteString(fmt.Sprintf("**Description:** %s\n\n", description))

	sb.WriteString("CRITICAL CONSTRAINTS:\n")
	sb.WriteString("1. **NO EM DASHES**: Do not use the em dash character. Use regular hyphens (-) or colons instead.\n")
	sb.WriteString("2. **DETAIL**: Explain exactly why the ELO was awarded by referencing the scores in Impact, Productivity, Quality, and Relevance. Break it down so the user understands the value of their work.\n")
	sb.WriteString("3. **FORMATTING**: Use clear, concise sentences. NO LABEL PREFIXES like 'Part 1:', 'Insight:', etc. in the list of analysis_parts.\n\n")

	sb.WriteString("GRADING CRITERIA:\n")
	sb.WriteString("1. **Nonsense/Filler Check**: If the report is nonsensical, gibberish, or lacks substance, you MUST award **0 ELO**.\n")
	sb.WriteString("2. **Impact (0-10)**: Real-world effect or problem-solving scale.\n")
	sb.WriteString("3. **Productivity (0-10)**: Discipline and effort demonstrated.\n")
	sb.WriteString("4. **Quality (0-10)**: Complexity and execution.\n")
	sb.WriteString("5. **Relevance (0-10)**: Academic or professional growth alignment.\n\n")

	sb.WriteString("ELO CALCULATION (0-100):\n")
	sb.WriteString("- 0: Nonsense or invalid input.\n")
	sb.WriteString("- 1-30: Minor tasks or daily habits.\n")
	sb.WriteString("- 31-60: Significant projects or local recognition.\n")
	sb.WriteString("- 61-90: High-scale impact or national recognition.\n")
	sb.WriteString("- 91-100: Exceptional, world-class excellence.\n\n")

	sb.WriteString("Provide your response in the following JSON format:\n")
	sb.WriteString(`{
  "elo_awarded": <number 0-100>,
  "feedback": "<concise summary of results>",
  "analysis_parts": [
    "<Specific insight about the achievement (NO LABELS)>",
    "<Breakdown of the impact and complexity (NO LABELS)>",
    "<Professional encouragement and path forward (NO LABELS)>"
  ],
  "category_score": {
    "impact": <number 0-10>,
    "productivity": <number 0-10>,
    "quality": <number 0-10>,
    "relevance": <number 0-10>
  }
}`)
	sb.WriteString("\n(Ensure no em dashes, no italics, and NO LABEL PREFIXES in the text fields)")

	return sb.String()
}
