package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const openaiProvider = "openai"

// OpenAIConfig defines configuration options for the OpenAI analyzer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAnalyzer scores submissions through the OpenAI chat completion API.
type OpenAIAnalyzer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAnalyzer builds a new analyzer using the provided configuration.
func NewOpenAIAnalyzer(cfg OpenAIConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 768
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/arena-go-api/pkg/analyzer/openai"),
		logger: logger,
	}, nil
}

// Analyze sends the submission to OpenAI and parses the structured score.
func (a *OpenAIAnalyzer) Analyze(parent context.Context, request Request) (Result, error) {
	ctx, span := a.tracer.Start(parent, "analyzer.openai", trace.WithAttributes(
		attribute.String("analyzer.model", a.cfg.Model),
	))
	defer span.End()

	chatRequest := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: analyzerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildAnalyzerPrompt(request),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, chatRequest)
	analyzeDuration.WithLabelValues(openaiProvider).Observe(time.Since(start).Seconds())
	if err != nil {
		analyzeFailures.WithLabelValues(openaiProvider).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("openai analyze: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		analyzeFailures.WithLabelValues(openaiProvider).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseAnalyzerResponse(content, request)
	if err != nil {
		analyzeFailures.WithLabelValues(openaiProvider).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	result.Provider = openaiProvider
	return result, nil
}

func analyzerSystemPrompt() string {
	return "You are an automated competition submission reviewer. Respond with a JSON object containing scores (an array of " +
		"{title, score, reason} entries, one per criterion, each score within that criterion's maximum), summary, strengths, " +
		"weaknesses, improvement_tips, risk_flags, and confidence (0-1). Be strict and consistent."
}

func buildAnalyzerPrompt(request Request) string {
	builder := strings.Builder{}
	builder.WriteString("# Event\n")
	builder.WriteString(request.EventTitle)
	builder.WriteString("\n\n## Round\n")
	builder.WriteString(request.RoundName)
	builder.WriteString("\n\n## Criteria\n")
	for _, criterion := range request.Criteria {
		builder.WriteString(fmt.Sprintf("- %s (max %.0f marks)\n", criterion.Title, criterion.MaxMarks))
	}
	builder.WriteString("\n## Submission Notes\n")
	builder.WriteString(request.NotesText)
	if len(request.Links) > 0 {
		builder.WriteString("\n\n## Linked Material\n")
		builder.WriteString(strings.Join(request.Links, "\n"))
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseAnalyzerResponse(content string, request Request) (Result, error) {
	type scoredCriterion struct {
		Title  string  `json:"title"`
		Score  float64 `json:"score"`
		Reason string  `json:"reason"`
	}
	type payload struct {
		Scores          []scoredCriterion `json:"scores"`
		Summary         string            `json:"summary"`
		Strengths       []string          `json:"strengths"`
		Weaknesses      []string          `json:"weaknesses"`
		ImprovementTips []string          `json:"improvement_tips"`
		RiskFlags       []string          `json:"risk_flags"`
		Confidence      float64           `json:"confidence"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Result{}, fmt.Errorf("parse analyzer json: %w", err)
	}

	byTitle := make(map[string]scoredCriterion, len(data.Scores))
	for _, score := range data.Scores {
		byTitle[strings.ToLower(strings.TrimSpace(score.Title))] = score
	}

	result := Result{
		Summary:         data.Summary,
		Strengths:       data.Strengths,
		Weaknesses:      data.Weaknesses,
		ImprovementTips: data.ImprovementTips,
		RiskFlags:       data.RiskFlags,
		Confidence:      data.Confidence,
	}

	for _, criterion := range request.Criteria {
		scored, ok := byTitle[strings.ToLower(strings.TrimSpace(criterion.Title))]
		if !ok {
			return Result{}, fmt.Errorf("analyzer response missing criterion %q", criterion.Title)
		}
		result.Scores = append(result.Scores, CriterionScore{
			CriterionID: criterion.ID,
			Title:       criterion.Title,
			MaxMarks:    criterion.MaxMarks,
			Score:       scored.Score,
			Reason:      scored.Reason,
		})
	}
	clampScores(&result)

	return result, nil
}
