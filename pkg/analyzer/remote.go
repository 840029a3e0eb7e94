package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const remoteProvider = "remote"

// RemoteConfig configures the HTTP analyzer client.
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// RemoteAnalyzer calls an external analysis service over HTTP.
type RemoteAnalyzer struct {
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewRemoteAnalyzer builds a client for the external analyzer service.
func NewRemoteAnalyzer(cfg RemoteConfig) (*RemoteAnalyzer, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("analyzer service url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &RemoteAnalyzer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("github.com/noah-isme/arena-go-api/pkg/analyzer/remote"),
		logger:  cfg.Logger.With().Str("component", "remote_analyzer").Logger(),
	}, nil
}

type remoteRequest struct {
	NotesText     string          `json:"notes_text"`
	ExtractedText string          `json:"extracted_text"`
	Links         []string        `json:"links"`
	Criteria      []CriterionSpec `json:"criteria"`
}

type remoteResponse struct {
	Total           float64          `json:"total"`
	Scores          []CriterionScore `json:"scores"`
	Summary         string           `json:"summary"`
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	ImprovementTips []string         `json:"improvement_tips"`
	RiskFlags       []string         `json:"risk_flags"`
	Confidence      float64          `json:"confidence"`
}

// Analyze posts the submission content to the analyzer service and parses
// its structured score.
func (a *RemoteAnalyzer) Analyze(parent context.Context, request Request) (Result, error) {
	ctx, span := a.tracer.Start(parent, "analyzer.remote", trace.WithAttributes(
		attribute.String("analyzer.provider", remoteProvider),
		attribute.Int("analyzer.criteria", len(request.Criteria)),
	))
	defer span.End()

	payload := remoteRequest{
		NotesText:     request.NotesText,
		ExtractedText: fmt.Sprintf("Links provided: %s", strings.Join(request.Links, ", ")),
		Links:         request.Links,
		Criteria:      request.Criteria,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode analyzer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze-submission", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build analyzer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	analyzeDuration.WithLabelValues(remoteProvider).Observe(time.Since(start).Seconds())
	if err != nil {
		analyzeFailures.WithLabelValues(remoteProvider).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("analyzer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		analyzeFailures.WithLabelValues(remoteProvider).Inc()
		err := fmt.Errorf("analyzer returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		analyzeFailures.WithLabelValues(remoteProvider).Inc()
		return Result{}, fmt.Errorf("read analyzer response: %w", err)
	}

	var decoded remoteResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		analyzeFailures.WithLabelValues(remoteProvider).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("parse analyzer response: %w", err)
	}

	result := Result{
		Total:           decoded.Total,
		Scores:          decoded.Scores,
		Summary:         decoded.Summary,
		Strengths:       decoded.Strengths,
		Weaknesses:      decoded.Weaknesses,
		ImprovementTips: decoded.ImprovementTips,
		RiskFlags:       decoded.RiskFlags,
		Confidence:      decoded.Confidence,
		Provider:        remoteProvider,
	}
	clampScores(&result)

	return result, nil
}
