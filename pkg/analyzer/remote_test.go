package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRemoteAnalyzerRequiresBaseURL(t *testing.T) {
	_, err := NewRemoteAnalyzer(RemoteConfig{})
	require.Error(t, err)
}

func TestRemoteAnalyzerParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze-submission", r.URL.Path)

		var payload remoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Criteria, 1)

		json.NewEncoder(w).Encode(remoteResponse{
			Total: 72,
			Scores: []CriterionScore{
				{CriterionID: 1, Title: "Overall", MaxMarks: 100, Score: 72},
			},
			Summary:    "Well built",
			Confidence: 0.9,
		})
	}))
	defer server.Close()

	client, err := NewRemoteAnalyzer(RemoteConfig{
		BaseURL: server.URL,
		Timeout: time.Second,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	result, err := client.Analyze(context.Background(), Request{
		NotesText: "Routing engine",
		Criteria:  []CriterionSpec{{ID: 1, Title: "Overall", MaxMarks: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, "remote", result.Provider)
	require.InDelta(t, 72, result.Total, 1e-9)
	require.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestRemoteAnalyzerClampsScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(remoteResponse{
			Total: 500,
			Scores: []CriterionScore{
				{CriterionID: 1, Title: "Overall", MaxMarks: 100, Score: 500},
			},
		})
	}))
	defer server.Close()

	client, err := NewRemoteAnalyzer(RemoteConfig{BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	result, err := client.Analyze(context.Background(), Request{
		Criteria: []CriterionSpec{{ID: 1, Title: "Overall", MaxMarks: 100}},
	})
	require.NoError(t, err)
	require.InDelta(t, 100, result.Total, 1e-9)
}

func TestRemoteAnalyzerSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewRemoteAnalyzer(RemoteConfig{BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), Request{})
	require.Error(t, err)
}
