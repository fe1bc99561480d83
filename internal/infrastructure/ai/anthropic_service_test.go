package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`Claro: {"a":1} listo`))
	assert.Equal(t, "", extractJSON("sin json"))
}

func newTestService(t *testing.T, h http.HandlerFunc) *AnthropicService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s := NewAnthropicService("key", "model")
	s.endpoint = srv.URL
	return s
}

func TestSuggestAlertAction(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "SKU: SKU-1")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"` +
			"```json\\n{\\\"suggested_action\\\":\\\"Replenish SKU-1\\\",\\\"confidence_score\\\":1.4,\\\"reasoning\\\":\\\"stock bajo\\\"}\\n```" +
			`"}]}`))
	})

	got, err := s.SuggestAlertAction(context.Background(), &entity.Alert{
		ID: "a1", Type: entity.AlertLowStock, Severity: entity.SeverityCritical, SKU: "SKU-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AlertID)
	assert.Equal(t, "Replenish SKU-1", got.SuggestedAction)
	assert.Equal(t, 1.0, got.ConfidenceScore)
}

func TestSuggestAlertAction_APIError(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"bad key"}}`))
	})
	_, err := s.SuggestAlertAction(context.Background(), &entity.Alert{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication_error")
}

func TestSuggestAlertAction_NoKey(t *testing.T) {
	_, err := NewAnthropicService("", "m").SuggestAlertAction(context.Background(), &entity.Alert{})
	assert.Error(t, err)
}
