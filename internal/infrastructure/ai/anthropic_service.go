package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que AnthropicService implementa LLMService.
var _ ports.LLMService = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	anthropicSystemPrompt = `Eres un analista de operaciones de almacén (WMS) especializado en inventario y slotting.
Recibes una alerta generada a partir de un snapshot de inventario.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin bloques de código` + " ```json" + `) con esta estructura exacta:
{
  "suggested_action": "<acción operativa concreta, en inglés, máximo 160 caracteres>",
  "confidence_score": <número decimal entre 0.0 y 1.0>,
  "reasoning": "<explicación concisa en español, máximo 200 caracteres>"
}

Reglas:
- suggested_action: verbo en imperativo (Replenish, Consolidate, Review, Cycle count...) con SKU y ubicación si aplican.
- confidence_score: 0.9–1.0 = alta certeza, 0.7–0.89 = probable, <0.7 = estimado.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`
)

// AnthropicService adaptador que implementa LLMService usando la API REST de Anthropic (Claude).
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type AnthropicService struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador.
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicService(apiKey, model string) *AnthropicService {
	return &AnthropicService{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicMessagesURL,
		httpClient: &http.Client{
			// Timeout de red de 25 s; el use case impone además un context.WithTimeout de 10 s.
			Timeout: 25 * time.Second,
		},
	}
}

// Enabled indica si hay API key configurada.
func (s *AnthropicService) Enabled() bool { return s.apiKey != "" }

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type llmInsightPayload struct {
	SuggestedAction string  `json:"suggested_action"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reasoning       string  `json:"reasoning"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque Claude lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Implementación del puerto ─────────────────────────────────────────────────

// SuggestAlertAction envía la alerta a Claude y devuelve la acción sugerida.
func (s *AnthropicService) SuggestAlertAction(ctx context.Context, alert *entity.Alert) (*dto.AlertInsightDTO, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 512,
		System:    anthropicSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: alertPrompt(alert)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("AI: leer respuesta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return nil, fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}
	if len(anthResp.Content) == 0 {
		return nil, fmt.Errorf("AI: Claude devolvió respuesta vacía")
	}

	rawText := anthResp.Content[0].Text
	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}

	var insight llmInsightPayload
	if err := json.Unmarshal([]byte(cleanJSON), &insight); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de sugerencia: %w (JSON extraído: %s)", err, cleanJSON)
	}
	if strings.TrimSpace(insight.SuggestedAction) == "" {
		return nil, fmt.Errorf("AI: el modelo no devolvió suggested_action")
	}

	confidence := insight.ConfidenceScore
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return &dto.AlertInsightDTO{
		AlertID:         alert.ID,
		SuggestedAction: strings.TrimSpace(insight.SuggestedAction),
		Reasoning:       insight.Reasoning,
		ConfidenceScore: confidence,
	}, nil
}

func alertPrompt(a *entity.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tipo: %s\nSeveridad: %s\nTítulo: %s\nMensaje: %s\n", a.Type, a.Severity, a.Title, a.Message)
	if a.SKU != "" {
		fmt.Fprintf(&b, "SKU: %s\n", a.SKU)
	}
	if a.LocationCode != "" {
		fmt.Fprintf(&b, "Ubicación: %s\n", a.LocationCode)
	}
	return b.String()
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre:
// primero quita un bloque markdown ``` si existe y luego busca { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}
