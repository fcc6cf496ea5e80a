package sri

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/garyjia/sri-declaraciones/internal/period"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatClient is the subset of the OpenAI client used for period lookup
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// PeriodSource tells how a period was resolved
type PeriodSource string

// Period sources
const (
	PeriodFromHeader PeriodSource = "header"
	PeriodFromText   PeriodSource = "text"
	PeriodFromAI     PeriodSource = "openai"
)

// maxPromptChars bounds the text sent to the model
const maxPromptChars = 4000

var monthYearPattern = regexp.MustCompile(`(?i)\b(ENERO|FEBRERO|MARZO|ABRIL|MAYO|JUNIO|JULIO|AGOSTO|SEPTIEMBRE|SETIEMBRE|OCTUBRE|NOVIEMBRE|DICIEMBRE)\s+(?:DE(?:L)?\s+)?(\d{4})\b`)

// PeriodResolver finds the fiscal period of a declaration
type PeriodResolver struct {
	client      ChatClient
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// PeriodResolverConfig configures the optional OpenAI fallback
type PeriodResolverConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewPeriodResolver creates a resolver. A nil client disables the OpenAI fallback.
func NewPeriodResolver(client ChatClient, cfg PeriodResolverConfig, logger *zap.Logger) *PeriodResolver {
	return &PeriodResolver{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// NewOpenAIClient builds the go-openai client used by the resolver
func NewOpenAIClient(apiKey string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(cfg)
}

// Resolve returns the fiscal period from the parsed header, then from any
// "MES AÑO" occurrence in the text, then from the model when configured.
func (r *PeriodResolver) Resolve(ctx context.Context, header Header, text string) (period.Period, PeriodSource, bool) {
	if header.PeriodoMes != "" && header.PeriodoAnio != "" {
		if p, ok := period.Parse(header.PeriodoMes + " " + header.PeriodoAnio); ok {
			return p, PeriodFromHeader, true
		}
	}

	for _, m := range monthYearPattern.FindAllStringSubmatch(text, -1) {
		if p, ok := period.Parse(m[1] + " " + m[2]); ok {
			return p, PeriodFromText, true
		}
	}

	if r.client == nil {
		return period.Period{}, "", false
	}

	p, err := r.askModel(ctx, text)
	if err != nil {
		r.logger.Warn("OpenAI period lookup failed", zap.Error(err))
		return period.Period{}, "", false
	}
	return p, PeriodFromAI, true
}

type modelPeriod struct {
	Mes  string `json:"mes"`
	Anio string `json:"anio"`
}

func (r *PeriodResolver) askModel(ctx context.Context, text string) (period.Period, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You read Ecuadorian SRI tax declarations. Always respond with valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPeriodPrompt(text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return period.Period{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return period.Period{}, fmt.Errorf("no response from OpenAI")
	}

	var mp modelPeriod
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &mp); err != nil {
		return period.Period{}, fmt.Errorf("failed to parse response: %w", err)
	}

	p, ok := period.Parse(strings.TrimSpace(mp.Mes) + " " + strings.TrimSpace(mp.Anio))
	if !ok {
		return period.Period{}, fmt.Errorf("model returned an invalid period: %q", content)
	}
	return p, nil
}

func buildPeriodPrompt(text string) string {
	if utf8.RuneCountInString(text) > maxPromptChars {
		text = string([]rune(text)[:maxPromptChars])
	}
	return `Find the fiscal period (Período Fiscal) of this declaration.
Return {"mes": "<Spanish month name in upper case>", "anio": "<four digit year>"}.
Use empty strings if the period is not present.

` + text
}
