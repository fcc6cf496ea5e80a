package sri

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestPeriodResolver_FromHeader(t *testing.T) {
	client := new(MockChatClient)
	r := NewPeriodResolver(client, PeriodResolverConfig{Model: "gpt-4o-mini"}, zap.NewNop())

	p, source, ok := r.Resolve(context.Background(), Header{PeriodoMes: "ABRIL", PeriodoAnio: "2025"}, "")

	require.True(t, ok)
	assert.Equal(t, PeriodFromHeader, source)
	assert.Equal(t, 4, p.Month)
	assert.Equal(t, "2025", p.Anio)
	client.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}

func TestPeriodResolver_FromText(t *testing.T) {
	r := NewPeriodResolver(nil, PeriodResolverConfig{}, zap.NewNop())

	p, source, ok := r.Resolve(context.Background(), Header{}, "Declaración correspondiente a diciembre de 2023")

	require.True(t, ok)
	assert.Equal(t, PeriodFromText, source)
	assert.Equal(t, 12, p.Month)
	assert.Equal(t, "DICIEMBRE 2023", p.Label)
}

func TestPeriodResolver_NoClient(t *testing.T) {
	r := NewPeriodResolver(nil, PeriodResolverConfig{}, zap.NewNop())

	_, _, ok := r.Resolve(context.Background(), Header{PeriodoMes: "FOO", PeriodoAnio: "2025"}, "no period")
	assert.False(t, ok)
}

func TestPeriodResolver_FromModel(t *testing.T) {
	client := new(MockChatClient)
	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-4o-mini" && len(req.Messages) == 2
	})).Return(chatResponse(`{"mes": "Julio", "anio": "2024"}`), nil)

	r := NewPeriodResolver(client, PeriodResolverConfig{Model: "gpt-4o-mini", MaxTokens: 50}, zap.NewNop())
	p, source, ok := r.Resolve(context.Background(), Header{}, "texto ilegible")

	require.True(t, ok)
	assert.Equal(t, PeriodFromAI, source)
	assert.Equal(t, 7, p.Month)
	assert.Equal(t, "JULIO", p.Mes)
	client.AssertExpectations(t)
}

func TestPeriodResolver_ModelFailures(t *testing.T) {
	tests := []struct {
		name string
		resp openai.ChatCompletionResponse
		err  error
	}{
		{name: "api error", resp: openai.ChatCompletionResponse{}, err: errors.New("rate limited")},
		{name: "no choices", resp: openai.ChatCompletionResponse{}},
		{name: "invalid json", resp: chatResponse("julio")},
		{name: "empty period", resp: chatResponse(`{"mes": "", "anio": ""}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockChatClient)
			client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			r := NewPeriodResolver(client, PeriodResolverConfig{Model: "m"}, zap.NewNop())
			_, _, ok := r.Resolve(context.Background(), Header{}, "sin periodo")
			assert.False(t, ok)
		})
	}
}
