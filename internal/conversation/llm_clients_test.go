package conversation

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

type fakeOpenAI struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeOpenAI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

type fakeLangchainModel struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeLangchainModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeLangchainModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func sampleRequest() LLMRequest {
	return LLMRequest{
		System: []string{"persona", "empresa"},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "hola"},
			{Role: ChatRoleAssistant, Content: "¡Hola! ¿En qué te ayudo?"},
			{Role: ChatRoleUser, Content: "¿abren el domingo?"},
		},
		MaxTokens:   500,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

func TestOpenAIClientMapsRequest(t *testing.T) {
	api := &fakeOpenAI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Content: "  Sí, de 9 a 3.  "},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 40, CompletionTokens: 8, TotalTokens: 48},
	}}
	client := newOpenAILLMClientWithAPI(api, "gpt-4o-mini")

	resp, err := client.Complete(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "Sí, de 9 a 3.", resp.Text)
	assert.Equal(t, int32(48), resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", api.req.Model)
	require.Len(t, api.req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, api.req.Messages[0].Role)
	assert.Equal(t, "persona\n\nempresa", api.req.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, api.req.Messages[2].Role)
	assert.Equal(t, 500, api.req.MaxTokens)
}

func TestOpenAIClientNoChoices(t *testing.T) {
	client := newOpenAILLMClientWithAPI(&fakeOpenAI{}, "m")
	_, err := client.Complete(context.Background(), sampleRequest())
	assert.Error(t, err)
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAILLMClient(" ", "", "m")
	assert.Error(t, err)
}

func TestOllamaClientMapsRoles(t *testing.T) {
	model := &fakeLangchainModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "<think>x</think>Sí abrimos.", StopReason: "stop"}},
	}}
	client := NewOllamaLLMClientWithModel(model)

	resp, err := client.Complete(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "<think>x</think>Sí abrimos.", resp.Text)
	require.Len(t, model.messages, 5)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[2].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, model.messages[3].Role)
}

func TestOllamaClientPropagatesError(t *testing.T) {
	client := NewOllamaLLMClientWithModel(&fakeLangchainModel{err: errors.New("model not loaded")})
	_, err := client.Complete(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestFallbackClientUsesSecondaryOnError(t *testing.T) {
	primary := &stubLLM{err: errors.New("down")}
	secondary := &stubLLM{reply: "respuesta"}
	client := NewFallbackLLMClient(primary, secondary, logging.Discard())

	resp, err := client.Complete(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "respuesta", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, "stub+stub", client.Name())
}

func TestFallbackClientWithoutSecondaryReturnsError(t *testing.T) {
	client := NewFallbackLLMClient(&stubLLM{err: errors.New("down")}, nil, logging.Discard())
	_, err := client.Complete(context.Background(), sampleRequest())
	assert.Error(t, err)
	assert.Equal(t, "stub", client.Name())
}
