// Package openaix adapts the OpenAI SDK to the assistant's ChatModel
// and Embedder contracts. The base URL is configurable, so any
// OpenAI-compatible endpoint (OpenRouter included) works unchanged.
package openaix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"genia/assistant/contract"
)

type Config struct {
	BaseURL        string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey         string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	ChatModel      string        `envconfig:"CHAT_MODEL" split_words:"true" default:"gpt-4o-mini"`
	EmbeddingModel string        `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-3-small"`
	Temperature    float64       `envconfig:"TEMPERATURE" split_words:"true" default:"-1"`
	Timeout        time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

// NewClient builds an SDK client from cfg.
func NewClient(cfg Config) (*openaisdk.Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	client := openaisdk.NewClient(opts...)
	return &client, nil
}

// ChatModel is a contract.ChatModel over chat completions with the
// given tool declarations bound at construction.
type ChatModel struct {
	client      *openaisdk.Client
	model       string
	temperature float64
	tools       []openaisdk.ChatCompletionToolParam
}

var _ contract.ChatModel = (*ChatModel)(nil)

func NewChatModel(client *openaisdk.Client, cfg Config, tools ...contract.ToolDefinition) (*ChatModel, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	model := strings.TrimSpace(cfg.ChatModel)
	if model == "" {
		return nil, errors.New("chat model name is required")
	}

	bound := make([]openaisdk.ChatCompletionToolParam, 0, len(tools))
	for _, def := range tools {
		bound = append(bound, openaisdk.ChatCompletionToolParam{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openaisdk.String(def.Description),
				Parameters:  openaisdk.FunctionParameters(def.Parameters),
			},
		})
	}

	return &ChatModel{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		tools:       bound,
	}, nil
}

func (m *ChatModel) Generate(ctx context.Context, msgs []contract.Message) (contract.ModelResponse, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(m.model),
		Messages: toWire(msgs),
	}
	if len(m.tools) > 0 {
		params.Tools = m.tools
	}
	if m.temperature >= 0 {
		params.Temperature = openaisdk.Float(m.temperature)
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contract.ModelResponse{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return contract.ModelResponse{}, nil
	}

	message := completion.Choices[0].Message
	response := contract.ModelResponse{Text: message.Content}
	if len(message.ToolCalls) > 0 {
		call := message.ToolCalls[0]
		response.ToolCall = &contract.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return response, nil
}

// toWire maps conversation turns onto SDK message unions. A RoleTool
// turn expands into the assistant echo of the originating call followed
// by the tool result, which is how the wire protocol expects a
// function-call round-trip to be replayed.
func toWire(msgs []contract.Message) []openaisdk.ChatCompletionMessageParamUnion {
	wire := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	for _, msg := range msgs {
		switch msg.Role {
		case contract.RoleTool:
			if msg.ToolCall != nil {
				wire = append(wire, assistantToolCallEcho(msg.ToolCall))
				wire = append(wire, openaisdk.ToolMessage(msg.Content, msg.ToolCall.ID))
			}
		case contract.RoleAssistant:
			wire = append(wire, openaisdk.AssistantMessage(msg.Content))
		default:
			wire = append(wire, openaisdk.UserMessage(msg.Content))
		}
	}
	return wire
}

func assistantToolCallEcho(call *contract.ToolCall) openaisdk.ChatCompletionMessageParamUnion {
	return openaisdk.ChatCompletionMessageParamUnion{
		OfAssistant: &openaisdk.ChatCompletionAssistantMessageParam{
			ToolCalls: []openaisdk.ChatCompletionMessageToolCallParam{{
				ID: call.ID,
				Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			}},
		},
	}
}

// Embedder is a contract.Embedder over the embeddings endpoint.
type Embedder struct {
	client *openaisdk.Client
	model  string
}

var _ contract.Embedder = (*Embedder)(nil)

func NewEmbedder(client *openaisdk.Client, cfg Config) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	model := strings.TrimSpace(cfg.EmbeddingModel)
	if model == "" {
		return nil, errors.New("embedding model name is required")
	}
	return &Embedder{client: client, model: model}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	response, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Data))
	}

	vectors := make([][]float32, len(response.Data))
	for i, item := range response.Data {
		vector := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vector[j] = float32(v)
		}
		vectors[i] = vector
	}
	return vectors, nil
}
