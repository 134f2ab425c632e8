// Package orchestrator drives one question end to end: retrieve
// context, build the grounded prompt, call the model, run at most one
// tool round-trip, and return the final answer with its sources.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"genia/assistant/contract"
	"genia/assistant/prompt"
	"genia/assistant/tool"
)

// DefaultTopK is how many context snippets a question retrieves.
const DefaultTopK = 5

// summarizeInstruction is the second user turn of a tool round-trip.
const summarizeInstruction = "Summarize the tool result for the user."

// Tools executes one structured tool invocation.
type Tools interface {
	Dispatch(ctx context.Context, owner string, req contract.TodoRequest) (tool.Result, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithTopK overrides the retrieval depth. Non-positive values keep the
// default.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

type Service struct {
	embedder  contract.Embedder
	retriever contract.Retriever
	model     contract.ChatModel
	tools     Tools
	topK      int
}

func New(
	embedder contract.Embedder,
	retriever contract.Retriever,
	model contract.ChatModel,
	tools Tools,
	opts ...Option,
) (*Service, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	if tools == nil {
		return nil, errors.New("tool dispatcher is required")
	}

	s := &Service{
		embedder:  embedder,
		retriever: retriever,
		model:     model,
		tools:     tools,
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Answer resolves one question for owner. Upstream model or retrieval
// errors fault; an empty answer string means the model produced no
// usable text and is not an error.
func (s *Service) Answer(ctx context.Context, owner string, question string) (contract.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return contract.Answer{}, fmt.Errorf("%w: question is empty", contract.ErrValidation)
	}

	chunks, sources, err := s.retrieve(ctx, question)
	if err != nil {
		return contract.Answer{}, err
	}

	conversation := []contract.Message{{
		Role:    contract.RoleUser,
		Content: s.groundedPrompt(question, chunks),
	}}

	response, err := s.model.Generate(ctx, conversation)
	if err != nil {
		return contract.Answer{}, fmt.Errorf("%w: %v", contract.ErrModelInvoke, err)
	}

	final := response.Text
	if call := response.ToolCall; call != nil && call.Name == tool.Name {
		final, err = s.toolRoundTrip(ctx, owner, conversation, call)
		if err != nil {
			return contract.Answer{}, err
		}
	}

	return contract.Answer{Answer: final, Sources: sources}, nil
}

// toolRoundTrip executes the requested invocation and folds its result
// into a second model call. The conversation grows by exactly two
// turns: the tool result and the summarize instruction. A further tool
// call in the follow-up response is deliberately not executed.
func (s *Service) toolRoundTrip(
	ctx context.Context,
	owner string,
	conversation []contract.Message,
	call *contract.ToolCall,
) (string, error) {
	result, err := s.execute(ctx, owner, call)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}

	conversation = append(conversation,
		contract.Message{
			Role:     contract.RoleTool,
			Content:  string(payload),
			ToolCall: call,
		},
		contract.Message{
			Role:    contract.RoleUser,
			Content: summarizeInstruction,
		},
	)

	followUp, err := s.model.Generate(ctx, conversation)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contract.ErrModelInvoke, err)
	}
	if followUp.ToolCall != nil {
		log.Debug().Str("tool", followUp.ToolCall.Name).Msg("ignoring tool call in follow-up response")
	}
	return followUp.Text, nil
}

// execute parses the call's arguments and dispatches. Malformed
// arguments become tool-result data so the model can explain them;
// only a dispatch fault is an error.
func (s *Service) execute(ctx context.Context, owner string, call *contract.ToolCall) (tool.Result, error) {
	var req contract.TodoRequest
	if err := json.Unmarshal([]byte(call.Arguments), &req); err != nil {
		return tool.Result{Error: fmt.Sprintf("invalid tool arguments: %v", err)}, nil
	}

	result, err := s.tools.Dispatch(ctx, owner, req)
	if err != nil {
		return tool.Result{}, fmt.Errorf("dispatch %s: %w", call.Name, err)
	}
	return result, nil
}

func (s *Service) retrieve(ctx context.Context, question string) ([]contract.RetrievedChunk, []string, error) {
	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: embed question: %v", contract.ErrRetrieval, err)
	}
	if len(vectors) == 0 {
		return nil, nil, fmt.Errorf("%w: embedder returned no vector", contract.ErrRetrieval)
	}

	chunks, err := s.retriever.Query(ctx, vectors[0], s.topK)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", contract.ErrRetrieval, err)
	}

	sources := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		sources = append(sources, chunk.Source)
	}
	return chunks, sources, nil
}

// groundedPrompt renders the single user turn: system directive, tool
// capability note, the ranked context block, and the literal question.
func (s *Service) groundedPrompt(question string, chunks []contract.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString(prompt.System())
	b.WriteString("\n\nYou have access to a todo_tool that can:\n- add tasks\n- list tasks\n- complete tasks\n- delete tasks\n")

	b.WriteString("\nContext:\n")
	for i, chunk := range chunks {
		source := chunk.Source
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&b, "[%d] (%s) %s\n\n", i+1, source, chunk.Content)
	}

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
