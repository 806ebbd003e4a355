// Package agent runs an LLM function-calling loop over registered MCP
// tool clients: the model decides which tools to invoke, the agent
// executes them and feeds results back until the model produces a
// final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
)

// ErrIterationLimit reports that the loop hit its round cap before the
// model produced a final answer. Chat still returns a usable
// could-not-complete message alongside it.
var ErrIterationLimit = errors.New("agent iteration limit reached")

// limitMessage is the degraded answer returned when the cap is hit.
const limitMessage = "Maximum iterations reached. Please try rephrasing your question."

// DefaultMaxIterations caps completion rounds per Chat call.
const DefaultMaxIterations = 5

// Options configure an Agent.
type Options struct {
	// APIKey authenticates against the completion endpoint. Required;
	// checked before any network call.
	APIKey string
	// BaseURL overrides the endpoint, e.g. for a local proxy.
	BaseURL string
	// Model is the completion model identifier.
	Model string
	// MaxIterations caps completion rounds per Chat call; zero means
	// DefaultMaxIterations.
	MaxIterations int
	Log           zerolog.Logger
}

// Agent drives conversations through a function-calling completion
// endpoint, dispatching requested tool calls via its registry.
type Agent struct {
	llm           openai.Client
	model         string
	registry      *Registry
	maxIterations int
	log           zerolog.Logger
}

// New builds an agent over the given tool registry. A missing API key
// is rejected here so misconfiguration surfaces at startup, not on the
// first model response.
func New(registry *Registry, opts Options) (*Agent, error) {
	if opts.APIKey == "" {
		return nil, errors.New("LLM API key is required: set OPENAI_API_KEY")
	}
	if opts.Model == "" {
		return nil, errors.New("LLM model is required")
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Agent{
		llm:           openai.NewClient(reqOpts...),
		model:         opts.Model,
		registry:      registry,
		maxIterations: maxIterations,
		log:           opts.Log.With().Str("component", "agent").Logger(),
	}, nil
}

// Chat appends userMessage to the conversation and runs completion
// rounds until the model answers without tool calls, or the iteration
// cap forces termination with ErrIterationLimit.
//
// A failed tool call is reported to the model as an error result and
// never retried here; the model decides whether to retry, rephrase or
// give up.
func (a *Agent) Chat(ctx context.Context, conv *Conversation, userMessage string) (string, error) {
	conv.Append(openai.UserMessage(userMessage))

	for round := 1; round <= a.maxIterations; round++ {
		a.log.Debug().Str("conversation", conv.ID).Int("round", round).Int("messages", conv.Len()).Msg("completion round")

		resp, err := a.llm.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    a.model,
			Messages: conv.Messages,
			Tools:    a.registry.ToolParams(),
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		assistant := msg.ToAssistantMessageParam()
		conv.Append(openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

		if len(msg.ToolCalls) == 0 {
			if msg.Content == "" {
				return "No response generated", nil
			}
			return msg.Content, nil
		}

		for _, call := range msg.ToolCalls {
			name := strings.TrimSpace(call.Function.Name)
			a.log.Info().Str("conversation", conv.ID).Str("tool", name).Msg("executing tool call")

			result, execErr := a.registry.Execute(ctx, name, call.Function.Arguments)
			if execErr != nil {
				a.log.Warn().Err(execErr).Str("tool", name).Msg("tool call failed")
				result = "Error: " + execErr.Error()
			}
			conv.Append(openai.ToolMessage(result, call.ID))
		}
	}

	a.log.Warn().Str("conversation", conv.ID).Int("max_iterations", a.maxIterations).Msg("iteration cap reached")
	return limitMessage, ErrIterationLimit
}
