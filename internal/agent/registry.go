package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared/constant"
)

// ToolDefinition defines a tool callable by the model.
type ToolDefinition struct {
	Name        string
	Description string
	// Parameters is the JSON Schema of the tool's arguments.
	Parameters map[string]any
	// Execute runs the tool and returns the text fed back to the model.
	Execute func(ctx context.Context, args map[string]any) (string, error)
}

// Registry maps tool names to their definitions. Registration is
// validated up front so an unknown or duplicate tool name fails when
// the agent is assembled, not when the model happens to call it.
type Registry struct {
	order []string
	tools map[string]ToolDefinition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolDefinition)}
}

// Register adds a tool definition, rejecting empty names, duplicates
// and nil executors.
func (r *Registry) Register(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	if def.Execute == nil {
		return fmt.Errorf("tool %q has no executor", def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %q registered twice", def.Name)
	}
	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// ToolParams renders the registered tools as Chat Completions function
// schemas, in registration order.
func (r *Registry) ToolParams() []openai.ChatCompletionToolUnionParam {
	if len(r.order) == 0 {
		return nil
	}
	params := make([]openai.ChatCompletionToolUnionParam, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		function := openai.FunctionDefinitionParam{
			Name:       def.Name,
			Parameters: def.Parameters,
		}
		if def.Description != "" {
			function.Description = openai.String(def.Description)
		}
		params = append(params, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: function,
				Type:     constant.ValueOf[constant.Function](),
			},
		})
	}
	return params
}

// Execute dispatches one model-requested call. rawArgs is the JSON
// argument string from the completion. Unknown names and malformed
// arguments are errors; the agent loop reports them back to the model
// as error results rather than failing the conversation.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) (string, error) {
	def, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", fmt.Errorf("tool %q: malformed arguments: %w", name, err)
		}
	}
	return def.Execute(ctx, args)
}
