package tool

import (
	"context"
	"fmt"
)

// ChatCompletionName is the registered name of the structured response tool.
const ChatCompletionName = "create_chat_completion"

const chatCompletionDescription = "Creates a structured completion with specified output formatting."

// ChatCompletion lets the model deliver its final textual answer through the
// tool-calling channel, which keeps agents usable in required tool-choice mode
// even when no side-effecting tool applies.
type ChatCompletion struct{}

// NewChatCompletion constructs the structured response tool.
func NewChatCompletion() *ChatCompletion { return &ChatCompletion{} }

// Name implements Tool.
func (t *ChatCompletion) Name() string { return ChatCompletionName }

// Description implements Tool.
func (t *ChatCompletion) Description() string { return chatCompletionDescription }

// Parameters implements Tool.
func (t *ChatCompletion) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{
				"type":        "string",
				"description": "The response text that should be delivered to the user.",
			},
		},
		"required": []string{"response"},
	}
}

// Execute echoes the response argument back as the tool output.
func (t *ChatCompletion) Execute(ctx context.Context, args map[string]any) (Result, error) {
	response, ok := args["response"].(string)
	if !ok {
		return Result{Output: fmt.Sprintf("%v", args["response"])}, nil
	}
	return Result{Output: response}, nil
}
