package agent

import (
	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
)

// Conversation is the message history for one agent session. It is
// owned by the caller and passed by reference into Chat, so state never
// hides inside the agent across calls.
type Conversation struct {
	ID       string
	Messages []openai.ChatCompletionMessageParamUnion
}

// NewConversation returns an empty conversation. A non-empty system
// prompt is installed as the first message.
func NewConversation(system string) *Conversation {
	c := &Conversation{ID: uuid.NewString()}
	if system != "" {
		c.Messages = append(c.Messages, openai.SystemMessage(system))
	}
	return c
}

// Append adds messages to the history.
func (c *Conversation) Append(msgs ...openai.ChatCompletionMessageParamUnion) {
	c.Messages = append(c.Messages, msgs...)
}

// Reset clears the history, keeping the conversation identity.
func (c *Conversation) Reset() {
	c.Messages = nil
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int { return len(c.Messages) }
