package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"bizinsight/internal/errors"
	"bizinsight/ports"
)

const serviceName = "openai"

// Config configures the chat-completion client. The key is supplied by the caller.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds one completion call; zero leaves the call unbounded.
	Timeout time.Duration
}

// OpenAIClient implements ports.LLMClient on top of langchaingo's OpenAI model
type OpenAIClient struct {
	model   llms.Model
	timeout time.Duration
}

// NewOpenAIClient builds a client. A blank key yields a MissingCredential error.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.MissingCredential()
	}
	if strings.TrimSpace(config.Model) == "" {
		return nil, errors.ConfigInvalid("missing model")
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if baseURL := strings.TrimSpace(config.BaseURL); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OpenAI client")
	}
	return &OpenAIClient{model: model, timeout: config.Timeout}, nil
}

// ChatCompletion sends the messages and returns the first choice's text unmodified
func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", errors.InvalidInput("no messages to send")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content)
	if err != nil {
		return "", errors.ExternalServiceError(serviceName, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.ExternalServiceError(serviceName, fmt.Errorf("response missing choices"))
	}
	return resp.Choices[0].Content, nil
}

func messageType(role string) schema.ChatMessageType {
	switch role {
	case ports.RoleSystem:
		return schema.ChatMessageTypeSystem
	case "assistant":
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

// MockLLMClient is a canned LLM client for tests and offline runs
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors

	mu    sync.Mutex
	calls [][]ports.ChatMessage
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "Revenue is concentrated in a few categories and trends upward over the period.", nil
}

// Calls returns the message sets received so far
func (m *MockLLMClient) Calls() [][]ports.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]ports.ChatMessage(nil), m.calls...)
}
