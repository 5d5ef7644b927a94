package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged block of a chat prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the provider's answer plus its token accounting.
type Completion struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

type ChatOptions struct {
	Temperature float32
}

type IChatProvider interface {
	Name() string
	Complete(ctx context.Context, model string, msgs []Message, opts ChatOptions) (*Completion, error)
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string) ([]float32, error)
}

// ICompleter is a chat provider bound to one model and option set.
type ICompleter interface {
	Complete(ctx context.Context, msgs []Message) (*Completion, error)
	ModelName() string
}

// IEmbedder is an embed provider bound to one model.
type IEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

type completer struct {
	provider IChatProvider
	model    string
	opts     ChatOptions
}

func NewCompleter(p IChatProvider, model string, opts ChatOptions) ICompleter {
	return &completer{provider: p, model: model, opts: opts}
}

func (c *completer) Complete(ctx context.Context, msgs []Message) (*Completion, error) {
	return c.provider.Complete(ctx, c.model, msgs, c.opts)
}

func (c *completer) ModelName() string {
	return c.model
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ChatFactory func(args interface{}) (IChatProvider, error)
type EmbedFactory func(args interface{}) (IEmbedProvider, error)

var (
	chatRegistry  = map[string]ChatFactory{}
	embedRegistry = map[string]EmbedFactory{}
)

func Register(name string, factory ChatFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	chatRegistry[key] = factory
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewChatProvider(name string, args interface{}) (IChatProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.chat provider is required")
	}
	factory := chatRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported chat provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.embed provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
