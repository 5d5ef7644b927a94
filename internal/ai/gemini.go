package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiChatProvider struct {
	apiKey string
}

func (p *geminiChatProvider) Name() string {
	return "gemini"
}

func (p *geminiChatProvider) Complete(ctx context.Context, model string, msgs []Message, opts ChatOptions) (*Completion, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	// Gemini carries the system prompt out of band; fold every system block
	// into the system instruction and keep the conversational turns in order.
	var systemParts []string
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	config := &genai.GenerateContentConfig{}
	if len(systemParts) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}},
		}
	}
	if opts.Temperature != 0 {
		temp := opts.Temperature
		config.Temperature = &temp
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini response is empty")
	}
	out := &Completion{Text: text, Model: model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.PromptTokens = int(usage.PromptTokenCount)
		out.CompletionTokens = int(usage.CandidatesTokenCount)
		out.TotalTokens = int(usage.TotalTokenCount)
	}
	return out, nil
}

type geminiEmbedProvider struct {
	apiKey string
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	var resp *genai.EmbedContentResponse
	err = withRetry(ctx, func() error {
		resp, err = client.Models.EmbedContent(
			ctx,
			model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
			nil,
		)
		return err
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	return resp.Embeddings[0].Values, nil
}

func createGeminiChatFactory(args interface{}) (IChatProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiChatProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func createGeminiEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiEmbedProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func init() {
	Register("gemini", createGeminiChatFactory)
	RegisterEmbed("gemini", createGeminiEmbedFactory)
}
