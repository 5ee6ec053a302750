// Package gemini adapts the Google GenAI SDK to provider.Provider.
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/provider"
)

const defaultModel = "gemini-2.5-flash"

// generator is the slice of genai.Models the adapter uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the adapter.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client implements provider.Provider over genai.
type Client struct {
	models generator
	cfg    Config
}

// NewClient creates a GenAI client. The key falls back to GEMINI_API_KEY.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, brerrors.New(brerrors.CodeAPIKeyMissing, "GEMINI_API_KEY not set").
			WithSuggestion("Set GEMINI_API_KEY or add provider.api_key to brains.yaml")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, brerrors.Wrap(brerrors.CodeProviderUnavailable, "failed to create genai client", err)
	}
	return newWithGenerator(gc.Models, cfg), nil
}

func newWithGenerator(g generator, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Client{models: g, cfg: cfg}
}

func (c *Client) Name() string { return "gemini" }

// Complete maps system fragments to SystemInstruction and assistant turns to
// the model role.
func (c *Client) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.Response, error) {
	system, dialogue := provider.SplitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(dialogue))
	for _, m := range dialogue {
		var role genai.Role = genai.RoleUser
		if m.Role == provider.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	gcfg := &genai.GenerateContentConfig{}
	if system != "" {
		gcfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	temp := req.Temperature
	if temp == 0 {
		temp = c.cfg.Temperature
	}
	if temp > 0 {
		gcfg.Temperature = genai.Ptr(float32(temp))
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens > 0 {
		gcfg.MaxOutputTokens = int32(maxTokens)
	}

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	resp, err := c.models.GenerateContent(ctx, model, contents, gcfg)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	out := &provider.Response{Content: resp.Text()}
	if len(resp.Candidates) > 0 {
		out.StopReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}
