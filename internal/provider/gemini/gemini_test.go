package gemini

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/provider"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText("方案如下", genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 9, CandidatesTokenCount: 4},
	}, nil
}

func TestClient_Complete(t *testing.T) {
	fake := &fakeModels{}
	c := newWithGenerator(fake, Config{MaxTokens: 256, Temperature: 0.2})

	resp, err := c.Complete(context.Background(), &provider.CompletionRequest{Messages: []provider.Message{
		{Role: provider.RoleSystem, Content: "identity"},
		{Role: provider.RoleAssistant, Content: "earlier"},
		{Role: provider.RoleUser, Content: "question"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "方案如下", resp.Content)
	assert.Equal(t, 4, resp.Usage.OutputTokens)
	assert.Equal(t, defaultModel, fake.model)

	require.Len(t, fake.contents, 2)
	assert.Equal(t, string(genai.RoleModel), fake.contents[0].Role)
	assert.Equal(t, string(genai.RoleUser), fake.contents[1].Role)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "identity", fake.config.SystemInstruction.Parts[0].Text)
	assert.EqualValues(t, 256, fake.config.MaxOutputTokens)
	require.NotNil(t, fake.config.Temperature)
}

func TestClient_ErrorIsRetryable(t *testing.T) {
	c := newWithGenerator(&fakeModels{err: fmt.Errorf("unavailable")}, Config{})
	_, err := c.Complete(context.Background(), &provider.CompletionRequest{Messages: []provider.Message{{Role: "user", Content: "x"}}})
	require.Error(t, err)
	assert.True(t, provider.Retryable(err))
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewClient(context.Background(), Config{})
	assert.Equal(t, brerrors.CodeAPIKeyMissing, brerrors.AsCode(err))
}
