package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/pondside/parley/internal/request"
)

// stubModel plays back a canned response, optionally streaming it in
// two chunks first.
type stubModel struct {
	response string
	stream   bool
	err      error
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.stream {
		opts := llms.CallOptions{}
		for _, o := range options {
			o(&opts)
		}
		if opts.StreamingFunc != nil {
			half := len(s.response) / 2
			if err := opts.StreamingFunc(ctx, []byte(s.response[:half])); err != nil {
				return nil, err
			}
			if err := opts.StreamingFunc(ctx, []byte(s.response[half:])); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.response}},
	}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return s.response, s.err
}

func TestTranslate_ExtractsSQL(t *testing.T) {
	response := "```sql\nSELECT name FROM users LIMIT 5\n```\nLists five user names."
	tr := &Translator{model: &stubModel{response: response, stream: true}, name: "test-model"}

	var phases []request.Phase
	var streamed string
	got, err := tr.Translate(context.Background(), "who are my users?", "CREATE TABLE users (name TEXT);", Hooks{
		Phase: func(p request.Phase) { phases = append(phases, p) },
		Chunk: func(c string) { streamed += c },
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT name FROM users LIMIT 5", got.SQL)
	assert.Equal(t, response, got.Commentary)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, response, streamed, "every chunk must reach the hook")
	assert.Equal(t, []request.Phase{
		request.PhaseLLMThinking,
		request.PhaseLLMStreaming,
		request.PhaseProcessing,
	}, phases)
}

func TestTranslate_NoStreamSkipsStreamingPhase(t *testing.T) {
	tr := &Translator{model: &stubModel{response: "```sql\nSELECT 1\n```"}, name: "m"}

	var phases []request.Phase
	_, err := tr.Translate(context.Background(), "q", "", Hooks{
		Phase: func(p request.Phase) { phases = append(phases, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, []request.Phase{request.PhaseLLMThinking, request.PhaseProcessing}, phases)
}

func TestTranslate_NoSQL(t *testing.T) {
	tr := &Translator{model: &stubModel{response: "I do not know."}, name: "m"}

	_, err := tr.Translate(context.Background(), "q", "", Hooks{})
	assert.ErrorIs(t, err, ErrNoSQL)
}

func TestTranslate_ModelError(t *testing.T) {
	boom := errors.New("connection refused")
	tr := &Translator{model: &stubModel{err: boom}, name: "m"}

	_, err := tr.Translate(context.Background(), "q", "", Hooks{})
	assert.ErrorIs(t, err, boom)
}

func TestTranslate_NilHooks(t *testing.T) {
	tr := &Translator{model: &stubModel{response: "```sql\nSELECT 1\n```", stream: true}, name: "m"}

	got, err := tr.Translate(context.Background(), "q", "", Hooks{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got.SQL)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "martian"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}
