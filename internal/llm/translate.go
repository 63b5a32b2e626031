package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/pondside/parley/internal/request"
)

const systemPromptTemplate = `You are a SQL assistant for a SQLite database.
Translate the user's question into a single SQLite statement.

The database schema:

%s

Rules:
- Respond with exactly one SQL statement inside a ` + "```sql" + ` fenced block.
- Use only tables and columns from the schema above.
- Prefer explicit column lists over SELECT *.
- Add a LIMIT clause when the question does not bound the result.
- Never modify data unless the question asks for it in plain words.
- After the block, explain the statement in one short sentence.`

// Translation is the model's answer: the extracted statement plus the
// full response for display.
type Translation struct {
	SQL        string
	Commentary string
	Model      string
	Elapsed    time.Duration
}

// Hooks let the caller observe a translation in progress. Either
// field may be nil.
type Hooks struct {
	// Phase is called on phase transitions: thinking once the call is
	// issued, streaming when the first token arrives, processing when
	// extraction starts.
	Phase func(request.Phase)

	// Chunk receives each streamed fragment of the response.
	Chunk func(string)
}

func (h Hooks) phase(p request.Phase) {
	if h.Phase != nil {
		h.Phase(p)
	}
}

func (h Hooks) chunk(s string) {
	if h.Chunk != nil {
		h.Chunk(s)
	}
}

// Translate asks the model to turn the question into SQL against the
// given schema. The context is observed per streamed chunk, so a
// cancel lands mid-response.
func (t *Translator) Translate(ctx context.Context, question, schemaDDL string, hooks Hooks) (*Translation, error) {
	start := time.Now()
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemPromptTemplate, schemaDDL)),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}

	hooks.phase(request.PhaseLLMThinking)

	streaming := false
	resp, err := t.model.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !streaming {
				streaming = true
				hooks.phase(request.PhaseLLMStreaming)
			}
			hooks.chunk(string(chunk))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	hooks.phase(request.PhaseProcessing)
	content := resp.Choices[0].Content
	sql, err := ExtractSQL(content)
	if err != nil {
		return nil, err
	}

	return &Translation{
		SQL:        sql,
		Commentary: content,
		Model:      t.name,
		Elapsed:    time.Since(start),
	}, nil
}
