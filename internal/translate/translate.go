package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// one lyric line, sent to and returned by a provider
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Translator sends a single batch to a provider. The result holds one item
// per input item.
type Translator interface {
	TranslateBatch(ctx context.Context, items []Item) ([]Item, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // lines per API request
	Concurrency    int // batches in flight
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// Translate splits items into batches and runs up to opts.Concurrency of
// them at once. The first failing batch cancels the rest. Results come back
// sorted by index.
func Translate(
	ctx context.Context,
	t Translator,
	items []Item,
	opts Options,
) ([]Item, error) {
	if len(items) == 0 {
		return []Item{}, nil
	}

	size := opts.batchSize()
	var batches [][]Item
	for i := 0; i < len(items); i += size {
		batches = append(batches, items[i:min(i+size, len(items))])
	}

	results := make([][]Item, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())
	for i, batch := range batches {
		g.Go(func() error {
			out, err := t.TranslateBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			if len(out) != len(batch) {
				return fmt.Errorf("batch %d: expected %d results, got %d", i, len(batch), len(out))
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := slices.Concat(results...)
	slices.SortFunc(all, func(a, b Item) int { return a.Index - b.Index })
	return all, nil
}

// BuildPrompt creates the translation prompt for LLM providers
func BuildPrompt(opts Options, items []Item) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		fmt.Fprintf(&sb, "Translate the following %s song lyric lines to %s.\n\n", opts.InputLanguage, opts.TargetLanguage)
	} else {
		fmt.Fprintf(&sb, "Translate the following song lyric lines to %s.\n\n", opts.TargetLanguage)
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate each line on its own; lines are consecutive lyrics of one song.\n")
	sb.WriteString("2. Keep the tone and imagery of the lyrics rather than translating word by word.\n")
	sb.WriteString("3. Leave interjections such as \"oh\" or \"la la\" as they are.\n")
	sb.WriteString("4. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("5. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("6. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
