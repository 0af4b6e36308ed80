package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lysync/internal/translate"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate [lyric_file]",
	Short: "Translate lyrics to another language using AI",
	Long: `Translate the lines of a LYS, TTML or LRC file using AI and write the
result as a translation LRC, <stem>_trans.lrc next to the input by default.

Every later parse, convert or export of the same file picks the translation
up automatically. Background vocal lines are not translated.

Examples:
  lysync translate song.lys --target-language english
  lysync translate song.ttml -t zh-CN --provider openai
  lysync translate song.lrc -l japanese -t english -o song_en.lrc`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic; default from config)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation requests (default from config)")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of lines per API request (default from config)")
	translateCmd.Flags().
		String("prompt", "", "Extra instructions for the model")

	_ = translateCmd.MarkFlagRequired("target-language")
}

var knownModels = map[translate.Provider][]string{
	translate.ProviderGemini: {
		"gemini-3-pro-preview", "gemini-3-flash-preview",
		"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite",
	},
	translate.ProviderOpenAI: {
		"gpt-5", "gpt-5-mini", "gpt-5-nano", "gpt-5.1", "gpt-5.2",
		"gpt-4.1", "gpt-4.1-mini", "o3", "o3-mini",
	},
	translate.ProviderAnthropic: {
		"claude-haiku-4-5", "claude-sonnet-4-5", "claude-opus-4-1",
	},
}

var apiKeyEnv = map[translate.Provider]string{
	translate.ProviderGemini:    "GEMINI_API_KEY",
	translate.ProviderOpenAI:    "OPENAI_API_KEY",
	translate.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

func isKnownModel(provider translate.Provider, model string) bool {
	for _, m := range knownModels[provider] {
		if strings.EqualFold(m, strings.TrimSpace(model)) {
			return true
		}
	}
	return false
}

func runTranslate(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	targetLang, _ := cmd.Flags().GetString("target-language")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	modelOverride, _ := cmd.Flags().GetBool("model-override")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	prompt, _ := cmd.Flags().GetString("prompt")
	outputPath, _ := cmd.Flags().GetString("output")
	inputLang, _ := cmd.Flags().GetString("language")

	if err := checkExists(path); err != nil {
		return err
	}

	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" &&
		strings.EqualFold(
			strings.TrimSpace(inputLang),
			strings.TrimSpace(targetLang),
		) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	if providerStr == "" {
		providerStr = cfg.Translate.Provider
	}
	provider := translate.Provider(strings.ToLower(providerStr))
	envVar, ok := apiKeyEnv[provider]
	if !ok {
		return fmt.Errorf("unsupported translation provider: %s", providerStr)
	}

	if apiKey == "" {
		apiKey = os.Getenv(envVar)
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			envVar,
		)
	}

	if model == "" {
		model = cfg.Translate.Model
	}
	if model != "" && !modelOverride && !isKnownModel(provider, model) {
		return fmt.Errorf(
			"unsupported %s model %q: valid models are %s (use --model-override to bypass)",
			provider,
			model,
			strings.Join(knownModels[provider], ", "),
		)
	}

	if concurrency == 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if batchSize == 0 {
		batchSize = cfg.Translate.BatchSize
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	if outputPath == "" {
		outputPath = translate.OutputPath(path)
	}

	logger.Infow("Starting lyric translation",
		"input", path,
		"output", outputPath,
		"provider", provider,
		"target_language", targetLang,
		"input_language", inputLang,
		"model", model,
	)

	f, err := openLyrics(path, "")
	if err != nil {
		return err
	}
	// translate the source text only, not an earlier translation
	f.SetTranslation("")
	lines, err := f.Lines()
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	opts := translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		Prompt:         prompt,
		BatchSize:      batchSize,
		Concurrency:    concurrency,
	}

	translator, err := translate.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating lyrics",
		"lines", len(lines),
		"concurrency", concurrency,
		"batch_size", batchSize,
	)

	n, err := translate.TranslateLines(ctx, translator, lines, opts)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no lyric lines to translate in %s", path)
	}

	if err := writeText(outputPath, translate.TranslationLRC(lines)); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Lyrics translated successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Lines: %d\n", n)
	fmt.Fprintf(cmd.OutOrStdout(), "  Target language: %s\n", targetLang)

	return nil
}
