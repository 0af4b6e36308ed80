package cli

import (
	"fmt"

	"github.com/mgpai22/lysync/internal/config"
	"github.com/mgpai22/lysync/internal/logging"
	"github.com/mgpai22/lysync/internal/lyrics"
	"github.com/mgpai22/lysync/internal/subtitle"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lysync",
	Short: "Karaoke lyric toolkit and live lyric relay",
	Long: `lysync parses and converts syllable-timed karaoke lyrics (LYS, TTML, LRC),
exports them as captions, translates them with AI, and relays live lyric state
from a player over websocket to browser overlays.

Settings are read from lysync.yaml when present; environment variables and
a .env file override it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if p := cfg.Path(); p != "" {
			logger.Debugw("Loaded config", "path", p)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default lysync.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language of the lyrics (e.g., japanese, en)")
}

// converter options from the loaded config
func convertOptions() subtitle.Options {
	opts := subtitle.DefaultOptions()
	opts.TranslationTolerance = cfg.Conversion.TranslationToleranceMs
	opts.FinalLineTail = cfg.Conversion.FinalLineTailMs
	opts.LRCDefaultDuration = cfg.Conversion.LRCDefaultDurationMs
	opts.LRCMaxGap = cfg.Conversion.LRCMaxGapMs
	opts.NormalizeDoubleParens = cfg.Conversion.NormalizeDoubleParens
	opts.Logger = logger
	return opts
}

// opens a lyric file, replacing the discovered translation when one is given
func openLyrics(path, translationPath string) (subtitle.File, error) {
	f, err := subtitle.Open(path, convertOptions())
	if err != nil {
		return nil, err
	}
	if translationPath != "" {
		data, err := readText(translationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file: %w", err)
		}
		f.SetTranslation(data)
	}
	return f, nil
}

// parsed lines with disappear times applied
func loadLines(path, translationPath string) ([]lyrics.Line, subtitle.File, error) {
	f, err := openLyrics(path, translationPath)
	if err != nil {
		return nil, nil, err
	}
	lines, err := f.Lines()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return lyrics.NewCalculator(cfg.Animation).Apply(lines), f, nil
}
