package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mgpai22/lysync/internal/subtitle"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [lyric_file]",
	Short: "Convert lyrics between LYS, TTML and LRC",
	Long: `Convert a lyric file to another lyric format.

Supported conversions: LYS to TTML, LRC to TTML and TTML to LYS. Translations
are picked up from <stem>_trans.lrc next to the input, or from --translation.
Converting TTML to LYS writes the embedded translations to <stem>_trans.lrc
next to the output.

Examples:
  lysync convert song.lys --to ttml
  lysync convert song.ttml --to lys -o out/song.lys
  lysync convert song.lrc --to ttml --translation zh.lrc --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("to", "t", "", "Target format (ttml, lys)")
	convertCmd.Flags().
		String("translation", "", "Translation LRC to merge (default <stem>_trans.lrc when present)")
	convertCmd.Flags().
		Bool("copy", false, "Copy the converted lyrics to the clipboard")
	convertCmd.Flags().
		Bool("stdout", false, "Print the converted lyrics instead of writing a file")

	_ = convertCmd.MarkFlagRequired("to")
}

func parseLyricFormat(s string) (subtitle.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lys":
		return subtitle.FormatLYS, nil
	case "ttml", "xml":
		return subtitle.FormatTTML, nil
	default:
		return "", fmt.Errorf("unsupported target format %q: use ttml or lys", s)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := args[0]
	toStr, _ := cmd.Flags().GetString("to")
	translationPath, _ := cmd.Flags().GetString("translation")
	copyOut, _ := cmd.Flags().GetBool("copy")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	outputPath, _ := cmd.Flags().GetString("output")

	if err := checkExists(path); err != nil {
		return err
	}

	target, err := parseLyricFormat(toStr)
	if err != nil {
		return err
	}

	f, err := openLyrics(path, translationPath)
	if err != nil {
		return err
	}
	if f.Format() == target {
		return fmt.Errorf("%s is already %s", path, target)
	}

	logger.Infow("Converting lyrics",
		"input", path,
		"from", f.Format(),
		"to", target,
	)

	out, trans, err := f.Convert(target)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if copyOut {
		if err := clipboard.WriteAll(out); err != nil {
			logger.Warnw("Failed to copy to clipboard", "error", err)
		} else {
			logger.Infow("Copied to clipboard", "bytes", len(out))
		}
	}

	if toStdout {
		fmt.Fprint(cmd.OutOrStdout(), out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	}

	if outputPath == "" {
		outputPath = withExt(path, subtitle.ExtensionFor(target))
	}
	if err := writeText(outputPath, out); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Lyrics converted successfully: %s\n", absOutput)

	if trans != "" {
		transPath := withExt(outputPath, "") + "_trans.lrc"
		if err := writeText(transPath, trans); err != nil {
			return fmt.Errorf("failed to write translation file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  Translation: %s\n", transPath)
	}

	return nil
}
