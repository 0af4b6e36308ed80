package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lysync/internal/subtitle"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [lyric_file]",
	Short: "Export lyrics as SRT, VTT or ASS captions",
	Long: `Export a lyric file as a caption track.

Each line is shown until its computed disappear time. ASS output carries
karaoke (\k) timing for every syllable; translations are added as a second
caption line.

Examples:
  lysync export song.lys
  lysync export song.ttml --format ass
  lysync export song.lrc -f vtt --no-translation -o captions.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().
		StringP("format", "f", "srt", "Output caption format (srt, vtt, ass)")
	exportCmd.Flags().
		String("translation", "", "Translation LRC to attach (default <stem>_trans.lrc when present)")
	exportCmd.Flags().
		Bool("no-translation", false, "Leave translations out of the captions")
	exportCmd.Flags().
		Int("max-chars", 42, "Maximum characters per caption line")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	formatStr, _ := cmd.Flags().GetString("format")
	translationPath, _ := cmd.Flags().GetString("translation")
	noTranslation, _ := cmd.Flags().GetBool("no-translation")
	maxChars, _ := cmd.Flags().GetInt("max-chars")
	outputPath, _ := cmd.Flags().GetString("output")
	language, _ := cmd.Flags().GetString("language")

	if err := checkExists(path); err != nil {
		return err
	}

	var format subtitle.Format
	switch strings.ToLower(formatStr) {
	case "srt":
		format = subtitle.FormatSRT
	case "vtt":
		format = subtitle.FormatVTT
	case "ass":
		format = subtitle.FormatASS
	default:
		return fmt.Errorf("unsupported format %q: use srt, vtt, or ass", formatStr)
	}
	if maxChars <= 0 {
		return fmt.Errorf("max-chars must be positive, got %d", maxChars)
	}

	if outputPath == "" {
		outputPath = withExt(path, subtitle.GetExtensionForFormat(format))
	}

	lines, _, err := loadLines(path, translationPath)
	if err != nil {
		return err
	}

	logger.Infow("Exporting captions",
		"input", path,
		"output", outputPath,
		"format", format,
		"lines", len(lines),
	)

	generator := subtitle.NewDefaultGenerator()
	generator.MaxCharsPerLine = maxChars
	generator.IncludeTranslation = !noTranslation

	subs, err := generator.Generate(lines)
	if err != nil {
		return fmt.Errorf("failed to generate captions: %w", err)
	}
	subs.Language = language
	subs.Format = string(format)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return fmt.Errorf("failed to create subtitle writer: %w", err)
	}
	if err := writer.Write(subs, outputPath); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Captions exported successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", len(subs.Entries))

	return nil
}
