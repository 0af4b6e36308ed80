package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [lyric_file]",
	Short: "Print the parsed lines of a lyric file as JSON",
	Long: `Parse a LYS, TTML or LRC file and print its lines as JSON, including the
computed disappear time of every line.

A translation file named <stem>_trans.lrc next to the input is attached
automatically; use --translation to pick another one.

Examples:
  lysync parse song.lys
  lysync parse song.ttml --compact
  lysync parse song.lys --translation other.lrc -o lines.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().
		String("translation", "", "Translation LRC to attach (default <stem>_trans.lrc when present)")
	parseCmd.Flags().
		Bool("compact", false, "Print JSON on a single line")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	translationPath, _ := cmd.Flags().GetString("translation")
	compact, _ := cmd.Flags().GetBool("compact")
	outputPath, _ := cmd.Flags().GetString("output")

	if err := checkExists(path); err != nil {
		return err
	}

	lines, f, err := loadLines(path, translationPath)
	if err != nil {
		return err
	}

	logger.Infow("Parsed lyric file",
		"input", path,
		"format", f.Format(),
		"lines", len(lines),
	)

	var data []byte
	if compact {
		data, err = json.Marshal(lines)
	} else {
		data, err = json.MarshalIndent(lines, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode lines: %w", err)
	}

	if outputPath != "" {
		if err := writeText(outputPath, string(data)+"\n"); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Lines written: %s\n", outputPath)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
