package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/lysync/internal/editor"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [lys_file]",
	Short: "Apply a token editor operation to an LYS file",
	Long: `Run one token editor operation on an LYS file without starting the server,
then save the result. The previous file is kept as <file>.<unix>.bak.

Operations:
  sort       order lyric lines by start time, metadata first
  shift      move every token of --line by --delta milliseconds
  duration   set the duration of the last timed token of --line to --ms
  prefix     set the [n] marker of --line to --prefix (negative clears it)

Lines are numbered from 1 in file order, metadata lines included.

Examples:
  lysync edit song.lys --op sort
  lysync edit song.lys --op shift --line 3 --delta -120
  lysync edit song.lys --op duration --line 5 --ms 800 -o fixed.lys`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().
		String("op", "", "Operation to apply (sort, shift, duration, prefix)")
	editCmd.Flags().
		Int("line", 0, "1-based line number the operation applies to")
	editCmd.Flags().
		Int("delta", 0, "Milliseconds to shift by (shift)")
	editCmd.Flags().
		Int("ms", -1, "New duration in milliseconds (duration)")
	editCmd.Flags().
		Int("prefix", -1, "New [n] marker, negative for [] (prefix)")

	_ = editCmd.MarkFlagRequired("op")
}

func runEdit(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	op, _ := cmd.Flags().GetString("op")
	lineNo, _ := cmd.Flags().GetInt("line")
	delta, _ := cmd.Flags().GetInt("delta")
	ms, _ := cmd.Flags().GetInt("ms")
	prefix, _ := cmd.Flags().GetInt("prefix")
	outputPath, _ := cmd.Flags().GetString("output")

	if err := checkExists(path); err != nil {
		return err
	}
	raw, err := readText(path)
	if err != nil {
		return fmt.Errorf("failed to read lyric file: %w", err)
	}

	docs := editor.NewRegistry(logger)
	doc := docs.Load(ctx, raw, path)

	lineID := func() (string, error) {
		if lineNo < 1 || lineNo > len(doc.Lines) {
			return "", fmt.Errorf("--line must be between 1 and %d, got %d", len(doc.Lines), lineNo)
		}
		return doc.Lines[lineNo-1].ID, nil
	}

	switch strings.ToLower(op) {
	case "sort":
		_, err = docs.SortLines(ctx, doc.ID, doc.Version)
	case "shift":
		var id string
		if id, err = lineID(); err == nil {
			_, err = docs.ShiftLine(ctx, doc.ID, doc.Version, id, delta)
		}
	case "duration":
		if ms < 0 {
			return fmt.Errorf("--ms is required for duration")
		}
		var id string
		if id, err = lineID(); err == nil {
			_, err = docs.SetLastTokenDuration(ctx, doc.ID, doc.Version, id, ms)
		}
	case "prefix":
		var n *int
		if prefix >= 0 {
			n = &prefix
		}
		var id string
		if id, err = lineID(); err == nil {
			_, err = docs.SetPrefix(ctx, doc.ID, doc.Version, id, n)
		}
	default:
		return fmt.Errorf("unsupported operation %q: use sort, shift, duration, or prefix", op)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}

	saved, err := docs.Save(doc.ID, outputPath)
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}

	logger.Infow("Applied edit", "op", op, "output", saved)
	fmt.Fprintf(cmd.OutOrStdout(), "Lyrics saved: %s\n", saved)
	return nil
}
