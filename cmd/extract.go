package cmd

import (
	"fmt"
	"io"
	"os"

	"aicomment/pkg/comment"
	"aicomment/pkg/lang"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [response-file]",
	Short: "Extract a comment from a saved model response",
	Long: `Run the comment extractor over a model response saved to a file (or read
from stdin when the file is "-"). By default only the comment lines of the
first fenced code block are printed; --full prints the whole block.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		full, _ := cmd.Flags().GetBool("full")
		if full {
			block, err := comment.ExtractFullBlock(raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), block)
			return nil
		}

		name, _ := cmd.Flags().GetString("language")
		language, err := lang.Parse(name)
		if err != nil {
			return err
		}

		text, err := comment.ExtractCommentLines(language, raw)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringP("language", "l", "python", "Language of the code block")
	extractCmd.Flags().Bool("full", false, "Print the whole code block instead of its comment lines")
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(content), nil
}
