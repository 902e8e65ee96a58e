package cmd

import (
	"fmt"

	"aicomment/pkg/formatter"

	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Format a source file with its language formatter",
	Long: `Format a source file in place using the external formatter registered for
its language (clang-format, gofmt, rustfmt, black, prettier, ...).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		language, _ := cmd.Flags().GetString("language")

		doc, err := openDocument(filename, language)
		if err != nil {
			return err
		}

		f := formatter.New()
		if err := f.FormatFile(cmd.Context(), doc.GetFilename(), doc.Language()); err != nil {
			return fmt.Errorf("failed to format %s: %w", filename, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Formatted %s\n", filename)
		return nil
	},
}

func init() {
	formatCmd.Flags().StringP("language", "l", "", "Override language detection")
}
