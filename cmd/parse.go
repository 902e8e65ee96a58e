package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"aicomment/pkg/ast"
	"aicomment/pkg/document"
	"aicomment/pkg/lang"
	"aicomment/pkg/parser"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "List the methods found in a source file",
	Long: `Parse a source file with its tree-sitter grammar and list every function,
method and constructor together with its span and documentation status.
The output can be in JSON format for further processing or human-readable format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		language, _ := cmd.Flags().GetString("language")

		doc, err := openDocument(filename, language)
		if err != nil {
			return err
		}

		nodes, err := doc.Parse(cmd.Context(), parser.New())
		if err != nil {
			return fmt.Errorf("failed to parse file %s: %w", filename, err)
		}

		undocumentedOnly, _ := cmd.Flags().GetBool("undocumented")
		if undocumentedOnly {
			nodes = ast.Undocumented(nodes)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			return outputJSON(cmd.OutOrStdout(), doc, nodes)
		case "human", "":
			return outputHuman(cmd.OutOrStdout(), doc, nodes)
		default:
			return fmt.Errorf("unknown output format %q", format)
		}
	},
}

func init() {
	parseCmd.Flags().StringP("format", "f", "human", "Output format (human, json)")
	parseCmd.Flags().BoolP("undocumented", "u", false, "Only list methods without a doc comment")
	parseCmd.Flags().StringP("language", "l", "", "Override language detection")
}

func openDocument(filename, language string) (*document.Document, error) {
	if language == "" {
		return document.Open(filename)
	}
	l, err := lang.Parse(language)
	if err != nil {
		return nil, err
	}
	return document.OpenAs(filename, l)
}

// JSONMethod is the JSON form of a method node
type JSONMethod struct {
	Name          string   `json:"name"`
	FullName      string   `json:"fullName"`
	Kind          string   `json:"kind"`
	Scope         []string `json:"scope,omitempty"`
	StartLine     int      `json:"startLine"`
	EndLine       int      `json:"endLine"`
	Lines         int      `json:"lines"`
	HasDocComment bool     `json:"hasDocComment"`
	DocComment    string   `json:"docComment,omitempty"`
}

func outputJSON(w io.Writer, doc *document.Document, nodes []*ast.MethodNode) error {
	methods := make([]JSONMethod, 0, len(nodes))
	for _, n := range nodes {
		methods = append(methods, JSONMethod{
			Name:          n.Name,
			FullName:      n.FullName(),
			Kind:          n.Kind.String(),
			Scope:         n.Scope,
			StartLine:     n.Span.Start.Line,
			EndLine:       n.Span.End.Line,
			Lines:         n.LineCount(),
			HasDocComment: n.HasDocComment,
			DocComment:    n.DocComment,
		})
	}

	output := map[string]interface{}{
		"filename": doc.GetFilename(),
		"language": doc.Language(),
		"methods":  methods,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputHuman(w io.Writer, doc *document.Document, nodes []*ast.MethodNode) error {
	fmt.Fprintf(w, "Parsed file: %s (%s)\n", doc.GetFilename(), doc.Language())
	fmt.Fprintf(w, "=====================================\n\n")

	documented := 0
	for _, n := range nodes {
		fmt.Fprintf(w, "%s: %s", n.Kind.String(), n.FullName())
		if n.HasDocComment {
			documented++
			fmt.Fprintf(w, " [documented]")
		}
		fmt.Fprintf(w, "\n  Location: Lines %d-%d (%d newlines)\n", n.Span.Start.Line, n.Span.End.Line, n.LineCount())
	}

	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "--------\n")
	fmt.Fprintf(w, "Total methods: %d\n", len(nodes))
	if len(nodes) > 0 {
		fmt.Fprintf(w, "Documented: %d (%.1f%%)\n", documented, float64(documented)/float64(len(nodes))*100)
	}

	return nil
}
