package llm

import (
	"fmt"
	"strings"

	"aicomment/pkg/lang"
)

// SystemPrompt sets the model's role for chat-style backends
const SystemPrompt = "You are a senior software engineer who writes precise, idiomatic documentation comments."

const promptTemplate = `Add a detailed doc comment to the following %s method:
` + "```%s\n%s\n```" + `

The doc comment should describe what the method does and follow the %s convention.
%s
Return the method implementation with the doc comment as a markdown code block.
Don't include any explanations in your response.`

var docStyles = map[lang.Language]string{
	lang.Python:     "docstring (PEP 257)",
	lang.JavaScript: "JSDoc",
	lang.TypeScript: "TSDoc",
	lang.TSX:        "TSDoc",
	lang.Java:       "Javadoc",
	lang.Kotlin:     "KDoc",
	lang.C:          "Doxygen",
	lang.Cpp:        "Doxygen",
	lang.CSharp:     "XML documentation comment (///)",
	lang.Go:         "godoc",
	lang.Rust:       "rustdoc (///)",
	lang.Ruby:       "YARD",
	lang.PHP:        "PHPDoc",
}

// BuildPrompt renders the generation prompt for a request
func BuildPrompt(req CommentRequest) string {
	style, ok := docStyles[req.Language]
	if !ok {
		style = "standard"
	}

	inline := "Don't include any inline comments in the method body."
	if req.Inline {
		inline = "Add inline comments to the method body where it makes sense."
	}

	return fmt.Sprintf(promptTemplate,
		req.Language,
		fenceTag(req.Language),
		strings.TrimRight(req.Code, "\n"),
		style,
		inline,
	)
}

func fenceTag(l lang.Language) string {
	switch l {
	case lang.Cpp:
		return "cpp"
	case lang.CSharp:
		return "csharp"
	default:
		return string(l)
	}
}
