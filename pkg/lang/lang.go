// Package lang maps supported programming languages to their tree-sitter
// grammars, file extensions and comment conventions.
package lang

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a supported programming language
type Language string

const (
	Unknown    Language = ""
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Java       Language = "java"
	C          Language = "c"
	Cpp        Language = "cpp"
	CSharp     Language = "csharp"
	Go         Language = "go"
	Rust       Language = "rust"
	Ruby       Language = "ruby"
	PHP        Language = "php"
	Kotlin     Language = "kotlin"
)

// ErrUnsupportedLanguage is returned when no grammar is registered for a language or extension
var ErrUnsupportedLanguage = errors.New("unsupported programming language")

// CommentSyntax describes how comments are written in a language
type CommentSyntax struct {
	LinePrefixes    []string // e.g. "//", "#"
	BlockOpen       string   // e.g. "/*"
	BlockClose      string   // e.g. "*/"
	DocStringDelims []string // delimiters that open and close a docstring, e.g. `"""`
}

// Grammar binds a language to its tree-sitter grammar and the node types the
// parser needs to find methods and their documentation.
type Grammar struct {
	Language   Language
	Extensions []string
	Syntax     CommentSyntax

	binding func() *sitter.Language

	// MethodTypes are the node types of function/method definitions.
	MethodTypes map[string]bool
	// ConstructorTypes are method node types that always denote constructors.
	ConstructorTypes map[string]bool
	// ContainerTypes are class-like nodes whose name becomes part of a method's scope.
	ContainerTypes map[string]bool
	// WrapperTypes enclose a definition without adding scope (decorators, exports, templates).
	WrapperTypes map[string]bool
	// CommentTypes are the node types of comments.
	CommentTypes map[string]bool
	// TriviaTypes may sit between a doc comment and its definition (attributes).
	TriviaTypes map[string]bool
	// BodyTypes wrap the statements of a container while comments ahead of
	// the first statement stay children of the container itself (Ruby).
	BodyTypes map[string]bool

	// IsDocComment classifies the text of a comment directly preceding a definition.
	IsDocComment func(text string) bool
	// BodyDocString reports whether documentation lives inside the body (Python).
	BodyDocString bool
}

// TreeSitter returns the tree-sitter language binding
func (g *Grammar) TreeSitter() *sitter.Language {
	return g.binding()
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

var (
	cStyle = CommentSyntax{LinePrefixes: []string{"//"}, BlockOpen: "/*", BlockClose: "*/"}
)

var grammars = map[Language]*Grammar{
	Python: {
		Language:       Python,
		Extensions:     []string{".py", ".pyw"},
		Syntax:         CommentSyntax{LinePrefixes: []string{"#"}, DocStringDelims: []string{`"""`, `'''`}},
		binding:        python.GetLanguage,
		MethodTypes:    set("function_definition"),
		ContainerTypes: set("class_definition"),
		WrapperTypes:   set("decorated_definition"),
		CommentTypes:   set("comment"),
		IsDocComment:   func(string) bool { return false },
		BodyDocString:  true,
	},
	JavaScript: {
		Language:       JavaScript,
		Extensions:     []string{".js", ".mjs", ".cjs", ".jsx"},
		Syntax:         cStyle,
		binding:        javascript.GetLanguage,
		MethodTypes:    set("function_declaration", "generator_function_declaration", "method_definition"),
		ContainerTypes: set("class_declaration", "class"),
		WrapperTypes:   set("export_statement"),
		CommentTypes:   set("comment"),
		IsDocComment:   IsJSDocComment,
	},
	TypeScript: {
		Language:       TypeScript,
		Extensions:     []string{".ts", ".mts", ".cts"},
		Syntax:         cStyle,
		binding:        typescript.GetLanguage,
		MethodTypes:    set("function_declaration", "generator_function_declaration", "method_definition"),
		ContainerTypes: set("class_declaration", "abstract_class_declaration", "class", "internal_module", "module"),
		WrapperTypes:   set("export_statement"),
		CommentTypes:   set("comment"),
		IsDocComment:   IsJSDocComment,
	},
	TSX: {
		Language:       TSX,
		Extensions:     []string{".tsx"},
		Syntax:         cStyle,
		binding:        tsx.GetLanguage,
		MethodTypes:    set("function_declaration", "generator_function_declaration", "method_definition"),
		ContainerTypes: set("class_declaration", "abstract_class_declaration", "class", "internal_module", "module"),
		WrapperTypes:   set("export_statement"),
		CommentTypes:   set("comment"),
		IsDocComment:   IsJSDocComment,
	},
	Java: {
		Language:         Java,
		Extensions:       []string{".java"},
		Syntax:           cStyle,
		binding:          java.GetLanguage,
		MethodTypes:      set("method_declaration", "constructor_declaration"),
		ConstructorTypes: set("constructor_declaration"),
		ContainerTypes:   set("class_declaration", "interface_declaration", "enum_declaration", "record_declaration"),
		CommentTypes:     set("comment", "line_comment", "block_comment"),
		IsDocComment:     IsJSDocComment,
	},
	C: {
		Language:     C,
		Extensions:   []string{".c", ".h"},
		Syntax:       cStyle,
		binding:      c.GetLanguage,
		MethodTypes:  set("function_definition"),
		CommentTypes: set("comment"),
		IsDocComment: IsDoxygenComment,
	},
	Cpp: {
		Language:       Cpp,
		Extensions:     []string{".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx"},
		Syntax:         cStyle,
		binding:        cpp.GetLanguage,
		MethodTypes:    set("function_definition"),
		ContainerTypes: set("class_specifier", "struct_specifier", "namespace_definition"),
		WrapperTypes:   set("template_declaration"),
		CommentTypes:   set("comment"),
		IsDocComment:   IsDoxygenComment,
	},
	CSharp: {
		Language:         CSharp,
		Extensions:       []string{".cs"},
		Syntax:           cStyle,
		binding:          csharp.GetLanguage,
		MethodTypes:      set("method_declaration", "constructor_declaration"),
		ConstructorTypes: set("constructor_declaration"),
		ContainerTypes:   set("class_declaration", "struct_declaration", "interface_declaration", "record_declaration", "namespace_declaration"),
		CommentTypes:     set("comment"),
		IsDocComment:     IsTripleSlashComment,
	},
	Go: {
		Language:     Go,
		Extensions:   []string{".go"},
		Syntax:       cStyle,
		binding:      golang.GetLanguage,
		MethodTypes:  set("function_declaration", "method_declaration"),
		CommentTypes: set("comment"),
		IsDocComment: func(text string) bool { return strings.HasPrefix(text, "//") || strings.HasPrefix(text, "/*") },
	},
	Rust: {
		Language:       Rust,
		Extensions:     []string{".rs"},
		Syntax:         cStyle,
		binding:        rust.GetLanguage,
		MethodTypes:    set("function_item"),
		ContainerTypes: set("impl_item", "trait_item", "mod_item"),
		CommentTypes:   set("line_comment", "block_comment"),
		TriviaTypes:    set("attribute_item"),
		IsDocComment:   IsTripleSlashComment,
	},
	Ruby: {
		Language:       Ruby,
		Extensions:     []string{".rb"},
		Syntax:         CommentSyntax{LinePrefixes: []string{"#"}, BlockOpen: "=begin", BlockClose: "=end"},
		binding:        ruby.GetLanguage,
		MethodTypes:    set("method", "singleton_method"),
		ContainerTypes: set("class", "module", "singleton_class"),
		BodyTypes:      set("body_statement"),
		CommentTypes:   set("comment"),
		IsDocComment:   func(text string) bool { return strings.HasPrefix(text, "#") || strings.HasPrefix(text, "=begin") },
	},
	PHP: {
		Language:       PHP,
		Extensions:     []string{".php"},
		Syntax:         CommentSyntax{LinePrefixes: []string{"//", "#"}, BlockOpen: "/*", BlockClose: "*/"},
		binding:        php.GetLanguage,
		MethodTypes:    set("function_definition", "method_declaration"),
		ContainerTypes: set("class_declaration", "interface_declaration", "trait_declaration", "enum_declaration"),
		CommentTypes:   set("comment"),
		TriviaTypes:    set("attribute_list"),
		IsDocComment:   IsJSDocComment,
	},
	Kotlin: {
		Language:         Kotlin,
		Extensions:       []string{".kt", ".kts"},
		Syntax:           cStyle,
		binding:          kotlin.GetLanguage,
		MethodTypes:      set("function_declaration", "secondary_constructor"),
		ConstructorTypes: set("secondary_constructor"),
		ContainerTypes:   set("class_declaration", "object_declaration", "companion_object"),
		CommentTypes:     set("comment", "line_comment", "multiline_comment"),
		IsDocComment:     IsJSDocComment,
	},
}

var extToLang = func() map[string]Language {
	m := make(map[string]Language)
	for l, g := range grammars {
		for _, ext := range g.Extensions {
			m[ext] = l
		}
	}
	return m
}()

// Lookup returns the grammar registered for l
func Lookup(l Language) (*Grammar, error) {
	g, ok := grammars[l]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(l))
	}
	return g, nil
}

// Parse converts a user-supplied language name (or common alias) to a Language
func Parse(name string) (Language, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "py":
		n = string(Python)
	case "js", "jsx", "node":
		n = string(JavaScript)
	case "ts":
		n = string(TypeScript)
	case "c++", "cxx", "cc":
		n = string(Cpp)
	case "cs", "c#":
		n = string(CSharp)
	case "golang":
		n = string(Go)
	case "rs":
		n = string(Rust)
	case "rb":
		n = string(Ruby)
	case "kt":
		n = string(Kotlin)
	}
	if _, ok := grammars[Language(n)]; !ok {
		return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
	return Language(n), nil
}

// FromExtension returns the language for a file extension such as ".py"
func FromExtension(ext string) (Language, error) {
	l, ok := extToLang[strings.ToLower(ext)]
	if !ok {
		return Unknown, fmt.Errorf("%w: no grammar for extension %q", ErrUnsupportedLanguage, ext)
	}
	return l, nil
}

// Detect returns the language of the file at path, based on its extension
func Detect(path string) (Language, error) {
	return FromExtension(filepath.Ext(path))
}

// Supported returns all registered languages in sorted order
func Supported() []Language {
	langs := make([]Language, 0, len(grammars))
	for l := range grammars {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// IsDoxygenComment checks if a comment uses one of the Doxygen markers
func IsDoxygenComment(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "/**") ||
		strings.HasPrefix(trimmed, "///") ||
		strings.HasPrefix(trimmed, "//!") ||
		strings.HasPrefix(trimmed, "/*!")
}

// IsJSDocComment checks for a /** ... */ block (JSDoc, Javadoc, KDoc, PHPDoc)
func IsJSDocComment(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "/**") && !strings.HasPrefix(trimmed, "/**/")
}

// IsTripleSlashComment checks for /// line docs or a /** block (C#, Rust)
func IsTripleSlashComment(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "////") {
		return false
	}
	return strings.HasPrefix(trimmed, "///") || IsJSDocComment(trimmed)
}
