package parser

import (
	"strings"

	"aicomment/pkg/ast"
	"aicomment/pkg/lang"

	sitter "github.com/smacker/go-tree-sitter"
)

// identifierTypes are leaf node types accepted as a name when a grammar
// exposes no "name" field.
var identifierTypes = map[string]bool{
	"identifier":          true,
	"field_identifier":    true,
	"property_identifier": true,
	"type_identifier":     true,
	"simple_identifier":   true,
	"constant":            true,
	"name":                true,
}

type walker struct {
	grammar *lang.Grammar
	content []byte
	nodes   []*ast.MethodNode
}

func (w *walker) walk(node *sitter.Node, scope []string) {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		switch t := child.Type(); {
		case w.grammar.MethodTypes[t]:
			w.collect(child, scope)
		case w.grammar.ContainerTypes[t]:
			w.walk(child, appendScope(scope, w.containerName(child)))
		default:
			w.walk(child, scope)
		}
	}
}

func appendScope(scope []string, name string) []string {
	if name == "" {
		return scope
	}
	next := make([]string, len(scope), len(scope)+1)
	copy(next, scope)
	return append(next, name)
}

func (w *walker) collect(method *sitter.Node, scope []string) {
	anchor := method
	for p := anchor.Parent(); p != nil && w.grammar.WrapperTypes[p.Type()]; p = p.Parent() {
		anchor = p
	}

	start, docComment := w.leadingComments(anchor)
	hasDoc := docComment != ""
	if w.grammar.BodyDocString {
		docComment = w.bodyDocString(method)
		hasDoc = docComment != ""
	}

	startByte := int(start.StartByte())
	endByte := int(anchor.EndByte())

	name := w.nameOf(method)
	if name == "" {
		name = ast.AnonymousName
	}

	node := &ast.MethodNode{
		Name:  name,
		Kind:  w.kindOf(method, name, scope),
		Scope: scope,
		Span: ast.Range{
			Start: ast.Position{
				Line:   int(start.StartPoint().Row) + 1,
				Column: int(start.StartPoint().Column),
				Offset: startByte,
			},
			End: ast.Position{
				Line:   int(anchor.EndPoint().Row) + 1,
				Column: int(anchor.EndPoint().Column),
				Offset: endByte,
			},
		},
		Source:        string(w.content[startByte:endByte]),
		Indent:        lineIndent(w.content, startByte),
		HasDocComment: hasDoc,
		DocComment:    docComment,
	}
	w.nodes = append(w.nodes, node)
}

// leadingComments walks backwards over comments and trivia attached to anchor.
// A run stops at a blank line, at any other node, or at a comment sharing its
// line with preceding code. It returns the first node of the run and the text
// of the closest comment when that comment is documentation.
func (w *walker) leadingComments(anchor *sitter.Node) (*sitter.Node, string) {
	start := anchor
	doc := ""
	closest := true

	for prev := w.prevSibling(anchor); prev != nil; prev = w.prevSibling(prev) {
		t := prev.Type()
		isComment := w.grammar.CommentTypes[t]
		if !isComment && !w.grammar.TriviaTypes[t] {
			break
		}
		if int(prev.EndPoint().Row)+1 < int(start.StartPoint().Row) {
			break
		}
		if !startsLine(w.content, int(prev.StartByte())) {
			break
		}

		if isComment && closest {
			closest = false
			text := prev.Content(w.content)
			if w.grammar.IsDocComment(text) {
				doc = text
			}
		} else if isComment && doc != "" {
			// consecutive line comments form one documentation block
			text := prev.Content(w.content)
			if w.grammar.IsDocComment(text) {
				doc = text + "\n" + doc
			}
		}
		start = prev
	}

	return start, strings.TrimRight(doc, "\n")
}

// prevSibling steps out of a body wrapper when node opens it, so a comment
// between a class header and its first method is still found.
func (w *walker) prevSibling(node *sitter.Node) *sitter.Node {
	for {
		if prev := node.PrevSibling(); prev != nil {
			return prev
		}
		parent := node.Parent()
		if parent == nil || !w.grammar.BodyTypes[parent.Type()] {
			return nil
		}
		node = parent
	}
}

// bodyDocString returns the string literal opening a function body, if any
func (w *walker) bodyDocString(method *sitter.Node) string {
	body := method.ChildByFieldName("body")
	if body == nil {
		return ""
	}

	count := int(body.NamedChildCount())
	for i := 0; i < count; i++ {
		stmt := body.NamedChild(i)
		if w.grammar.CommentTypes[stmt.Type()] {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			return ""
		}
		if expr := stmt.NamedChild(0); expr.Type() == "string" {
			return expr.Content(w.content)
		}
		return ""
	}
	return ""
}

func (w *walker) nameOf(node *sitter.Node) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(w.content)
	}

	// C and C++ nest the identifier inside a chain of declarators
	if decl := node.ChildByFieldName("declarator"); decl != nil {
		for {
			if next := decl.ChildByFieldName("declarator"); next != nil {
				decl = next
				continue
			}
			if next := nestedDeclarator(decl); next != nil {
				decl = next
				continue
			}
			break
		}
		return strings.TrimSpace(decl.Content(w.content))
	}

	return w.firstIdentifier(node)
}

func nestedDeclarator(node *sitter.Node) *sitter.Node {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if strings.HasSuffix(child.Type(), "declarator") {
			return child
		}
	}
	return nil
}

func (w *walker) firstIdentifier(node *sitter.Node) string {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if identifierTypes[child.Type()] {
			return child.Content(w.content)
		}
	}
	return ""
}

func (w *walker) containerName(node *sitter.Node) string {
	for _, field := range []string{"name", "type"} {
		if n := node.ChildByFieldName(field); n != nil {
			return n.Content(w.content)
		}
	}
	return w.firstIdentifier(node)
}

func (w *walker) kindOf(method *sitter.Node, name string, scope []string) ast.MethodKind {
	t := method.Type()
	switch {
	case w.grammar.ConstructorTypes[t]:
		return ast.KindConstructor
	case w.grammar.Language == lang.Python && name == "__init__" && len(scope) > 0:
		return ast.KindConstructor
	case t == "method_definition" && name == "constructor":
		return ast.KindConstructor
	case len(scope) > 0, t == "method_declaration", t == "singleton_method":
		return ast.KindMethod
	default:
		return ast.KindFunction
	}
}

// startsLine reports whether only blanks precede offset on its line
func startsLine(content []byte, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		switch content[i] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}

// lineIndent returns the whitespace between the start of the line and offset.
// It is empty when other text precedes offset on the line.
func lineIndent(content []byte, offset int) string {
	i := offset
	for i > 0 && (content[i-1] == ' ' || content[i-1] == '\t') {
		i--
	}
	if i > 0 && content[i-1] != '\n' {
		return ""
	}
	return string(content[i:offset])
}
