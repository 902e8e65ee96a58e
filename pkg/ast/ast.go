// Package ast defines the method-level units extracted from source files
package ast

import (
	"strings"
)

// Position represents a position in the source file
type Position struct {
	Line   int // 1-based
	Column int // 0-based byte column
	Offset int // byte offset into the parsed buffer
}

// Range represents a range in the source file
type Range struct {
	Start Position
	End   Position
}

// Len returns the number of bytes covered by the range
func (r Range) Len() int {
	return r.End.Offset - r.Start.Offset
}

// MethodKind represents the kind of a parsed method unit
type MethodKind int

const (
	KindUnknown MethodKind = iota
	KindFunction
	KindMethod
	KindConstructor
)

func (k MethodKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// AnonymousName is used for definitions the grammar exposes no name for
const AnonymousName = "<anonymous>"

// MethodNode represents one function or method definition together with the
// comment trivia directly attached to it.
//
// Source is always the exact slice of the parsed buffer covered by Span, so a
// node can be located again in the file by plain substring search.
type MethodNode struct {
	Name          string     // Identifier, never empty
	Kind          MethodKind // function, method or constructor
	Scope         []string   // Enclosing classes/namespaces, outermost first
	Span          Range      // Range of Source in the parsed buffer
	Source        string     // Verbatim text including leading comments
	Indent        string     // Whitespace preceding Span.Start on its line
	HasDocComment bool       // Whether a documentation comment was recognized
	DocComment    string     // Text of the recognized documentation comment
}

// FullName returns the scope-qualified name of the method
func (m *MethodNode) FullName() string {
	if len(m.Scope) == 0 {
		return m.Name
	}
	return strings.Join(m.Scope, ".") + "." + m.Name
}

// LineCount returns the number of newline characters in the method source
func (m *MethodNode) LineCount() int {
	return strings.Count(m.Source, "\n")
}

// Verify reports whether the node's Source matches its span within content
func (m *MethodNode) Verify(content []byte) bool {
	if m.Span.Start.Offset < 0 || m.Span.End.Offset > len(content) || m.Span.Start.Offset > m.Span.End.Offset {
		return false
	}
	return string(content[m.Span.Start.Offset:m.Span.End.Offset]) == m.Source
}

// Undocumented filters nodes without documentation comments, keeping order
func Undocumented(nodes []*MethodNode) []*MethodNode {
	var undocumented []*MethodNode
	for _, node := range nodes {
		if !node.HasDocComment {
			undocumented = append(undocumented, node)
		}
	}
	return undocumented
}
