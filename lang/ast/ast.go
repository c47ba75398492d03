// Package ast defines the types representing the abstract syntax tree of
// the source language (spec section 3): tagged sum types Type, Expr, Stmt,
// Func, Struct, Enum, Trait, Impl, TypeAlias, each carrying a Source. The
// Node/Visitor/Format shape follows lang/ast's usual layout; the node
// vocabulary is grown from this language's struct/enum/trait/impl data
// model rather than a Starlark-like grammar.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/adeptc/lang/token"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements the fmt.Formatter interface so they can print a
	// description of themselves. The only supported verbs are 'v' and 's'.
	// The '#' flag can be used to print count information about children
	// nodes. A width can be set to define the number of runes to print for
	// the node description - by default, that width is padded with spaces
	// on the left if the description is shorter, otherwise it is truncated
	// to that width. The '-' flag can be used to pad with spaces on the
	// right instead, and the '+' flag can be used to prevent padding
	// altogether - it only truncates if longer.
	fmt.Formatter

	// Span reports the start and end position of the node.
	Span() (start, end token.Source)

	// Walk enters each node inside itself to implement the Visitor pattern.
	Walk(v Visitor)
}

// Type is a type expression as written in source (spec section 3); it is
// resolved into an asg type during semantic resolution.
type Type interface {
	Node
	typ()
}

// Expr represents an expression in the AST.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement in the AST.
type Stmt interface {
	Node

	// BlockEnding returns true if the statement should only appear as the last
	// statement in a block (return, break, continue).
	BlockEnding() bool
}

// Decl is a top-level declaration: Func, Struct, Enum, Trait, Impl, or
// TypeAlias (spec section 3).
type Decl interface {
	Node
	decl()
}

// Chunk is the root AST node for a single preprocessed file.
type Chunk struct {
	// Name is the filename, empty if the chunk did not come from a file.
	Name  string
	Decls []Decl
	EOF   token.Source // position of the EOF marker, for empty chunks
}

// Block is a braced sequence of statements.
type Block struct {
	Start, End token.Source
	Stmts      []Stmt
}

func (n *Chunk) Format(f fmt.State, verb rune) {
	format(f, verb, n, "chunk "+n.Name, map[string]int{"decls": len(n.Decls)})
}
func (n *Chunk) Span() (start, end token.Source) {
	if len(n.Decls) == 0 {
		return n.EOF, n.EOF
	}
	start, _ = n.Decls[0].Span()
	_, end = n.Decls[len(n.Decls)-1].Span()
	return start, end
}
func (n *Chunk) Walk(v Visitor) {
	for _, d := range n.Decls {
		Walk(v, d)
	}
}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *Block) Span() (start, end token.Source) {
	return n.Start, n.End
}
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	// replace tabs and newlines with the corresponding unicode key
	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")
	label = strings.ReplaceAll(label, "\v", "⭿")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
