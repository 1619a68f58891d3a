package pyscan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrParse indicates the grammar could not produce a clean tree for a file.
var ErrParse = errors.New("source contains syntax errors")

// Parse parses Python source into a tree-sitter tree. A tree whose root
// carries error nodes is treated as a parse failure, matching the upstream
// policy of excluding malformed files from the tree-based pass.
func Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tree.RootNode().HasError() {
		return nil, ErrParse
	}
	return tree, nil
}

// lineOf returns the 1-based source line of a node.
func lineOf(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// dottedName reconstructs a dotted path like "os.environ" from an attribute
// chain whose innermost value is a plain identifier. Returns "" for dynamic
// bases (calls, subscripts) that cannot be resolved statically.
func dottedName(n *sitter.Node, src []byte) string {
	var parts []string
	cur := n
	for cur != nil && cur.Type() == "attribute" {
		attr := cur.ChildByFieldName("attribute")
		if attr == nil {
			return ""
		}
		parts = append(parts, attr.Content(src))
		cur = cur.ChildByFieldName("object")
	}
	if cur == nil || cur.Type() != "identifier" {
		return ""
	}
	parts = append(parts, cur.Content(src))
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// baseModuleName returns the top-level package of a dotted module path.
func baseModuleName(mod string) string {
	if mod == "" {
		return ""
	}
	if i := strings.IndexByte(mod, '.'); i >= 0 {
		return mod[:i]
	}
	return mod
}
