package pyscan

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// FromObject records a "from module import name" binding.
type FromObject struct {
	Module string
	Object string
}

// ImportResolver maps local aliases to fully-qualified import paths for one
// file. Built once per file, read-only during the scan.
type ImportResolver struct {
	AliasToModule map[string]string
	FromObjects   map[string]FromObject
	ImportLines   map[int]struct{}
}

// NewImportResolver collects import bindings from a parsed file.
func NewImportResolver(root *sitter.Node, src []byte) *ImportResolver {
	r := &ImportResolver{
		AliasToModule: make(map[string]string),
		FromObjects:   make(map[string]FromObject),
		ImportLines:   make(map[int]struct{}),
	}
	r.collect(root, src)
	return r
}

func (r *ImportResolver) collect(n *sitter.Node, src []byte) {
	switch n.Type() {
	case "import_statement":
		r.addImport(n, src)
	case "import_from_statement":
		r.addImportFrom(n, src)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.collect(n.NamedChild(i), src)
	}
}

// addImport handles "import a.b" and "import a.b as c".
func (r *ImportResolver) addImport(n *sitter.Node, src []byte) {
	r.ImportLines[lineOf(n)] = struct{}{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			mod := child.Content(src)
			r.AliasToModule[lastSegment(mod)] = mod
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			r.AliasToModule[aliasNode.Content(src)] = nameNode.Content(src)
		}
	}
}

// addImportFrom handles "from m import a, b as c". The alias maps to the
// full "m.a" path and the (module, object) pair is tracked separately.
func (r *ImportResolver) addImportFrom(n *sitter.Node, src []byte) {
	r.ImportLines[lineOf(n)] = struct{}{}

	var module string
	moduleNode := n.ChildByFieldName("module_name")
	if moduleNode != nil {
		module = moduleNode.Content(src)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if moduleNode != nil && child.Equal(moduleNode) {
			continue
		}
		var name, asname string
		switch child.Type() {
		case "dotted_name":
			name = child.Content(src)
			asname = name
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			name = nameNode.Content(src)
			asname = aliasNode.Content(src)
		default:
			continue
		}
		full := name
		if module != "" {
			full = module + "." + name
		}
		r.AliasToModule[asname] = full
		r.FromObjects[asname] = FromObject{Module: module, Object: name}
	}
}

// ResolveBase returns the top-level module behind alias and whether the
// alias is bound to an import at all.
func (r *ImportResolver) ResolveBase(alias string) (string, bool) {
	mod, ok := r.AliasToModule[alias]
	if !ok {
		return "", false
	}
	return baseModuleName(mod), true
}

// NearImport reports whether lineno is within window lines of any import
// statement in the file.
func (r *ImportResolver) NearImport(lineno, window int) bool {
	for li := range r.ImportLines {
		d := lineno - li
		if d < 0 {
			d = -d
		}
		if d <= window {
			return true
		}
	}
	return false
}

func lastSegment(mod string) string {
	for i := len(mod) - 1; i >= 0; i-- {
		if mod[i] == '.' {
			return mod[i+1:]
		}
	}
	return mod
}
