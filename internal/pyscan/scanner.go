package pyscan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/patchwatch/patchwatch/internal/findings"
)

// Module attributes on these bases behave as process-wide singletons; a
// rebind of e.g. logging.getLogger is classified on its own.
var knownSingletonBases = map[string]struct{}{
	"logging":  {},
	"warnings": {},
}

// treeScanner walks one file's parse tree and accumulates findings. A fresh
// instance is built per file; nothing is shared across files.
type treeScanner struct {
	relPath          string
	src              []byte
	lines            []string
	resolver         *ImportResolver
	contextLines     int
	nearImportWindow int
	isTest           bool

	scope    ScopeTracker
	findings []findings.Finding
}

// Scan runs the tree-based pass and returns findings in source order.
func (s *treeScanner) Scan(root *sitter.Node) []findings.Finding {
	s.walk(root, false)
	return s.findings
}

// walk dispatches on the small fixed set of node shapes the scanner reacts
// to. inDecorator suppresses the bare patch-call rule while inside decorator
// expressions, which are reported through the decorator rule instead.
func (s *treeScanner) walk(n *sitter.Node, inDecorator bool) {
	switch n.Type() {
	case "assignment", "augmented_assignment":
		s.handleAssignment(n)
	case "call":
		s.handleCall(n, inDecorator)
	case "delete_statement":
		s.handleDelete(n)
	case "decorated_definition":
		s.handleDecorated(n)
	case "decorator":
		inDecorator = true
	case "function_definition":
		s.walkDefinition(scopeFunction, n)
		return
	case "class_definition":
		s.walkDefinition(scopeClass, n)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		s.walk(n.NamedChild(i), inDecorator)
	}
}

// walkDefinition pushes the definition onto the scope stack around its body.
func (s *treeScanner) walkDefinition(kind scopeKind, n *sitter.Node) {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Content(s.src)
	}
	s.scope.Push(kind, name)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		s.walk(n.NamedChild(i), false)
	}
	s.scope.Pop()
}

// handleAssignment covers plain, annotated and augmented assignments.
func (s *treeScanner) handleAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	if left == nil {
		return
	}
	lineno := lineOf(n)
	for _, target := range assignmentTargets(left) {
		s.checkTarget(target, lineno)
	}
}

// assignmentTargets expands tuple/list targets like "a, b = ...".
func assignmentTargets(left *sitter.Node) []*sitter.Node {
	switch left.Type() {
	case "pattern_list", "tuple_pattern", "list_pattern":
		targets := make([]*sitter.Node, 0, left.NamedChildCount())
		for i := 0; i < int(left.NamedChildCount()); i++ {
			targets = append(targets, left.NamedChild(i))
		}
		return targets
	default:
		return []*sitter.Node{left}
	}
}

func (s *treeScanner) checkTarget(target *sitter.Node, lineno int) {
	isModuleScope, fn, cl := s.scope.Current()

	switch target.Type() {
	case "subscript":
		value := target.ChildByFieldName("value")
		if value == nil {
			return
		}
		switch dottedName(value, s.src) {
		case "sys.modules":
			s.add(lineno, findings.CategorySysModules, "sys", isModuleScope, fn, cl)
		case "os.environ":
			s.add(lineno, findings.CategoryGlobalEnv, "os", isModuleScope, fn, cl)
		}

	case "attribute":
		object := target.ChildByFieldName("object")
		if object != nil && object.Type() == "identifier" && object.Content(s.src) == "builtins" {
			s.add(lineno, findings.CategoryBuiltins, "builtins", isModuleScope, fn, cl)
			return
		}

		dotted := dottedName(target, s.src)
		if dotted != "" && strings.Contains(dotted, ".") {
			base := baseModuleName(dotted)
			if _, ok := knownSingletonBases[base]; ok {
				s.add(lineno, findings.CategorySingletonRebind, base, isModuleScope, fn, cl)
				return
			}
		}

		alias := ""
		if object != nil && object.Type() == "identifier" {
			alias = object.Content(s.src)
		} else if dotted != "" && strings.Contains(dotted, ".") {
			alias = strings.SplitN(dotted, ".", 2)[0]
		}
		if alias == "" {
			return
		}
		base, ok := s.resolver.ResolveBase(alias)
		if !ok || base == "" {
			// Unresolvable base: skipping beats guessing on dynamic code.
			return
		}
		s.add(lineno, findings.CategoryAttributeReassignment, base, isModuleScope, fn, cl)
		if isModuleScope && s.resolver.NearImport(lineno, s.nearImportWindow) {
			s.add(lineno, findings.CategoryImportTime, base, isModuleScope, fn, cl)
		}

	case "identifier":
		// Rebinding a name that was itself imported via "from X import name".
		name := target.Content(s.src)
		if from, ok := s.resolver.FromObjects[name]; ok {
			base := baseModuleName(from.Module)
			if base == "" {
				base = baseModuleName(from.Object)
			}
			if base != "" {
				s.add(lineno, findings.CategoryAttributeReassignment, base, isModuleScope, fn, cl)
			}
		}
	}
}

func (s *treeScanner) handleCall(n *sitter.Node, inDecorator bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	lineno := lineOf(n)
	isModuleScope, fnName, clName := s.scope.Current()

	// setattr(target, ...)
	if fn.Type() == "identifier" && fn.Content(s.src) == "setattr" {
		if target := firstArgument(n); target != nil {
			base := ""
			alias := ""
			switch target.Type() {
			case "identifier":
				alias = target.Content(s.src)
			case "attribute":
				if obj := target.ChildByFieldName("object"); obj != nil && obj.Type() == "identifier" {
					alias = obj.Content(s.src)
				}
			}
			if alias != "" {
				base, _ = s.resolver.ResolveBase(alias)
			}
			s.add(lineno, findings.CategorySetattr, base, isModuleScope, fnName, clName)
		}
	}

	if fn.Type() == "attribute" {
		dotted := dottedName(fn, s.src)

		// builtins.setattr(...)
		if dotted == "builtins.setattr" {
			s.add(lineno, findings.CategorySetattr, "builtins", isModuleScope, fnName, clName)
		}

		// os.environ.update(...) / os.environ.setdefault(...)
		if dotted == "os.environ.update" || dotted == "os.environ.setdefault" {
			s.add(lineno, findings.CategoryGlobalEnv, "os", isModuleScope, fnName, clName)
		}
	}

	// patch(...) at module scope without a scoping construct. Intentionally
	// over-inclusive; the risk classifier filters downstream.
	if isModuleScope && !inDecorator && s.isPatchCall(n) {
		s.add(lineno, findings.CategoryTestPatchMisuse, "unittest", isModuleScope, fnName, clName)
	}
}

func (s *treeScanner) handleDelete(n *sitter.Node) {
	lineno := lineOf(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		targets := []*sitter.Node{child}
		if child.Type() == "expression_list" {
			targets = targets[:0]
			for j := 0; j < int(child.NamedChildCount()); j++ {
				targets = append(targets, child.NamedChild(j))
			}
		}
		for _, target := range targets {
			if target.Type() != "subscript" {
				continue
			}
			value := target.ChildByFieldName("value")
			if value != nil && dottedName(value, s.src) == "sys.modules" {
				isModuleScope, fn, cl := s.scope.Current()
				s.add(lineno, findings.CategorySysModules, "sys", isModuleScope, fn, cl)
			}
		}
	}
}

// handleDecorated flags patch(...) decorators applied to module-level
// definitions. Reported as misuse candidates, not definitive misuse.
func (s *treeScanner) handleDecorated(n *sitter.Node) {
	if isModuleScope, _, _ := s.scope.Current(); !isModuleScope {
		return
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return
	}
	defName := ""
	if nameNode := def.ChildByFieldName("name"); nameNode != nil {
		defName = nameNode.Content(s.src)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		dec := n.NamedChild(i)
		if dec.Type() != "decorator" || dec.NamedChildCount() == 0 {
			continue
		}
		expr := dec.NamedChild(0)
		if !s.isPatchDecorator(expr) {
			continue
		}
		lineno := lineOf(dec)
		if def.Type() == "class_definition" {
			s.add(lineno, findings.CategoryTestPatchMisuse, "unittest", true, "", defName)
		} else {
			s.add(lineno, findings.CategoryTestPatchMisuse, "unittest", true, defName, "")
		}
	}
}

// isPatchName reports whether name resolves to unittest.mock.patch,
// best-effort through the alias table.
func (s *treeScanner) isPatchName(name string) bool {
	mapped, ok := s.resolver.AliasToModule[name]
	if !ok {
		return name == "patch"
	}
	return strings.HasSuffix(mapped, ".patch")
}

func (s *treeScanner) isPatchCall(call *sitter.Node) bool {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return false
	}
	switch fn.Type() {
	case "identifier":
		return s.isPatchName(fn.Content(s.src))
	case "attribute":
		dotted := dottedName(fn, s.src)
		return dotted != "" && strings.HasSuffix(dotted, ".patch")
	}
	return false
}

func (s *treeScanner) isPatchDecorator(expr *sitter.Node) bool {
	switch expr.Type() {
	case "call":
		return s.isPatchCall(expr)
	case "identifier":
		return s.isPatchName(expr.Content(s.src))
	case "attribute":
		dotted := dottedName(expr, s.src)
		return dotted != "" && strings.HasSuffix(dotted, ".patch")
	}
	return false
}

// firstArgument returns the first positional argument of a call, if any.
func firstArgument(call *sitter.Node) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

func (s *treeScanner) add(lineno int, category, importBase string, isModuleScope bool, function, class string) {
	code := ""
	if lineno >= 1 && lineno <= len(s.lines) {
		code = strings.TrimRight(s.lines[lineno-1], " \t")
	}
	context := contextWindow(s.lines, lineno, s.contextLines)
	comment := nearbyComment(s.lines, lineno)

	s.findings = append(s.findings, findings.Finding{
		File:          s.relPath,
		Line:          lineno,
		Code:          code,
		Category:      category,
		Intent:        findings.ClassifyIntent(category, importBase != "", s.isTest),
		ImportBase:    findings.StrPtr(importBase),
		IsTest:        s.isTest,
		IsModuleScope: isModuleScope,
		Function:      findings.StrPtr(function),
		ClassName:     findings.StrPtr(class),
		NearbyComment: findings.StrPtr(comment),
		Context:       findings.StrPtr(context),
	})
}
