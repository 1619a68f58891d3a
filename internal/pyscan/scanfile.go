package pyscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patchwatch/patchwatch/internal/findings"
)

// Options carries per-run scanner settings shared by every file. Ownership
// of packages only matters to the report writer, so it is not part of these.
type Options struct {
	RepoRoot         string
	ContextLines     int
	NearImportWindow int
	Strict           bool
}

// ScanFile scans one Python file and returns its findings. A parse failure
// yields no findings and ErrParse; the caller decides whether that is fatal
// (strict mode) or merely logged.
func ScanFile(ctx context.Context, opts Options, path string) ([]findings.Finding, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	lines := splitLines(string(src))

	tree, err := Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	defer tree.Close()

	relPath := relativeTo(opts.RepoRoot, path)
	root := tree.RootNode()
	resolver := NewImportResolver(root, src)

	scanner := &treeScanner{
		relPath:          relPath,
		src:              src,
		lines:            lines,
		resolver:         resolver,
		contextLines:     opts.ContextLines,
		nearImportWindow: opts.NearImportWindow,
		isTest:           IsTestPath(relPath),
	}
	found := scanner.Scan(root)

	// Secondary text pass, merged behind the tree pass. Disabled in strict
	// mode, where the tree is trusted to be complete.
	if !opts.Strict {
		seen := make(map[findings.Key]struct{}, len(found))
		for i := range found {
			seen[found[i].DedupKey()] = struct{}{}
		}
		for _, hit := range regexFallback(lines) {
			key := findings.Key{File: relPath, Line: hit.Line, Category: hit.Category}
			if _, dup := seen[key]; dup {
				continue
			}
			found = append(found, fallbackFinding(relPath, lines, hit, opts.ContextLines))
		}
	}
	return found, nil
}

// fallbackFinding builds the minimal record for a text-pass candidate. Scope
// is unknown from text alone; module scope is assumed so the hit surfaces.
func fallbackFinding(relPath string, lines []string, hit fallbackHit, contextLines int) findings.Finding {
	code := ""
	if hit.Line >= 1 && hit.Line <= len(lines) {
		code = strings.TrimRight(lines[hit.Line-1], " \t")
	}
	isTest := IsTestPath(relPath)
	return findings.Finding{
		File:          relPath,
		Line:          hit.Line,
		Code:          code,
		Category:      hit.Category,
		Intent:        findings.ClassifyIntent(hit.Category, false, isTest),
		IsTest:        isTest,
		IsModuleScope: true,
		NearbyComment: findings.StrPtr(nearbyComment(lines, hit.Line)),
		Context:       findings.StrPtr(contextWindow(lines, hit.Line, contextLines)),
	}
}

// IsTestPath reports whether the repository-relative path has a "tests"
// component. Purely path-based; framework usage is not inspected.
func IsTestPath(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == "tests" {
			return true
		}
	}
	return false
}

// relativeTo renders path relative to root in slash form, falling back to
// the original path when it lies outside the root.
func relativeTo(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
