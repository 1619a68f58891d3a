package pyscan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PythonFiles walks repoRoot sequentially and returns every .py file not
// excluded by directory name or glob pattern, in walk order.
func PythonFiles(repoRoot string, excludeDirs, excludeGlobs []string) ([]string, error) {
	excluded := make(map[string]struct{}, len(excludeDirs))
	for _, d := range excludeDirs {
		excluded[d] = struct{}{}
	}

	var paths []string
	err := filepath.WalkDir(repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == repoRoot {
				return nil
			}
			if _, skip := excluded[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		rel, err := filepath.Rel(repoRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, part := range strings.Split(rel, "/") {
			if _, skip := excluded[part]; skip {
				return nil
			}
		}
		for _, pattern := range excludeGlobs {
			if matchGlob(pattern, rel) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// DetectProjectPackages returns the default "project-owned" top-level
// package set: any non-hidden top-level directory containing at least one
// Python file, plus an implicit "tests" package.
func DetectProjectPackages(repoRoot string) (map[string]struct{}, error) {
	pkgs := map[string]struct{}{"tests": {}}

	entries, err := os.ReadDir(repoRoot)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		hasPy := false
		filepath.WalkDir(filepath.Join(repoRoot, name), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".py") {
				hasPy = true
				return filepath.SkipAll
			}
			return nil
		})
		if hasPy {
			pkgs[name] = struct{}{}
		}
	}
	return pkgs, nil
}

// matchGlob matches a slash-separated relative path against a glob pattern
// where "**" spans path separators. The standard library matcher stops at
// separators, so the double-star form is resolved segment by segment.
func matchGlob(pattern, path string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		// "**" matches zero or more leading segments.
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}
