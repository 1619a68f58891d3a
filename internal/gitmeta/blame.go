package gitmeta

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-hclog"
)

// LineAuthorship is blame metadata for a single source line.
type LineAuthorship struct {
	Author     string
	Commit     string
	CommitDate string
}

// Blamer resolves line authorship against a repository's history in-process.
// Blame results are cached per file since findings cluster within files.
type Blamer struct {
	repo   *git.Repository
	head   *object.Commit
	cache  map[string]*git.BlameResult
	logger hclog.Logger
}

// NewBlamer opens the repository containing repoRoot. An error here means
// blame enrichment is unavailable for the whole run; per-line failures later
// are tolerated individually.
func NewBlamer(repoRoot string, logger hclog.Logger) (*Blamer, error) {
	repo, err := git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %q: %w", repoRoot, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	return &Blamer{
		repo:   repo,
		head:   commit,
		cache:  make(map[string]*git.BlameResult),
		logger: logger,
	}, nil
}

// Lookup returns authorship for one line of a repository-relative file.
// Any failure returns nil: the caller leaves the blame fields empty.
func (b *Blamer) Lookup(relPath string, lineno int) *LineAuthorship {
	result, ok := b.cache[relPath]
	if !ok {
		var err error
		result, err = git.Blame(b.head, relPath)
		if err != nil {
			b.logger.Debug("blame lookup failed", "file", relPath, "error", err)
			result = nil
		}
		b.cache[relPath] = result
	}
	if result == nil || lineno < 1 || lineno > len(result.Lines) {
		return nil
	}
	line := result.Lines[lineno-1]
	return &LineAuthorship{
		Author:     line.AuthorName,
		Commit:     line.Hash.String(),
		CommitDate: line.Date.UTC().Format(time.RFC3339),
	}
}
