package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/patchwatch/patchwatch/internal/findings"
	"github.com/patchwatch/patchwatch/internal/gitmeta"
	"github.com/patchwatch/patchwatch/pkg/shared/files"
)

// Artifact file names inside a timestamped run directory.
const (
	JSONName    = "report.json"
	CSVName     = "report.csv"
	SummaryName = "SUMMARY.md"
	SARIFName   = "report.sarif"
)

// Writer renders a run's findings into the report artifacts. Every artifact
// is written whole-file at the end of the run.
type Writer struct {
	OutputDir       string
	RepoRoot        string
	ProjectPackages map[string]struct{}
	Blamer          *gitmeta.Blamer // nil disables blame enrichment
	Now             time.Time
	Logger          hclog.Logger
}

// Write enriches findings (when a Blamer is set) and writes all artifacts.
func (w *Writer) Write(all []findings.Finding) error {
	if err := files.CreateFolderIfNotExists(w.OutputDir); err != nil {
		return err
	}

	if w.Blamer != nil {
		for i := range all {
			la := w.Blamer.Lookup(all[i].File, all[i].Line)
			if la == nil {
				continue
			}
			all[i].GitAuthor = findings.StrPtr(la.Author)
			all[i].GitCommit = findings.StrPtr(la.Commit)
			all[i].GitCommitDate = findings.StrPtr(la.CommitDate)
		}
	}

	if err := w.writeJSON(all); err != nil {
		return err
	}
	if err := w.writeCSV(all); err != nil {
		return err
	}
	if err := w.writeSummary(all); err != nil {
		return err
	}
	if err := w.writeSARIF(all); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeJSON(all []findings.Finding) error {
	if all == nil {
		all = []findings.Finding{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	return files.WriteFileAtomic(filepath.Join(w.OutputDir, JSONName), append(data, '\n'))
}

func (w *Writer) writeCSV(all []findings.Finding) error {
	var b strings.Builder
	cw := csv.NewWriter(&b)
	if err := cw.Write([]string{"file", "line", "category", "import_base", "is_test", "is_module_scope", "intent", "code"}); err != nil {
		return err
	}
	for _, f := range all {
		base := ""
		if f.ImportBase != nil {
			base = *f.ImportBase
		}
		record := []string{
			f.File,
			strconv.Itoa(f.Line),
			f.Category,
			base,
			strconv.FormatBool(f.IsTest),
			strconv.FormatBool(f.IsModuleScope),
			f.Intent,
			f.Code,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return files.WriteFileAtomic(filepath.Join(w.OutputDir, CSVName), []byte(b.String()))
}

func (w *Writer) writeSummary(all []findings.Finding) error {
	byCategory := map[string]int{}
	byImportBase := map[string]int{}
	byFile := map[string]int{}
	for _, f := range all {
		byCategory[f.Category]++
		if f.ImportBase != nil {
			byImportBase[*f.ImportBase]++
		}
		byFile[f.File]++
	}

	externals := map[string]int{}
	for base, count := range byImportBase {
		if _, owned := w.ProjectPackages[base]; !owned {
			externals[base] = count
		}
	}

	var lines []string
	lines = append(lines, "# Monkey Patch Scan Summary", "")
	lines = append(lines, fmt.Sprintf("Date: %s", w.Now.Format(time.RFC3339)), "")
	lines = append(lines, "## Totals by Category", "")
	for _, kv := range sortedByName(byCategory) {
		lines = append(lines, fmt.Sprintf("- %s: %d", kv.name, kv.count))
	}
	lines = append(lines, "", "## Top Externals Patched", "")
	for _, kv := range topN(externals, 10) {
		lines = append(lines, fmt.Sprintf("- %s: %d", kv.name, kv.count))
	}
	lines = append(lines, "", "## Files with Highest Patch Count", "")
	for _, kv := range topN(byFile, 10) {
		lines = append(lines, fmt.Sprintf("- %s: %d", kv.name, kv.count))
	}

	if len(byImportBase) > 0 {
		lines = append(lines, "", "## Patches Grouped by Package", "")
		lines = append(lines, "| Package | Count |", "|---|---:|")
		for _, kv := range topN(byImportBase, len(byImportBase)) {
			lines = append(lines, fmt.Sprintf("| %s | %d |", kv.name, kv.count))
		}
	}

	lines = append(lines, "", "## Next Steps", "")
	lines = append(lines,
		"- [ ] Review global mutations (builtins, os.environ) and confine to startup phases.",
		"- [ ] Replace module-scope patches with context-managed patches in tests.",
		"- [ ] Isolate import-time overrides behind flags or dependency injection.",
		"- [ ] Add targeted tests for any retained patches with clear rationale.",
	)

	content := strings.Join(lines, "\n") + "\n"
	return files.WriteFileAtomic(filepath.Join(w.OutputDir, SummaryName), []byte(content))
}

type nameCount struct {
	name  string
	count int
}

// topN returns up to n entries ordered by descending count, name ascending.
func topN(m map[string]int, n int) []nameCount {
	entries := make([]nameCount, 0, len(m))
	for name, count := range m {
		entries = append(entries, nameCount{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// sortedByName returns entries in ascending name order.
func sortedByName(m map[string]int) []nameCount {
	entries := make([]nameCount, 0, len(m))
	for name, count := range m {
		entries = append(entries, nameCount{name, count})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries
}
