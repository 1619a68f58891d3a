package risk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/patchwatch/patchwatch/internal/findings"
	"github.com/patchwatch/patchwatch/pkg/shared/files"
)

// Risk levels, from most to least severe.
const (
	LevelHigh     = "HIGH"
	LevelModerate = "MODERATE"
	LevelSafe     = "SAFE"
)

// Summary artifact file names, written next to the scan's report.json.
const (
	JSONName = "RISK_SUMMARY.json"
	MDName   = "RISK_SUMMARY.md"
)

// Classify maps a finding to a risk level. Enforcement is out of scope; the
// levels drive reporting only.
func Classify(f *findings.Finding) string {
	switch {
	case (f.Category == findings.CategorySysModules || f.Category == findings.CategoryImportTime) && !f.IsTest:
		return LevelHigh
	case f.Category == findings.CategoryGlobalEnv && !f.IsTest && f.IsModuleScope:
		return LevelHigh
	case f.Category == findings.CategoryAttributeReassignment && !f.IsTest:
		return LevelModerate
	case f.Category == findings.CategoryGlobalEnv && f.IsTest:
		return LevelModerate
	}
	return LevelSafe
}

// Entry is a (name, count) pair serialized as a two-element JSON array, the
// shape consumers of top_files and top_categories expect.
type Entry struct {
	Name  string
	Count int
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{e.Name, e.Count})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.Name); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &e.Count)
}

// Aggregate groups findings by risk level and tallies the most patched files
// and categories.
type Aggregate struct {
	CountsByRisk  map[string]int `json:"counts_by_risk"`
	TopFiles      []Entry        `json:"top_files"`
	TopCategories []Entry        `json:"top_categories"`
}

// Build computes the aggregate for a set of findings.
func Build(all []findings.Finding) *Aggregate {
	counts := map[string]int{}
	fileCounts := map[string]int{}
	catCounts := map[string]int{}
	for i := range all {
		counts[Classify(&all[i])]++
		fileCounts[all[i].File]++
		catCounts[all[i].Category]++
	}
	return &Aggregate{
		CountsByRisk:  counts,
		TopFiles:      mostCommon(fileCounts, 10),
		TopCategories: mostCommon(catCounts, len(catCounts)),
	}
}

func mostCommon(m map[string]int, n int) []Entry {
	entries := make([]Entry, 0, len(m))
	for name, count := range m {
		entries = append(entries, Entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// LatestScanDir returns the most recent timestamped scan directory under
// root. Scan dirs are named by timestamp, so lexicographic order is
// chronological.
func LatestScanDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("failed to read scan root %s: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > 0 && e.Name()[0] >= '0' && e.Name()[0] <= '9' {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no scan dirs under %s", root)
	}
	sort.Strings(names)
	return filepath.Join(root, names[len(names)-1]), nil
}

// LoadFindings reads a scan's report.json.
func LoadFindings(reportPath string) ([]findings.Finding, error) {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", reportPath, err)
	}
	var all []findings.Finding
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", reportPath, err)
	}
	return all, nil
}

// WriteOutputs writes RISK_SUMMARY.json and RISK_SUMMARY.md into scanDir.
func WriteOutputs(scanDir string, agg *Aggregate) error {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return err
	}
	if err := files.WriteFileAtomic(filepath.Join(scanDir, JSONName), append(data, '\n')); err != nil {
		return err
	}

	md := []string{"# Monkey-Patch Risk Summary", "", "## Counts by Risk"}
	for _, level := range []string{LevelHigh, LevelModerate, LevelSafe} {
		md = append(md, fmt.Sprintf("- %s: %d", level, agg.CountsByRisk[level]))
	}
	md = append(md, "", "## Top Files")
	for _, e := range agg.TopFiles {
		md = append(md, fmt.Sprintf("- %s: %d", e.Name, e.Count))
	}
	md = append(md, "", "## Top Categories")
	for _, e := range agg.TopCategories {
		md = append(md, fmt.Sprintf("- %s: %d", e.Name, e.Count))
	}
	return files.WriteFileAtomic(filepath.Join(scanDir, MDName), []byte(strings.Join(md, "\n")+"\n"))
}

// StatusLine is the compact machine-readable line the classify command
// prints on success.
type StatusLine struct {
	Status        string         `json:"status"`
	Dir           string         `json:"dir"`
	CountsByRisk  map[string]int `json:"counts_by_risk"`
	TopFiles      []Entry        `json:"top_files"`
	TopCategories []Entry        `json:"top_categories"`
}
