package trend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/patchwatch/patchwatch/internal/findings"
	"github.com/patchwatch/patchwatch/pkg/shared/files"
)

// Output artifact names. The latest-vs-previous summary lands both at the
// base directory and co-located with the latest scan.
const (
	LatestMDName   = "trend_latest.md"
	LatestJSONName = "trend_latest.json"
	ScanMDName     = "trend.md"
	reportName     = "report.json"
)

// Scan is one timestamped scan directory with its parsed findings.
type Scan struct {
	TS       string
	Dir      string
	Findings []findings.Finding
}

// FindScans loads every subdirectory of baseDir that contains a report.json,
// in ascending timestamp order. Unreadable or malformed reports are skipped.
func FindScans(baseDir string, logger hclog.Logger) []Scan {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil
	}
	var scans []Scan
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(baseDir, e.Name())
		data, err := os.ReadFile(filepath.Join(dir, reportName))
		if err != nil {
			continue
		}
		var all []findings.Finding
		if err := json.Unmarshal(data, &all); err != nil {
			logger.Debug("skipping malformed report", "dir", dir, "error", err)
			continue
		}
		scans = append(scans, Scan{TS: e.Name(), Dir: dir, Findings: all})
	}
	sort.Slice(scans, func(i, j int) bool { return scans[i].TS < scans[j].TS })
	return scans
}

type counts struct {
	byCategory map[string]int
	byImport   map[string]int
	byFile     map[string]int
}

func aggCounts(all []findings.Finding) counts {
	c := counts{
		byCategory: map[string]int{},
		byImport:   map[string]int{},
		byFile:     map[string]int{},
	}
	for i := range all {
		f := &all[i]
		cat := f.Category
		if cat == "" {
			cat = "<unknown>"
		}
		c.byCategory[cat]++
		base := "<none>"
		if f.ImportBase != nil && *f.ImportBase != "" {
			base = *f.ImportBase
		}
		c.byImport[base]++
		file := f.File
		if file == "" {
			file = "<unknown>"
		}
		c.byFile[file]++
	}
	return c
}

// policyFindings keeps only non-test findings. Policy metrics focus on
// runtime code and ignore fixtures that patch behavior on purpose.
func policyFindings(all []findings.Finding) []findings.Finding {
	var kept []findings.Finding
	for _, f := range all {
		if !f.IsTest {
			kept = append(kept, f)
		}
	}
	return kept
}

// DeltaRow is one (name, prev, cur, delta) comparison row, serialized as a
// four-element JSON array.
type DeltaRow struct {
	Name  string
	Prev  int
	Cur   int
	Delta int
}

func (r DeltaRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]interface{}{r.Name, r.Prev, r.Cur, r.Delta})
}

func (r *DeltaRow) UnmarshalJSON(data []byte) error {
	var raw [4]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &r.Name); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &r.Prev); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[2], &r.Cur); err != nil {
		return err
	}
	return json.Unmarshal(raw[3], &r.Delta)
}

// ScanStats is the per-scan entry in the summary.
type ScanStats struct {
	TS               string         `json:"ts"`
	Dir              string         `json:"dir"`
	Total            int            `json:"total"`
	ByCategory       map[string]int `json:"by_category"`
	PolicyTotal      int            `json:"policy_total"`
	PolicyByCategory map[string]int `json:"policy_by_category"`
}

// ScanRef identifies one side of a latest-vs-previous comparison.
type ScanRef struct {
	TS          string `json:"ts"`
	Total       int    `json:"total"`
	PolicyTotal int    `json:"policy_total"`
}

// Comparison holds the delta tables between the latest two scans.
type Comparison struct {
	Prev                 ScanRef    `json:"prev"`
	Cur                  ScanRef    `json:"cur"`
	Carryover            Carryover  `json:"carryover"`
	ByCategoryRows       []DeltaRow `json:"by_category_rows"`
	TopImportDeltas      []DeltaRow `json:"top_import_deltas"`
	TopFileDeltas        []DeltaRow `json:"top_file_deltas"`
	PolicyByCategoryRows []DeltaRow `json:"policy_by_category_rows"`
}

// Summary is the machine-readable trend output.
type Summary struct {
	Scans        []ScanStats `json:"scans"`
	LatestVsPrev *Comparison `json:"latest_vs_prev"`
}

// BuildSummary aggregates per-scan stats and, when at least two scans are
// present, the latest-vs-previous comparison.
func BuildSummary(scans []Scan) *Summary {
	summary := &Summary{Scans: []ScanStats{}}
	for _, s := range scans {
		c := aggCounts(s.Findings)
		policy := policyFindings(s.Findings)
		pc := aggCounts(policy)
		summary.Scans = append(summary.Scans, ScanStats{
			TS:               s.TS,
			Dir:              s.Dir,
			Total:            len(s.Findings),
			ByCategory:       c.byCategory,
			PolicyTotal:      len(policy),
			PolicyByCategory: pc.byCategory,
		})
	}
	if len(scans) < 2 {
		return summary
	}

	prev, cur := scans[len(scans)-2], scans[len(scans)-1]
	pc, cc := aggCounts(prev.Findings), aggCounts(cur.Findings)
	prevPolicy, curPolicy := policyFindings(prev.Findings), policyFindings(cur.Findings)
	ppc, cpc := aggCounts(prevPolicy), aggCounts(curPolicy)

	catRows := deltaRows(pc.byCategory, cc.byCategory, false)
	sort.SliceStable(catRows, func(i, j int) bool { return abs(catRows[i].Delta) > abs(catRows[j].Delta) })

	impRows := deltaRows(pc.byImport, cc.byImport, true)
	sort.SliceStable(impRows, func(i, j int) bool { return impRows[i].Delta > impRows[j].Delta })
	if len(impRows) > 15 {
		impRows = impRows[:15]
	}

	fileRows := deltaRows(pc.byFile, cc.byFile, true)
	sort.SliceStable(fileRows, func(i, j int) bool { return fileRows[i].Delta > fileRows[j].Delta })
	if len(fileRows) > 15 {
		fileRows = fileRows[:15]
	}

	summary.LatestVsPrev = &Comparison{
		Prev:                 ScanRef{TS: prev.TS, Total: len(prev.Findings), PolicyTotal: len(prevPolicy)},
		Cur:                  ScanRef{TS: cur.TS, Total: len(cur.Findings), PolicyTotal: len(curPolicy)},
		Carryover:            correlateFindings(prev.Findings, cur.Findings),
		ByCategoryRows:       catRows,
		TopImportDeltas:      impRows,
		TopFileDeltas:        fileRows,
		PolicyByCategoryRows: deltaRows(ppc.byCategory, cpc.byCategory, false),
	}
	return summary
}

// deltaRows joins two count maps into comparison rows in ascending name
// order. With changedOnly, rows whose count did not move are dropped.
func deltaRows(prev, cur map[string]int, changedOnly bool) []DeltaRow {
	names := map[string]struct{}{}
	for name := range prev {
		names[name] = struct{}{}
	}
	for name := range cur {
		names[name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	rows := make([]DeltaRow, 0, len(sorted))
	for _, name := range sorted {
		pv, cv := prev[name], cur[name]
		if changedOnly && pv == cv {
			continue
		}
		rows = append(rows, DeltaRow{Name: name, Prev: pv, Cur: cv, Delta: cv - pv})
	}
	return rows
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func fmtTable(rows []DeltaRow, headers [4]string) string {
	var out []string
	out = append(out, fmt.Sprintf("| %s | %s | %s | %s |", headers[0], headers[1], headers[2], headers[3]))
	out = append(out, "|---|---:|---:|---:|")
	for _, r := range rows {
		sign := ""
		if r.Delta > 0 {
			sign = "+"
		}
		out = append(out, fmt.Sprintf("| %s | %d | %d | %s%d |", r.Name, r.Prev, r.Cur, sign, r.Delta))
	}
	return strings.Join(out, "\n")
}

// WriteOutputs renders the summary to trend_latest.md/json under baseDir and
// a copy of the Markdown into the latest scan directory.
func WriteOutputs(baseDir, latestDir string, summary *Summary, recentN int, now time.Time) error {
	if recentN < 1 {
		recentN = 1
	}

	var lines []string
	lines = append(lines, "# Monkey Patch Trend Summary", "")
	lines = append(lines, fmt.Sprintf("Generated: %s", now.UTC().Format("2006-01-02T15:04:05Z")), "")

	scans := summary.Scans
	if len(scans) == 0 {
		lines = append(lines, "No scans found under base directory.")
	} else {
		lines = append(lines, "## Scans Overview", "")
		recent := scans
		if len(recent) > recentN {
			recent = recent[len(recent)-recentN:]
		}
		lines = append(lines, fmt.Sprintf("Showing last %d scans (most recent last):", len(recent)), "")
		lines = append(lines, "| Timestamp | Total | Δ vs prev |", "|---|---:|---:|")
		offset := len(scans) - len(recent)
		for idx, s := range recent {
			delta := "n/a"
			if offset+idx > 0 {
				prevTotal := scans[offset+idx-1].Total
				delta = fmt.Sprintf("%+d", s.Total-prevTotal)
			}
			lines = append(lines, fmt.Sprintf("| %s | %d | %s |", s.TS, s.Total, delta))
		}
		lines = append(lines, "")
		bullets := scans
		if len(bullets) > 10 {
			bullets = bullets[len(bullets)-10:]
		}
		for _, s := range bullets {
			lines = append(lines, fmt.Sprintf("- %s: total=%d", s.TS, s.Total))
		}
		lines = append(lines, "")
	}

	if cmp := summary.LatestVsPrev; cmp != nil {
		lines = append(lines, fmt.Sprintf("## Latest vs Previous\n\n- prev: %s\n- curr: %s", cmp.Prev.TS, cmp.Cur.TS), "")
		lines = append(lines, "### Carryover")
		lines = append(lines, fmt.Sprintf("- persisted: %d", cmp.Carryover.Persisted))
		lines = append(lines, fmt.Sprintf("- new: %d", cmp.Carryover.New))
		lines = append(lines, fmt.Sprintf("- resolved: %d", cmp.Carryover.Resolved), "")
		lines = append(lines, "### By Category")
		lines = append(lines, fmtTable(cmp.ByCategoryRows, [4]string{"Category", "Prev", "Curr", "Δ"}), "")
		if len(cmp.PolicyByCategoryRows) > 0 {
			lines = append(lines, "### Policy (non-test only) — By Category")
			lines = append(lines, fmtTable(cmp.PolicyByCategoryRows, [4]string{"Category", "Prev", "Curr", "Δ"}), "")
		}
		if len(cmp.TopImportDeltas) > 0 {
			lines = append(lines, "### Top import_base increases")
			lines = append(lines, fmtTable(cmp.TopImportDeltas, [4]string{"import_base", "Prev", "Curr", "Δ"}), "")
		}
		if len(cmp.TopFileDeltas) > 0 {
			lines = append(lines, "### Files with largest increases")
			lines = append(lines, fmtTable(cmp.TopFileDeltas, [4]string{"file", "Prev", "Curr", "Δ"}), "")
		}
	} else {
		lines = append(lines, "Note: fewer than two scans available; add another scan to see deltas.")
	}

	content := []byte(strings.Join(lines, "\n") + "\n")
	if err := files.WriteFileAtomic(filepath.Join(baseDir, LatestMDName), content); err != nil {
		return err
	}
	if err := files.WriteFileAtomic(filepath.Join(latestDir, ScanMDName), content); err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return files.WriteFileAtomic(filepath.Join(baseDir, LatestJSONName), append(data, '\n'))
}
