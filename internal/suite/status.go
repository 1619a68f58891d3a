package suite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/patchwatch/patchwatch/pkg/shared/files"
)

// Status artifact names inside a run's log directory.
const (
	StatusJSONName = "status.json"
	StatusMDName   = "status.md"
)

// writeStatus writes status.json and a compact human-readable status.md.
func (r *Runner) writeStatus(run *RunStatus) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	if err := files.WriteFileAtomic(filepath.Join(r.LogDir, StatusJSONName), append(data, '\n')); err != nil {
		return err
	}

	lines := []string{"# Health Suite Run Status", ""}
	for idx, s := range run.Steps {
		mark := "❌"
		switch {
		case s.Status == StatusOK:
			mark = "✅"
		case s.Skipped:
			mark = "⚠️"
		}
		code := "-"
		if s.ExitCode != nil {
			code = fmt.Sprintf("%d", *s.ExitCode)
		}
		lines = append(lines, fmt.Sprintf("%02d. %s %s — %s (exit=%s, %gs)", idx+1, mark, s.Name, s.Status, code, s.DurationSec))
		if s.ErrorLog != "" {
			lines = append(lines, fmt.Sprintf("    ↳ error log: %s", s.ErrorLog))
		}
	}
	return files.WriteFileAtomic(filepath.Join(r.LogDir, StatusMDName), []byte(strings.Join(lines, "\n")+"\n"))
}
