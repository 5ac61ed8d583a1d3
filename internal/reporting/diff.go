package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codewithboateng/prlint/internal/ir"
)

type diffPayload struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary diffSummary   `json:"summary"`
	New     []diffResult  `json:"new"`
	Fixed   []diffResult  `json:"fixed"`
	Changed []diffChanged `json:"changed"`
}

type diffSummary struct {
	NewCount     int `json:"new"`
	FixedCount   int `json:"fixed"`
	ChangedCount int `json:"changed"`
}

type diffResult struct {
	RuleID   string `json:"rule_id"`
	Filepath string `json:"filepath"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

type diffChanged struct {
	Key     string     `json:"key"`
	Base    diffResult `json:"base"`
	Head    diffResult `json:"head"`
	Changed []string   `json:"fields_changed"`
}

// WriteDiffJSON compares two runs and writes the new, fixed, and changed
// results between them. Identity is rule + file + message, so a finding
// that merely moved to another line shows up as changed, not as new+fixed.
func WriteDiffJSON(baseID, headID, outDir string, base, head *ir.Run) (string, error) {
	path := filepath.Join(outDir, "diff_"+baseID+"__"+headID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	// index results
	bm := map[string]ir.RuleResult{}
	hm := map[string]ir.RuleResult{}
	for _, r := range base.Results {
		bm[keyOf(r)] = r
	}
	for _, r := range head.Results {
		hm[keyOf(r)] = r
	}

	var added []diffResult
	var fixed []diffResult
	var changed []diffChanged

	// additions & changes
	for k, hr := range hm {
		if br, ok := bm[k]; !ok {
			added = append(added, asDiff(hr))
		} else {
			var fields []string
			if br.Severity != hr.Severity {
				fields = append(fields, "severity")
			}
			if br.Line != hr.Line {
				fields = append(fields, "line")
			}
			if len(fields) > 0 {
				changed = append(changed, diffChanged{
					Key:     k,
					Base:    asDiff(br),
					Head:    asDiff(hr),
					Changed: fields,
				})
			}
		}
	}
	// fixed
	for k, br := range bm {
		if _, ok := hm[k]; !ok {
			fixed = append(fixed, asDiff(br))
		}
	}

	// stable sort
	sort.Slice(added, func(i, j int) bool { return diffLess(added[i], added[j]) })
	sort.Slice(fixed, func(i, j int) bool { return diffLess(fixed[i], fixed[j]) })
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	payload := diffPayload{
		BaseID: baseID, HeadID: headID,
		Summary: diffSummary{
			NewCount:     len(added),
			FixedCount:   len(fixed),
			ChangedCount: len(changed),
		},
		New:     added,
		Fixed:   fixed,
		Changed: changed,
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func diffLess(a, b diffResult) bool {
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	if a.Filepath != b.Filepath {
		return a.Filepath < b.Filepath
	}
	return a.Line < b.Line
}

func keyOf(r ir.RuleResult) string {
	sb := strings.Builder{}
	sb.WriteString(strings.TrimSpace(r.RuleID))
	sb.WriteByte('|')
	sb.WriteString(strings.TrimSpace(r.Filepath))
	sb.WriteByte('|')
	// message carries the specifics (names, counts) that make the
	// finding logically distinct within a file
	sb.WriteString(strings.TrimSpace(r.Message))
	return sb.String()
}

func asDiff(r ir.RuleResult) diffResult {
	return diffResult{
		RuleID:   r.RuleID,
		Filepath: r.Filepath,
		Line:     r.Line,
		Severity: string(r.Severity),
		Message:  r.Message,
	}
}
