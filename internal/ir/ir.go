package ir

import (
	"fmt"
	"time"
)

const Version = "1.0"

// Severity of a single finding. Serialized lowercase.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Rank maps severities to a comparable weight (higher = more severe).
// Unknown severities rank below hint.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 4
	case SeverityWarning:
		return 3
	case SeverityInfo:
		return 2
	case SeverityHint:
		return 1
	}
	return 0
}

// Category is the coarse grouping a rule belongs to.
type Category string

const (
	CategoryCodeIntegrity            Category = "code_integrity"
	CategoryParameterValidation      Category = "parameter_validation"
	CategoryImplementationValidation Category = "implementation_validation"
	CategoryCustom                   Category = "custom"
)

// SourceFile is one changed file in the analyzed set.
type SourceFile struct {
	Filepath string `json:"filepath"`
	Content  string `json:"content"`
}

// RuleResult is one reported finding. Treated as immutable once built.
type RuleResult struct {
	RuleID         string         `json:"rule_id"`
	Severity       Severity       `json:"severity"`
	Message        string         `json:"message"`
	Filepath       string         `json:"filepath"`
	Line           int            `json:"line,omitempty"`
	Column         int            `json:"column,omitempty"`
	CodeSnippet    string         `json:"code_snippet,omitempty"`
	FixSuggestions []string       `json:"fix_suggestions,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ToMap returns the plain key-value form used for persistence across
// process boundaries. Optional fields are omitted when unset.
func (r RuleResult) ToMap() map[string]any {
	m := map[string]any{
		"rule_id":  r.RuleID,
		"severity": string(r.Severity),
		"message":  r.Message,
		"filepath": r.Filepath,
	}
	if r.Line > 0 {
		m["line"] = r.Line
	}
	if r.Column > 0 {
		m["column"] = r.Column
	}
	if r.CodeSnippet != "" {
		m["code_snippet"] = r.CodeSnippet
	}
	if len(r.FixSuggestions) > 0 {
		m["fix_suggestions"] = append([]string(nil), r.FixSuggestions...)
	}
	if len(r.Metadata) > 0 {
		meta := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		m["metadata"] = meta
	}
	return m
}

// ResultFromMap rebuilds a RuleResult from its plain-map form.
func ResultFromMap(m map[string]any) (RuleResult, error) {
	var r RuleResult
	var ok bool
	if r.RuleID, ok = m["rule_id"].(string); !ok {
		return RuleResult{}, fmt.Errorf("result map: missing rule_id")
	}
	if sev, ok := m["severity"].(string); ok {
		r.Severity = Severity(sev)
	}
	r.Message, _ = m["message"].(string)
	r.Filepath, _ = m["filepath"].(string)
	r.Line = asInt(m["line"])
	r.Column = asInt(m["column"])
	r.CodeSnippet, _ = m["code_snippet"].(string)
	switch fs := m["fix_suggestions"].(type) {
	case []string:
		r.FixSuggestions = append([]string(nil), fs...)
	case []any:
		for _, v := range fs {
			if s, ok := v.(string); ok {
				r.FixSuggestions = append(r.FixSuggestions, s)
			}
		}
	}
	if meta, ok := m["metadata"].(map[string]any); ok {
		r.Metadata = meta
	}
	return r, nil
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Run is one persisted analysis run over a change set.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	PR        map[string]string `json:"pr,omitempty"`
	FileCount int               `json:"file_count,omitempty"`
	Stats     *RunStats         `json:"stats,omitempty"`
	Results   []RuleResult      `json:"results,omitempty"`
}

// RunStats are size measurements of the analyzed change set.
type RunStats struct {
	Files        int `json:"files"`
	Lines        int `json:"lines"`
	BlankLines   int `json:"blank_lines"`
	CommentLines int `json:"comment_lines"`
	Functions    int `json:"functions"`
	Classes      int `json:"classes"`
}

// Summary holds the aggregated counts for a report.
type Summary struct {
	TotalIssues      int            `json:"total_issues"`
	IssuesBySeverity map[string]int `json:"issues_by_severity"`
	IssuesByRule     map[string]int `json:"issues_by_rule"`
	IssuesByFile     map[string]int `json:"issues_by_file"`
}

// Report is the grouped view of one run's results. Derived, never persisted
// on its own; the flat result list is the source of truth.
type Report struct {
	Summary           Summary                 `json:"summary"`
	ResultsBySeverity map[string][]RuleResult `json:"results_by_severity"`
	ResultsByRule     map[string][]RuleResult `json:"results_by_rule"`
	ResultsByFile     map[string][]RuleResult `json:"results_by_file"`
	AllResults        []RuleResult            `json:"all_results"`
}
