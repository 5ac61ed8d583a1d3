// Package rulesdsl loads custom rules from a YAML pack. Each entry compiles
// to a line-oriented regex rule in the custom category, so teams can ban
// patterns (debug prints, TODO markers, internal hostnames) without writing
// Go code.
package rulesdsl

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/rules"
)

type dslPack struct {
	Rules []dslRule `yaml:"rules"`
}

type dslRule struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Summary  string `yaml:"summary"`
	Severity string `yaml:"severity"` // error|warning|info|hint
	Message  string `yaml:"message"`

	Where struct {
		PathRegex    string `yaml:"path_regex"`    // regex on filepath (optional)
		ContentRegex string `yaml:"content_regex"` // regex matched per line
	} `yaml:"where"`

	FixSuggestions []string `yaml:"fix_suggestions"`
}

type compiled struct {
	rule      dslRule
	severity  ir.Severity
	rePath    *regexp.Regexp
	reContent *regexp.Regexp
}

// Load parses a YAML pack into rule definitions without registering them.
func Load(path string) ([]*rules.Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules pack: %w", err)
	}
	var pack dslPack
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	var defs []*rules.Definition
	for _, r := range pack.Rules {
		c, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		defs = append(defs, c.definition())
	}
	return defs, nil
}

// RegisterPack loads a pack and registers every rule, returning the count.
func RegisterPack(reg *rules.Registry, path string) (int, error) {
	defs, err := Load(path)
	if err != nil {
		return 0, err
	}
	for i, d := range defs {
		if err := reg.Register(d); err != nil {
			return i, err
		}
	}
	return len(defs), nil
}

func compile(r dslRule) (*compiled, error) {
	if r.ID == "" || r.Message == "" || r.Where.ContentRegex == "" {
		return nil, fmt.Errorf("missing required fields (id/message/where.content_regex)")
	}
	sev := ir.Severity(strings.ToLower(strings.TrimSpace(r.Severity)))
	switch sev {
	case "":
		sev = ir.SeverityWarning
	case ir.SeverityError, ir.SeverityWarning, ir.SeverityInfo, ir.SeverityHint:
	default:
		return nil, fmt.Errorf("unknown severity %q", r.Severity)
	}
	c := &compiled{rule: r, severity: sev}
	if r.Where.PathRegex != "" {
		re, err := regexp.Compile(r.Where.PathRegex)
		if err != nil {
			return nil, fmt.Errorf("path_regex: %w", err)
		}
		c.rePath = re
	}
	re, err := regexp.Compile(r.Where.ContentRegex)
	if err != nil {
		return nil, fmt.Errorf("content_regex: %w", err)
	}
	c.reContent = re
	return c, nil
}

func (c *compiled) definition() *rules.Definition {
	name := c.rule.Name
	if name == "" {
		name = c.rule.ID
	}
	return &rules.Definition{
		ID:          c.rule.ID,
		Name:        name,
		Description: c.rule.Summary,
		Category:    ir.CategoryCustom,
		Severity:    c.severity,
		Enabled:     true,
		New: func(cfg map[string]any) rules.Rule {
			return &regexRule{c: c}
		},
	}
}

type regexRule struct {
	c *compiled
}

func (r *regexRule) Applicable(ctx *rules.Context) bool {
	if r.c.rePath == nil {
		return len(ctx.Files) > 0
	}
	for _, f := range ctx.Files {
		if r.c.rePath.MatchString(f.Filepath) {
			return true
		}
	}
	return false
}

func (r *regexRule) Analyze(ctx *rules.Context) ([]ir.RuleResult, error) {
	var out []ir.RuleResult
	for _, f := range ctx.Files {
		if r.c.rePath != nil && !r.c.rePath.MatchString(f.Filepath) {
			continue
		}
		for i, line := range strings.Split(f.Content, "\n") {
			loc := r.c.reContent.FindStringIndex(line)
			if loc == nil {
				continue
			}
			out = append(out, ir.RuleResult{
				RuleID:         r.c.rule.ID,
				Severity:       r.c.severity,
				Message:        r.c.rule.Message,
				Filepath:       f.Filepath,
				Line:           i + 1,
				Column:         loc[0] + 1,
				CodeSnippet:    snippetLine(line),
				FixSuggestions: r.c.rule.FixSuggestions,
				Metadata:       map[string]any{"pattern": r.c.rule.Where.ContentRegex},
			})
		}
	}
	return out, nil
}

func snippetLine(line string) string {
	txt := strings.TrimRight(line, " \t\r")
	if len(txt) > 120 {
		txt = strings.TrimSpace(txt[:120]) + "..."
	}
	return txt
}
