package rules

import (
	"fmt"

	"github.com/codewithboateng/prlint/internal/ir"
)

// Definition describes a rule type: identity, categorization, default
// enablement, dependencies on other rules, default configuration, and the
// constructor that binds a merged configuration into a runnable instance.
type Definition struct {
	ID           string
	Name         string
	Description  string
	Category     ir.Category
	Severity     ir.Severity
	Enabled      bool
	Dependencies []string
	Defaults     map[string]any

	New func(cfg map[string]any) Rule
}

// Rule is one configured rule instance. Instances are stateless across runs
// apart from their merged configuration.
type Rule interface {
	// Applicable reports whether the rule should run at all for this
	// context (for example, whether any supported files are present).
	Applicable(ctx *Context) bool

	// Analyze inspects the context and returns findings. A returned error
	// (or a panic) is isolated by the Analyzer: the rule contributes zero
	// results and the run continues.
	Analyze(ctx *Context) ([]ir.RuleResult, error)
}

// DuplicateRuleError reports a second registration under an existing id.
type DuplicateRuleError struct {
	ID string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is already registered", e.ID)
}

// CircularDependencyError reports a dependency cycle, naming one rule on it.
type CircularDependencyError struct {
	RuleID string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency involving rule %q", e.RuleID)
}

// InvalidConfigError reports an unreadable or malformed configuration
// document. No partial configuration is applied when it is returned.
type InvalidConfigError struct {
	Reason string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid rule configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid rule configuration: %s", e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// options wraps a merged rule configuration map with tolerant typed getters.
// YAML decoding may deliver ints as int or float64; both are accepted.
type options map[string]any

func (o options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (o options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

func (o options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// Numbers returns the values under key as floats, accepting []any with mixed
// numeric element types. Returns def when the key is absent or malformed.
func (o options) Numbers(key string, def []float64) []float64 {
	raw, ok := o[key]
	if !ok {
		return def
	}
	switch vs := raw.(type) {
	case []float64:
		return vs
	case []int:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return out
	case []any:
		out := make([]float64, 0, len(vs))
		for _, v := range vs {
			switch n := v.(type) {
			case int:
				out = append(out, float64(n))
			case int64:
				out = append(out, float64(n))
			case float64:
				out = append(out, n)
			}
		}
		return out
	}
	return def
}
