package rules

import (
	"sort"

	"github.com/codewithboateng/prlint/internal/ir"
)

// Registry holds the known rule definitions keyed by id. Registration is
// explicit: there is no init-time or reflective discovery, and no package
// level instance; callers build a registry and pass it around.
type Registry struct {
	defs map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition. A second registration under the same id fails
// with a *DuplicateRuleError.
func (r *Registry) Register(def *Definition) error {
	if _, exists := r.defs[def.ID]; exists {
		return &DuplicateRuleError{ID: def.ID}
	}
	r.defs[def.ID] = def
	return nil
}

func (r *Registry) Get(id string) (*Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

func (r *Registry) All() map[string]*Definition {
	out := make(map[string]*Definition, len(r.defs))
	for id, def := range r.defs {
		out[id] = def
	}
	return out
}

func (r *Registry) ByCategory(cat ir.Category) map[string]*Definition {
	out := make(map[string]*Definition)
	for id, def := range r.defs {
		if def.Category == cat {
			out[id] = def
		}
	}
	return out
}

// EnabledByDefault returns the definitions whose type-level Enabled flag is
// set, before any configuration overrides.
func (r *Registry) EnabledByDefault() map[string]*Definition {
	out := make(map[string]*Definition)
	for id, def := range r.defs {
		if def.Enabled {
			out[id] = def
		}
	}
	return out
}

// IDs returns all registered ids in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.defs))
	for id := range r.defs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

const (
	colorUnvisited = iota
	colorInProgress
	colorDone
)

// ResolveDependencies orders ids so that every dependency of a rule that is
// itself part of the input set appears strictly before the rule. Depth-first
// topological sort with three-color marking; a back-edge to an in-progress
// node fails with a *CircularDependencyError naming a rule on the cycle.
// Dependencies referencing ids outside the input set (or not registered at
// all) are treated as already satisfied and ignored.
func (r *Registry) ResolveDependencies(ids []string) ([]string, error) {
	inSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}

	color := make(map[string]int, len(ids))
	order := make([]string, 0, len(ids))

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case colorDone:
			return nil
		case colorInProgress:
			return &CircularDependencyError{RuleID: id}
		}
		color[id] = colorInProgress
		if def, ok := r.defs[id]; ok {
			deps := append([]string(nil), def.Dependencies...)
			sort.Strings(deps)
			for _, dep := range deps {
				if !inSet[dep] {
					continue
				}
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[id] = colorDone
		order = append(order, id)
		return nil
	}

	// Sorted roots keep execution order deterministic run to run.
	roots := append([]string(nil), ids...)
	sort.Strings(roots)
	for _, id := range roots {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Builtins returns fresh definitions for the built-in rule set.
func Builtins() []*Definition {
	return []*Definition{
		SyntaxErrorDefinition(),
		CodeSmellDefinition(),
		MissingEdgeCaseDefinition(),
		UnusedParameterDefinition(),
	}
}

// DefaultRegistry returns a registry holding the built-in rules.
func DefaultRegistry() (*Registry, error) {
	reg := NewRegistry()
	for _, def := range Builtins() {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
