package rules

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config resolves which rules run and with what options. It merges three
// configuration layers: explicit enabled/disabled id lists, per-rule option
// overrides, and the rule types' own defaults. Constructed by the caller
// and handed to the Analyzer; there is no package-level instance.
type Config struct {
	registry *Registry

	global   map[string]any
	perRule  map[string]map[string]any
	enabled  map[string]bool
	disabled map[string]bool
}

func NewConfig(registry *Registry) *Config {
	return &Config{
		registry: registry,
		global:   make(map[string]any),
		perRule:  make(map[string]map[string]any),
		enabled:  make(map[string]bool),
		disabled: make(map[string]bool),
	}
}

// document is the on-disk configuration shape.
type document struct {
	Global        map[string]any            `yaml:"global" json:"global"`
	Rules         map[string]map[string]any `yaml:"rules" json:"rules"`
	EnabledRules  []string                  `yaml:"enabled_rules" json:"enabled_rules"`
	DisabledRules []string                  `yaml:"disabled_rules" json:"disabled_rules"`
}

// Load applies a configuration document given as a plain map. Unknown keys
// are ignored; the recognized sections must carry the documented shapes or
// the whole load fails with *InvalidConfigError, applying nothing.
func (c *Config) Load(m map[string]any) error {
	doc := document{}
	if raw, ok := m["global"]; ok && raw != nil {
		g, ok := raw.(map[string]any)
		if !ok {
			return &InvalidConfigError{Reason: "'global' must be a mapping"}
		}
		doc.Global = g
	}
	if raw, ok := m["rules"]; ok && raw != nil {
		rm, ok := raw.(map[string]any)
		if !ok {
			return &InvalidConfigError{Reason: "'rules' must be a mapping of rule ids"}
		}
		doc.Rules = make(map[string]map[string]any, len(rm))
		for id, v := range rm {
			opts, ok := v.(map[string]any)
			if !ok {
				return &InvalidConfigError{Reason: "rule options for '" + id + "' must be a mapping"}
			}
			doc.Rules[id] = opts
		}
	}
	var err error
	if doc.EnabledRules, err = stringList(m["enabled_rules"], "enabled_rules"); err != nil {
		return err
	}
	if doc.DisabledRules, err = stringList(m["disabled_rules"], "disabled_rules"); err != nil {
		return err
	}
	c.apply(doc)
	return nil
}

// LoadFile reads a YAML or JSON configuration document. Unsupported
// extensions and unparsable documents fail with *InvalidConfigError.
func (c *Config) LoadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return &InvalidConfigError{Reason: "unsupported config format " + filepath.Ext(path)}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return &InvalidConfigError{Reason: "cannot read " + path, Err: err}
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil { // YAML is a JSON superset
		return &InvalidConfigError{Reason: "cannot parse " + path, Err: err}
	}
	c.apply(doc)
	return nil
}

func stringList(raw any, section string) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	switch vs := raw.(type) {
	case []string:
		return vs, nil
	case []any:
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			s, ok := v.(string)
			if !ok {
				return nil, &InvalidConfigError{Reason: "'" + section + "' must be a list of rule ids"}
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, &InvalidConfigError{Reason: "'" + section + "' must be a list of rule ids"}
}

func (c *Config) apply(doc document) {
	for k, v := range doc.Global {
		c.global[k] = v
	}
	for id, opts := range doc.Rules {
		merged := c.perRule[id]
		if merged == nil {
			merged = make(map[string]any, len(opts))
		}
		for k, v := range opts {
			merged[k] = v
		}
		c.perRule[id] = merged
	}
	for _, id := range doc.EnabledRules {
		c.enabled[id] = true
	}
	for _, id := range doc.DisabledRules {
		c.disabled[id] = true
	}
}

// GlobalOptions returns the free-form global section.
func (c *Config) GlobalOptions() map[string]any {
	out := make(map[string]any, len(c.global))
	for k, v := range c.global {
		out[k] = v
	}
	return out
}

// IsRuleEnabled resolves enablement: an explicit disable always wins, then an
// explicit enable, then a per-rule 'enabled' option, then the rule type's own
// default flag. Unknown rules are disabled.
func (c *Config) IsRuleEnabled(id string) bool {
	if c.disabled[id] {
		return false
	}
	if c.enabled[id] {
		return true
	}
	if opts, ok := c.perRule[id]; ok {
		if v, ok := opts["enabled"].(bool); ok {
			return v
		}
	}
	def, ok := c.registry.Get(id)
	if !ok {
		return false
	}
	return def.Enabled
}

// RuleConfig returns the stored override map for a rule, empty if none.
func (c *Config) RuleConfig(id string) map[string]any {
	out := make(map[string]any)
	for k, v := range c.perRule[id] {
		out[k] = v
	}
	return out
}

// NewInstance builds a configured instance, merging the type's defaults with
// the stored overrides (overrides win key by key). Returns (nil, false) when
// the rule is disabled or unknown.
func (c *Config) NewInstance(id string) (Rule, bool) {
	def, ok := c.registry.Get(id)
	if !ok || !c.IsRuleEnabled(id) {
		return nil, false
	}
	merged := make(map[string]any, len(def.Defaults)+len(c.perRule[id]))
	for k, v := range def.Defaults {
		merged[k] = v
	}
	for k, v := range c.perRule[id] {
		if k == "enabled" {
			continue
		}
		merged[k] = v
	}
	return def.New(merged), true
}

// Instances builds every enabled rule instance, keyed by id.
func (c *Config) Instances() map[string]Rule {
	out := make(map[string]Rule)
	for id := range c.registry.All() {
		if inst, ok := c.NewInstance(id); ok {
			out[id] = inst
		}
	}
	return out
}
