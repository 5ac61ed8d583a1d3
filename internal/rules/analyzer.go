package rules

import (
	"log/slog"

	"github.com/codewithboateng/prlint/internal/ir"
)

// Analyzer drives one run: instantiate enabled rules, resolve execution
// order, execute each rule with fault isolation, and accumulate results.
type Analyzer struct {
	registry *Registry
	config   *Config
	log      *slog.Logger
}

func NewAnalyzer(registry *Registry, config *Config, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{registry: registry, config: config, log: log}
}

// Run executes every enabled rule in dependency order over ctx and returns
// the flat result list. The only error condition is a dependency cycle,
// which indicates a broken rule set and is surfaced before any rule runs.
// A rule that panics or returns an error contributes zero results; the run
// itself never aborts because of a single rule.
func (a *Analyzer) Run(ctx *Context) ([]ir.RuleResult, error) {
	instances := a.config.Instances()
	ids := make([]string, 0, len(instances))
	for id := range instances {
		ids = append(ids, id)
	}

	order, err := a.registry.ResolveDependencies(ids)
	if err != nil {
		return nil, err
	}

	if ctx.Results == nil {
		ctx.Results = make(map[string][]ir.RuleResult)
	}

	var all []ir.RuleResult
	for _, id := range order {
		inst, ok := instances[id]
		if !ok {
			continue
		}
		if !inst.Applicable(ctx) {
			a.log.Debug("rule not applicable, skipped", "rule", id)
			continue
		}
		results := a.invoke(id, inst, ctx)
		all = append(all, results...)
		ctx.Results[id] = append(ctx.Results[id], results...)
		a.log.Debug("rule executed", "rule", id, "results", len(results))
	}
	return all, nil
}

func (a *Analyzer) invoke(id string, r Rule, ctx *Context) (out []ir.RuleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			a.log.Error("rule panicked, dropping its results", "rule", id, "panic", rec)
			out = nil
		}
	}()
	results, err := r.Analyze(ctx)
	if err != nil {
		a.log.Error("rule failed, dropping its results", "rule", id, "err", err)
		return nil
	}
	return results
}

// Report groups a flat result list by severity, rule id, and file path, with
// summary counts. total_issues always equals len(results) and the severity
// counts sum back to it.
func (a *Analyzer) Report(results []ir.RuleResult) ir.Report {
	return BuildReport(results)
}

func BuildReport(results []ir.RuleResult) ir.Report {
	rep := ir.Report{
		Summary: ir.Summary{
			TotalIssues:      len(results),
			IssuesBySeverity: make(map[string]int),
			IssuesByRule:     make(map[string]int),
			IssuesByFile:     make(map[string]int),
		},
		ResultsBySeverity: make(map[string][]ir.RuleResult),
		ResultsByRule:     make(map[string][]ir.RuleResult),
		ResultsByFile:     make(map[string][]ir.RuleResult),
		AllResults:        append([]ir.RuleResult(nil), results...),
	}
	for _, r := range results {
		sev := string(r.Severity)
		rep.Summary.IssuesBySeverity[sev]++
		rep.Summary.IssuesByRule[r.RuleID]++
		rep.Summary.IssuesByFile[r.Filepath]++
		rep.ResultsBySeverity[sev] = append(rep.ResultsBySeverity[sev], r)
		rep.ResultsByRule[r.RuleID] = append(rep.ResultsByRule[r.RuleID], r)
		rep.ResultsByFile[r.Filepath] = append(rep.ResultsByFile[r.Filepath], r)
	}
	return rep
}
