package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codewithboateng/prlint/internal/api"
	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/metrics"
	"github.com/codewithboateng/prlint/internal/reporting"
	"github.com/codewithboateng/prlint/internal/rules"
	"github.com/codewithboateng/prlint/internal/rulesdsl"
	"github.com/codewithboateng/prlint/internal/shared"
	"github.com/codewithboateng/prlint/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "analyze":
		analyzeCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "diff":
		diffCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	case "rules":
		rulesCmd(os.Args[2:])
	case "version":
		fmt.Println("prlint IR:", ir.Version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `prlint - change-set rule engine

Usage:
  prlint analyze --path <input-dir> --out <reports-dir> [--db ./prlint.db] [--rules ./rules.yaml] [--custom-rules ./pack.yaml] [--config ./configs/prlint.yaml]
  prlint report  --run <run-id>     --out <reports-dir> [--db ./prlint.db] [--config ./configs/prlint.yaml]
  prlint diff    --base <run-id> --head <run-id> --out <reports-dir> [--db ./prlint.db] [--config ./configs/prlint.yaml]
  prlint serve   [--addr :8080] [--db ./prlint.db] [--config ./configs/prlint.yaml]
  prlint rules   [--custom-rules ./pack.yaml]
  prlint version
`)
}

func analyzeCmd(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	inPath := fs.String("path", "", "Path to changed-files directory")
	outDir := fs.String("out", "", "Output directory for reports")
	dbPath := fs.String("db", "", "SQLite database path")
	rulesFile := fs.String("rules", "", "Rule configuration file (yaml/json)")
	customRules := fs.String("custom-rules", "", "Custom rule pack (yaml)")
	prTitle := fs.String("pr-title", "", "Pull request title (recorded on the run)")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	// precedence: flags > config > defaults
	if *inPath == "" && len(cfg.Analysis.Sources) > 0 {
		*inPath = cfg.Analysis.Sources[0]
	}
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *rulesFile == "" {
		*rulesFile = cfg.Analysis.RulesFile
	}
	if *customRules == "" {
		*customRules = cfg.Analysis.CustomRules
	}

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "analyze: --path (or analysis.sources in config) is required")
		os.Exit(2)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "analyze: cannot create out dir:", err)
		os.Exit(1)
	}

	// Collect the change set
	files, err := collectFiles(*inPath, cfg.Analysis.Extensions, cfg.Analysis.MaxFiles, cfg.Analysis.MaxTotalLines)
	if err != nil {
		slog.Error("collect files error", "err", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "analyze: no matching files under", *inPath)
		os.Exit(2)
	}

	// Rules
	reg, cfgRules, err := buildRules(*rulesFile, *customRules)
	if err != nil {
		slog.Error("rule setup error", "err", err)
		os.Exit(1)
	}

	pr := map[string]string{}
	if *prTitle != "" {
		pr["title"] = *prTitle
	}
	an := rules.NewAnalyzer(reg, cfgRules, logger)
	ctx := rules.NewContext(files, pr, cfgRules.GlobalOptions())
	results, err := an.Run(ctx)
	if err != nil {
		slog.Error("analysis error", "err", err)
		os.Exit(1)
	}

	// Persist & report
	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		slog.Error("db schema error", "err", err)
		os.Exit(1)
	}

	suppressed := 0
	if sups, err := db.ListSuppressions(true); err == nil && len(sups) > 0 {
		results, suppressed = rules.ApplySuppressions(results, sups)
	}

	_, trees := ctx.ParsedPythonFiles()
	stats := metrics.Compute(files, trees)

	run := ir.Run{
		ID:        api.NewRunID(),
		StartedAt: time.Now().UTC(),
		Source:    *inPath,
		IRVersion: ir.Version,
		PR:        pr,
		FileCount: len(files),
		Stats:     &stats,
		Results:   results,
	}
	if err := db.SaveRun(&run); err != nil {
		slog.Error("db save run error", "err", err)
		os.Exit(1)
	}

	jsonPath, _ := reporting.WriteJSON(run.ID, *outDir, &run)
	mdPath, _ := reporting.WriteMarkdown(run.ID, *outDir, &run)
	slog.Info("analyze complete",
		"run", run.ID,
		"files", len(files),
		"issues", len(results),
		"suppressed", suppressed,
		"json", jsonPath,
		"markdown", mdPath,
		"db", filepath.Clean(*dbPath),
	)
	fmt.Printf("Analyze OK\n  Run: %s\n  Issues: %d (suppressed %d)\n  JSON: %s\n  Markdown: %s\n  DB: %s\n",
		run.ID, len(results), suppressed, jsonPath, mdPath, filepath.Clean(*dbPath))
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	runID := fs.String("run", "", "Run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *runID == "" {
		fmt.Fprintln(os.Stderr, "report: --run is required")
		os.Exit(2)
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	run, err := db.LoadRun(*runID)
	if err != nil {
		slog.Error("load run error", "err", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("cannot create out dir", "err", err)
		os.Exit(1)
	}
	rep := rules.BuildReport(run.Results)
	jsonPath, _ := reporting.WriteJSON(run.ID, *outDir, &run)
	repPath, _ := reporting.WriteReportJSON(run.ID, *outDir, &rep)
	mdPath, _ := reporting.WriteMarkdown(run.ID, *outDir, &run)
	fmt.Printf("Report OK\n  Run: %s\n  JSON: %s\n  Grouped: %s\n  Markdown: %s\n", run.ID, jsonPath, repPath, mdPath)
}

func diffCmd(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	base := fs.String("base", "", "Base run ID")
	head := fs.String("head", "", "Head run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *base == "" || *head == "" {
		fmt.Fprintln(os.Stderr, "diff: --base and --head are required")
		os.Exit(2)
	}
	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	br, err := db.LoadRun(*base)
	if err != nil {
		slog.Error("load base run error", "err", err)
		os.Exit(1)
	}
	hr, err := db.LoadRun(*head)
	if err != nil {
		slog.Error("load head run error", "err", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("cannot create out dir", "err", err)
		os.Exit(1)
	}
	path, _ := reporting.WriteDiffJSON(*base, *head, *outDir, &br, &hr)
	fmt.Printf("Diff OK\n  %s\n", path)
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	addr := fs.String("addr", "", "Listen address")
	dbPath := fs.String("db", "", "SQLite database path")
	rulesFile := fs.String("rules", "", "Rule configuration file (yaml/json)")
	customRules := fs.String("custom-rules", "", "Custom rule pack (yaml)")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *rulesFile == "" {
		*rulesFile = cfg.Analysis.RulesFile
	}
	if *customRules == "" {
		*customRules = cfg.Analysis.CustomRules
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		slog.Error("db schema error", "err", err)
		os.Exit(1)
	}

	reg, cfgRules, err := buildRules(*rulesFile, *customRules)
	if err != nil {
		slog.Error("rule setup error", "err", err)
		os.Exit(1)
	}

	srv := &api.Server{
		DB:              db,
		UserStore:       db,
		Registry:        reg,
		RuleConfig:      cfgRules,
		Logger:          logger,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		SessionDuration: time.Duration(cfg.Server.SessionHours) * time.Hour,
	}
	slog.Info("serving", "addr", *addr, "db", filepath.Clean(*dbPath))
	if err := http.ListenAndServe(*addr, srv.Routes()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func rulesCmd(args []string) {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	customRules := fs.String("custom-rules", "", "Custom rule pack (yaml)")
	_ = fs.Parse(args)

	reg, _, err := buildRules("", *customRules)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rules:", err)
		os.Exit(1)
	}
	for _, id := range reg.IDs() {
		def, _ := reg.Get(id)
		deps := ""
		if len(def.Dependencies) > 0 {
			deps = " (after " + strings.Join(def.Dependencies, ", ") + ")"
		}
		fmt.Printf("%-24s %-28s %-8s %s%s\n", def.ID, def.Category, def.Severity, def.Name, deps)
	}
}

// buildRules assembles the registry (builtins plus optional custom pack)
// and the rule configuration layered on top of it.
func buildRules(rulesFile, customRules string) (*rules.Registry, *rules.Config, error) {
	reg, err := rules.DefaultRegistry()
	if err != nil {
		return nil, nil, err
	}
	if customRules != "" {
		n, err := rulesdsl.RegisterPack(reg, customRules)
		if err != nil {
			return nil, nil, fmt.Errorf("custom rules: %w", err)
		}
		slog.Info("custom rules registered", "count", n, "pack", customRules)
	}
	cfg := rules.NewConfig(reg)
	if rulesFile != "" {
		if err := cfg.LoadFile(rulesFile); err != nil {
			return nil, nil, fmt.Errorf("rule config: %w", err)
		}
	}
	return reg, cfg, nil
}

// collectFiles walks root and loads files whose extension matches. The
// file and line ceilings bound memory on oversized change sets.
func collectFiles(root string, exts []string, maxFiles, maxTotalLines int) ([]ir.SourceFile, error) {
	if len(exts) == 0 {
		exts = []string{".py"}
	}
	match := func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if strings.ToLower(e) == ext {
				return true
			}
		}
		return false
	}

	var files []ir.SourceFile
	totalLines := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !match(path) {
			return nil
		}
		if maxFiles > 0 && len(files) >= maxFiles {
			return fs.SkipAll
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := string(b)
		totalLines += strings.Count(content, "\n") + 1
		if maxTotalLines > 0 && totalLines > maxTotalLines {
			return fs.SkipAll
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, ir.SourceFile{Filepath: filepath.ToSlash(rel), Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filepath < files[j].Filepath })
	return files, nil
}
