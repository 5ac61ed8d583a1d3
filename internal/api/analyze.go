package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/rules"
	"github.com/codewithboateng/prlint/internal/security"
)

type analyzeReq struct {
	PR    map[string]string `json:"pr,omitempty"`
	Files []ir.SourceFile   `json:"files"`
	Save  bool              `json:"save,omitempty"`
}

type analyzeResp struct {
	RunID      string          `json:"run_id"`
	Suppressed int             `json:"suppressed,omitempty"`
	Results    []ir.RuleResult `json:"results"`
	Report     ir.Report       `json:"report"`
}

// POST /api/v1/analyze runs the configured rule set over an uploaded change
// set. With save=true the run is also persisted.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.err(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(in.Files) == 0 {
		s.err(w, http.StatusBadRequest, "files required")
		return
	}
	for _, f := range in.Files {
		if f.Filepath == "" {
			s.err(w, http.StatusBadRequest, "every file needs a filepath")
			return
		}
	}

	an := rules.NewAnalyzer(s.Registry, s.RuleConfig, s.Logger)
	ctx := rules.NewContext(in.Files, in.PR, s.RuleConfig.GlobalOptions())
	results, err := an.Run(ctx)
	if err != nil {
		s.err(w, http.StatusUnprocessableEntity, "analysis failed: "+err.Error())
		return
	}

	suppressed := 0
	if sups, err := s.DB.ListSuppressions(true); err == nil && len(sups) > 0 {
		results, suppressed = rules.ApplySuppressions(results, sups)
	}

	run := &ir.Run{
		ID:        NewRunID(),
		StartedAt: time.Now().UTC(),
		Source:    "api",
		IRVersion: ir.Version,
		PR:        in.PR,
		FileCount: len(in.Files),
		Results:   results,
	}
	if in.Save {
		if err := s.DB.SaveRun(run); err != nil {
			s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, analyzeResp{
		RunID:      run.ID,
		Suppressed: suppressed,
		Results:    results,
		Report:     an.Report(results),
	})
}

// NewRunID builds a sortable run id: UTC timestamp plus a short random
// suffix to disambiguate runs started in the same second.
func NewRunID() string {
	suffix, err := security.NewToken(4)
	if err != nil {
		suffix = "0"
	}
	return fmt.Sprintf("run_%s_%s", time.Now().UTC().Format("20060102T150405"), suffix)
}
