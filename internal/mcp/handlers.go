package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/service"
)

// ClassifyRecordParams defines parameters for the classify_record tool
type ClassifyRecordParams struct {
	ID        string   `json:"id" jsonschema:"the death identifier"`
	Responses []string `json:"responses" jsonschema:"indicator answers in probbase order; y, n, or blank for missing"`
}

// ClassifyRecordResult defines the result structure for the classify_record tool
type ClassifyRecordResult struct {
	Result         *domain.Result `json:"result,omitempty"`
	ExcludedReason string         `json:"excluded_reason,omitempty"`
}

// ClassifyBatchParams defines parameters for the classify_batch tool
type ClassifyBatchParams struct {
	Records []ClassifyRecordParams `json:"records" jsonschema:"the records to classify"`
	RunID   string                 `json:"run_id,omitempty" jsonschema:"label for the stored run; generated when empty"`
}

// ClassifyBatchResult defines the result structure for the classify_batch tool
type ClassifyBatchResult struct {
	RunID    string              `json:"run_id"`
	Assigned int                 `json:"assigned"`
	Excluded []domain.Exclusion  `json:"excluded"`
	CSMF     []service.CSMFEntry `json:"csmf"`
}

// ProbbaseInfoParams defines parameters for the probbase_info tool
type ProbbaseInfoParams struct{}

// ProbbaseInfoResult defines the result structure for the probbase_info tool
type ProbbaseInfoResult struct {
	Version    string   `json:"version"`
	Indicators int      `json:"indicators"`
	Causes     []string `json:"causes"`
	Malaria    string   `json:"malaria"`
	HIV        string   `json:"hiv"`
}

// SetPrevalenceParams defines parameters for the set_prevalence tool
type SetPrevalenceParams struct {
	Malaria string `json:"malaria,omitempty" jsonschema:"h, l or v"`
	HIV     string `json:"hiv,omitempty" jsonschema:"h, l or v"`
}

// ListRunsParams defines parameters for the list_runs tool
type ListRunsParams struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// RunSummary is the tool view of a stored run.
type RunSummary struct {
	RunID           string `json:"run_id"`
	ProbbaseVersion string `json:"probbase_version"`
	Malaria         string `json:"malaria"`
	HIV             string `json:"hiv"`
	Assigned        int    `json:"assigned"`
	Excluded        int    `json:"excluded"`
	CreatedAt       string `json:"created_at"`
}

// ListRunsResult defines the result structure for the list_runs tool
type ListRunsResult struct {
	Runs []RunSummary `json:"runs"`
}

// RunCSMFParams defines parameters for the run_csmf tool
type RunCSMFParams struct {
	RunID               string `json:"run_id"`
	Top                 int    `json:"top,omitempty"`
	Sex                 string `json:"sex,omitempty" jsonschema:"male or female"`
	Age                 string `json:"age,omitempty" jsonschema:"adult, child or neonate"`
	ExcludeUndetermined bool   `json:"exclude_undetermined,omitempty"`
}

// RunCSMFResult defines the result structure for the run_csmf tool
type RunCSMFResult struct {
	RunID  string              `json:"run_id"`
	Deaths int                 `json:"deaths"`
	CSMF   []service.CSMFEntry `json:"csmf"`
}

// RunIDParams names one stored run.
type RunIDParams struct {
	RunID string `json:"run_id"`
}

// ExportRunResult defines the result structure for the export_run tool
type ExportRunResult struct {
	FilePath string `json:"file_path"`
}

// ImportRunParams defines parameters for the import_run tool
type ImportRunParams struct {
	FilePath string `json:"file_path"`
}

// ImportRunResult defines the result structure for the import_run tool
type ImportRunResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func toRawRecord(p ClassifyRecordParams) domain.RawRecord {
	responses := p.Responses
	switch len(responses) {
	case domain.NumIndicators - 1:
		responses = append([]string{p.ID}, responses...)
	case domain.NumIndicators:
		if responses[0] == "" {
			responses = append([]string(nil), responses...)
			responses[0] = p.ID
		}
	}
	return domain.RawRecord{ID: p.ID, Responses: responses}
}

func (s *Server) handleClassifyRecord(ctx context.Context, req *mcp.CallToolRequest, params ClassifyRecordParams) (*mcp.CallToolResult, ClassifyRecordResult, error) {
	s.logger.WithField("tool", "classify_record").Info("Tool invoked")

	raw := toRawRecord(params)
	result, err := s.classifier.ClassifyRecord(ctx, &raw)
	var excluded *domain.ExcludedError
	if errors.As(err, &excluded) {
		return textResult(fmt.Sprintf("Record %s excluded: %s", params.ID, excluded.Reason)),
			ClassifyRecordResult{ExcludedReason: string(excluded.Reason)}, nil
	}
	if err != nil {
		return s.createErrorResult("Classification failed", err), ClassifyRecordResult{}, nil
	}

	summary := fmt.Sprintf("Record %s: %s", result.ID, describeCause(result.Cause1, result.Likelihood1))
	if result.Cause2 != "" {
		summary += ", " + describeCause(result.Cause2, result.Likelihood2)
	}
	if result.Cause3 != "" {
		summary += ", " + describeCause(result.Cause3, result.Likelihood3)
	}
	summary += fmt.Sprintf("; indeterminacy %d", result.Indeterminacy)
	return textResult(summary), ClassifyRecordResult{Result: result}, nil
}

func (s *Server) handleClassifyBatch(ctx context.Context, req *mcp.CallToolRequest, params ClassifyBatchParams) (*mcp.CallToolResult, ClassifyBatchResult, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":    "classify_batch",
		"records": len(params.Records),
	}).Info("Tool invoked")

	if len(params.Records) == 0 {
		return s.createErrorResult("Missing required parameter", errors.New("records must not be empty")), ClassifyBatchResult{}, nil
	}
	records := make([]domain.RawRecord, len(params.Records))
	for i, p := range params.Records {
		records[i] = toRawRecord(p)
	}

	out, err := service.RunAndStore(ctx, s.classifier, s.results, records, service.RunOptions{RunID: params.RunID})
	if err != nil {
		return s.createErrorResult("Batch classification failed", err), ClassifyBatchResult{}, nil
	}

	csmf, err := service.ComputeCSMF(out.Results, service.CSMFOptions{Top: 10})
	if err != nil {
		return s.createErrorResult("CSMF computation failed", err), ClassifyBatchResult{}, nil
	}

	excluded := out.Excluded
	if excluded == nil {
		excluded = []domain.Exclusion{}
	}
	result := ClassifyBatchResult{
		RunID:    out.RunID,
		Assigned: len(out.Results),
		Excluded: excluded,
		CSMF:     csmf,
	}
	return textResult(fmt.Sprintf("Run %s: %d records assigned, %d excluded", out.RunID, result.Assigned, len(excluded))), result, nil
}

func (s *Server) handleProbbaseInfo(ctx context.Context, req *mcp.CallToolRequest, params ProbbaseInfoParams) (*mcp.CallToolResult, ProbbaseInfoResult, error) {
	result := ProbbaseInfoResult{
		Version:    s.classifier.ProbbaseVersion(),
		Indicators: domain.NumIndicators,
		Causes:     domain.CauseNames[:],
		Malaria:    string(s.classifier.Malaria()),
		HIV:        string(s.classifier.HIV()),
	}
	return textResult(fmt.Sprintf("Probbase %s; malaria %s, HIV %s", result.Version, result.Malaria, result.HIV)), result, nil
}

func (s *Server) handleSetPrevalence(ctx context.Context, req *mcp.CallToolRequest, params SetPrevalenceParams) (*mcp.CallToolResult, ProbbaseInfoResult, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":    "set_prevalence",
		"malaria": params.Malaria,
		"hiv":     params.HIV,
	}).Info("Tool invoked")

	if params.Malaria != "" {
		if err := s.classifier.SetMalaria(params.Malaria); err != nil {
			return s.createErrorResult("Invalid setting", err), ProbbaseInfoResult{}, nil
		}
	}
	if params.HIV != "" {
		if err := s.classifier.SetHIV(params.HIV); err != nil {
			return s.createErrorResult("Invalid setting", err), ProbbaseInfoResult{}, nil
		}
	}
	return s.handleProbbaseInfo(ctx, req, ProbbaseInfoParams{})
}

func (s *Server) handleListRuns(ctx context.Context, req *mcp.CallToolRequest, params ListRunsParams) (*mcp.CallToolResult, ListRunsResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	runs, err := s.results.ListRuns(ctx, limit, params.Offset)
	if err != nil {
		return s.createErrorResult("Failed to list runs", err), ListRunsResult{}, nil
	}

	result := ListRunsResult{Runs: make([]RunSummary, 0, len(runs))}
	for _, run := range runs {
		result.Runs = append(result.Runs, RunSummary{
			RunID:           run.ID,
			ProbbaseVersion: run.ProbbaseVersion,
			Malaria:         string(run.Malaria),
			HIV:             string(run.HIV),
			Assigned:        run.Assigned,
			Excluded:        run.Excluded,
			CreatedAt:       run.CreatedAt.Format(time.RFC3339),
		})
	}
	return textResult(fmt.Sprintf("%d stored runs", len(result.Runs))), result, nil
}

func (s *Server) handleRunCSMF(ctx context.Context, req *mcp.CallToolRequest, params RunCSMFParams) (*mcp.CallToolResult, RunCSMFResult, error) {
	results, err := s.runResults(ctx, params.RunID)
	if err != nil {
		return s.createErrorResult("Failed to load run", err), RunCSMFResult{}, nil
	}

	csmf, err := service.ComputeCSMF(results, service.CSMFOptions{
		Top:                 params.Top,
		Sex:                 params.Sex,
		Age:                 params.Age,
		ExcludeUndetermined: params.ExcludeUndetermined,
	})
	if err != nil {
		return s.createErrorResult("CSMF computation failed", err), RunCSMFResult{}, nil
	}

	lines := make([]string, 0, len(csmf))
	for _, e := range csmf {
		lines = append(lines, fmt.Sprintf("%s: %.4f", e.Cause, e.Fraction))
	}
	return textResult(strings.Join(lines, "\n")), RunCSMFResult{RunID: params.RunID, Deaths: len(results), CSMF: csmf}, nil
}

func (s *Server) handleExportRun(ctx context.Context, req *mcp.CallToolRequest, params RunIDParams) (*mcp.CallToolResult, ExportRunResult, error) {
	if _, err := s.runResults(ctx, params.RunID); err != nil {
		return s.createErrorResult("Failed to load run", err), ExportRunResult{}, nil
	}
	if err := os.MkdirAll(s.config.ExportDir(), 0755); err != nil {
		return s.createErrorResult("Failed to create export directory", err), ExportRunResult{}, nil
	}

	path := filepath.Join(s.config.ExportDir(), fmt.Sprintf("run_%s_%s.json", params.RunID, time.Now().Format("20060102_150405")))
	file, err := os.Create(path)
	if err != nil {
		return s.createErrorResult("Failed to create export file", err), ExportRunResult{}, nil
	}
	defer file.Close()

	if err := s.results.ExportJSON(ctx, params.RunID, file); err != nil {
		return s.createErrorResult("Export failed", err), ExportRunResult{}, nil
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": params.RunID,
		"path":   path,
	}).Info("Run exported")
	return textResult("Exported to " + path), ExportRunResult{FilePath: path}, nil
}

func (s *Server) handleImportRun(ctx context.Context, req *mcp.CallToolRequest, params ImportRunParams) (*mcp.CallToolResult, ImportRunResult, error) {
	if params.FilePath == "" {
		return s.createErrorResult("Missing required parameter", errors.New("file_path is required")), ImportRunResult{}, nil
	}
	file, err := os.Open(params.FilePath)
	if err != nil {
		return s.createErrorResult("Failed to open import file", err), ImportRunResult{}, nil
	}
	defer file.Close()

	imported, skipped, err := s.results.ImportJSON(ctx, file)
	if err != nil {
		return s.createErrorResult("Import failed", err), ImportRunResult{}, nil
	}
	return textResult(fmt.Sprintf("Imported %d results, skipped %d", imported, skipped)),
		ImportRunResult{Imported: imported, Skipped: skipped}, nil
}

func (s *Server) runResults(ctx context.Context, runID string) ([]*domain.Result, error) {
	if runID == "" {
		return nil, domain.NewValidationError("run_id", "is required", runID)
	}
	run, err := s.results.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return s.results.Results(ctx, runID)
}

func describeCause(cause string, likelihood *int) string {
	if likelihood == nil {
		return cause
	}
	return fmt.Sprintf("%s (%d%%)", cause, *likelihood)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// createErrorResult reports a tool failure to the client without failing
// the protocol call.
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	s.logger.WithError(err).Warn(message)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%s: %v", message, err)},
		},
	}
}
