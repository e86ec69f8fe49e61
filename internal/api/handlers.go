package api

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/ingest"
	"github.com/interva-cod-server/internal/middleware"
	"github.com/interva-cod-server/internal/output"
	"github.com/interva-cod-server/internal/service"
)

// ClassifyRequest is the JSON body of POST /api/v1/classify. Each record's
// responses hold one entry per indicator; entry 0 is the identifier slot
// and is filled from ID when blank.
type ClassifyRequest struct {
	Records           []domain.RawRecord `json:"records" binding:"required"`
	ReturnCheckedData bool               `json:"return_checked_data"`
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":           "healthy",
		"timestamp":        time.Now(),
		"version":          Version,
		"probbase_version": s.deps.Classifier.ProbbaseVersion(),
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Health(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		if status, err := s.deps.DB.Status(c.Request.Context()); err == nil {
			body["database"] = status
		}
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) handleProbbase(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    s.deps.Classifier.ProbbaseVersion(),
		"indicators": domain.NumIndicators,
		"causes":     domain.CauseNames,
		"groups":     domain.CauseGroups,
		"malaria":    s.deps.Classifier.Malaria(),
		"hiv":        s.deps.Classifier.HIV(),
	})
}

// handleClassify accepts either a JSON ClassifyRequest or a questionnaire
// CSV (Content-Type text/csv, optional ?id_column=).
func (s *Server) handleClassify(c *gin.Context) {
	var (
		records     []domain.RawRecord
		checkedData bool
	)

	if strings.HasPrefix(c.ContentType(), "text/csv") {
		batch, err := s.reader.Read(c.Request.Body, ingest.Options{IDColumn: c.Query("id_column")})
		if err != nil {
			s.respondError(c, err)
			return
		}
		records = batch.Records
		checkedData, _ = strconv.ParseBool(c.Query("return_checked_data"))
	} else {
		var req ClassifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, domain.NewAppError(
				domain.ErrInvalidInput, "invalid request body", err.Error(), c.GetString(middleware.RequestIDKey)))
			return
		}
		for i := range req.Records {
			r := &req.Records[i]
			if len(r.Responses) > 0 && r.Responses[0] == "" {
				r.Responses[0] = r.ID
			}
		}
		records = req.Records
		checkedData = req.ReturnCheckedData
	}

	if len(records) == 0 {
		s.respondError(c, domain.NewValidationError("records", "no data input", 0))
		return
	}

	out, err := service.RunAndStore(c.Request.Context(), s.deps.Classifier, s.deps.Results, records, service.RunOptions{
		ReturnCheckedData: checkedData,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	runs, err := s.deps.Results.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	run, err := s.deps.Results.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if run == nil {
		s.notFound(c, c.Param("run_id"))
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleDeleteRun(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	if err := s.deps.Results.DeleteRun(c.Request.Context(), c.Param("run_id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleRunResults returns stored results as JSON, or as CSV in the
// classic or extended layout with ?format=csv[&mode=extended].
func (s *Server) handleRunResults(c *gin.Context) {
	results, ok := s.loadResults(c)
	if !ok {
		return
	}

	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, gin.H{"run_id": c.Param("run_id"), "count": len(results), "results": results})
		return
	}

	mode, err := domain.ParseOutputMode(c.Query("mode"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(output.Header(mode))
	for _, r := range results {
		_ = w.Write(output.Row(mode, r))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleRunCSMF(c *gin.Context) {
	results, ok := s.loadResults(c)
	if !ok {
		return
	}

	opts := service.CSMFOptions{
		Top: queryInt(c, "top", 0),
		Sex: c.Query("sex"),
		Age: c.Query("age"),
	}
	opts.ExcludeUndetermined, _ = strconv.ParseBool(c.Query("exclude_undetermined"))

	entries, err := service.ComputeCSMF(results, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": c.Param("run_id"), "deaths": len(results), "csmf": entries})
}

func (s *Server) handleRunExport(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	runID := c.Param("run_id")
	run, err := s.deps.Results.GetRun(c.Request.Context(), runID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if run == nil {
		s.notFound(c, runID)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Results.ExportJSON(c.Request.Context(), runID, &buf); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=run-"+runID+".json")
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

func (s *Server) loadResults(c *gin.Context) ([]*domain.Result, bool) {
	if !s.requireStore(c) {
		return nil, false
	}
	runID := c.Param("run_id")
	run, err := s.deps.Results.GetRun(c.Request.Context(), runID)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	if run == nil {
		s.notFound(c, runID)
		return nil, false
	}
	results, err := s.deps.Results.Results(c.Request.Context(), runID)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	if results == nil {
		results = []*domain.Result{}
	}
	return results, true
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.deps.Results != nil {
		return true
	}
	c.JSON(http.StatusNotImplemented, domain.NewAppError(
		domain.ErrNotFound, "result store is disabled", "set store.driver to sqlite or postgres", c.GetString(middleware.RequestIDKey)))
	return false
}

func (s *Server) notFound(c *gin.Context, runID string) {
	c.JSON(http.StatusNotFound, domain.NewAppError(
		domain.ErrNotFound, "run not found", runID, c.GetString(middleware.RequestIDKey)))
}

// respondError maps domain errors onto status codes and the AppError body.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := domain.ErrInternalServer

	var (
		validationErr *domain.ValidationError
		shapeErr      *domain.ShapeError
		settingErr    *domain.InvalidSettingError
	)
	switch {
	case errors.As(err, &validationErr):
		status, code = http.StatusBadRequest, domain.ErrValidation
	case errors.As(err, &shapeErr):
		status, code = http.StatusBadRequest, domain.ErrInvalidShape
	case errors.As(err, &settingErr):
		status, code = http.StatusBadRequest, domain.ErrInvalidSetting
	}

	requestID := c.GetString(middleware.RequestIDKey)
	if status == http.StatusInternalServerError {
		s.deps.Logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       c.FullPath(),
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, domain.NewAppError(code, http.StatusText(status), err.Error(), requestID))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
