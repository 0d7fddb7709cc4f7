package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/arclend/lenddash/internal/ingest"
	"github.com/arclend/lenddash/internal/logging"
	"github.com/arclend/lenddash/internal/store"
	"github.com/arclend/lenddash/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reportTypeInfo describes a registered report type for the dashboard.
type reportTypeInfo struct {
	Key      string   `json:"key"`
	SubTypes []string `json:"subTypes,omitempty"`
}

func (s *Server) handleListReportTypes(w http.ResponseWriter, r *http.Request) {
	types := s.engine.ReportTypes()
	out := make([]reportTypeInfo, 0, len(types))
	for _, key := range types {
		out = append(out, reportTypeInfo{Key: key, SubTypes: s.engine.SubTypes(key)})
	}
	respondJSON(w, http.StatusOK, out)
}

// fieldInfo is the JSON view of one schema field.
type fieldInfo struct {
	Type         string   `json:"type"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Enum         []string `json:"enum,omitempty"`
	EnumSeverity string   `json:"enumSeverity,omitempty"`
	Pattern      string   `json:"pattern,omitempty"`
	MinLength    *int     `json:"minLength,omitempty"`
	MaxLength    *int     `json:"maxLength,omitempty"`
}

// schemaResponse is the JSON view of a rule set, for UI introspection of
// required fields, enums, and bounds.
type schemaResponse struct {
	ReportType string               `json:"reportType"`
	SubType    string               `json:"subType,omitempty"`
	Required   []string             `json:"required"`
	Fields     map[string]fieldInfo `json:"fields"`
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	reportType := chi.URLParam(r, "reportType")
	subType := r.URL.Query().Get("subType")

	rs := s.engine.Schema(reportType, subType)
	if rs == nil {
		respondError(w, r, http.StatusNotFound,
			fmt.Sprintf("no schema for report type %q", reportType), nil)
		return
	}

	resp := schemaResponse{
		ReportType: reportType,
		SubType:    subType,
		Required:   rs.Required,
		Fields:     make(map[string]fieldInfo, len(rs.Fields)),
	}
	for name, ft := range rs.Fields {
		fi := fieldInfo{Type: ft.String()}
		if c, ok := rs.Constraints[name]; ok {
			fi.Min = c.Min
			fi.Max = c.Max
			fi.Enum = c.Enum
			if len(c.Enum) > 0 {
				fi.EnumSeverity = c.EnumSeverity.String()
			}
			if c.Pattern != nil {
				fi.Pattern = c.Pattern.String()
			}
			fi.MinLength = c.MinLength
			fi.MaxLength = c.MaxLength
		}
		resp.Fields[name] = fi
	}
	respondJSON(w, http.StatusOK, resp)
}

// validateRequest is the JSON body for ad-hoc dataset validation.
type validateRequest struct {
	SubType string           `json:"subType"`
	Records []map[string]any `json:"records"`
	Options struct {
		Strict       *bool `json:"strict"`
		AllowPartial bool  `json:"allowPartial"`
		StopOnError  bool  `json:"stopOnError"`
		MaxErrors    int   `json:"maxErrors"`
	} `json:"options"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	reportType := chi.URLParam(r, "reportType")

	var req validateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize))
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if s.cfg.MaxRecords > 0 && len(req.Records) > s.cfg.MaxRecords {
		respondError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("too many records: limit is %d", s.cfg.MaxRecords), nil)
		return
	}

	records := make([]validation.Record, len(req.Records))
	for i, m := range req.Records {
		records[i] = validation.RecordFrom(m)
	}

	opts := &validation.DatasetOptions{
		StopOnError: req.Options.StopOnError,
		MaxErrors:   req.Options.MaxErrors,
	}
	opts.AllowPartial = req.Options.AllowPartial
	if req.Options.Strict != nil && !*req.Options.Strict {
		opts.Lenient = true
	}

	res := s.engine.ValidateDataset(records, reportType, req.SubType, opts)
	respondJSON(w, http.StatusOK, res)
}

// uploadResponse is returned after a CSV dataset upload.
type uploadResponse struct {
	DatasetID    string             `json:"datasetId"`
	ReportType   string             `json:"reportType"`
	SubType      string             `json:"subType,omitempty"`
	TotalRecords int                `json:"totalRecords"`
	Summary      validation.Summary `json:"summary"`
	Truncated    bool               `json:"truncated,omitempty"`
}

func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	reportType := chi.URLParam(r, "reportType")
	subType := r.URL.Query().Get("subType")

	if s.engine.Schema(reportType, subType) == nil {
		respondError(w, r, http.StatusNotFound,
			fmt.Sprintf("no schema for report type %q", reportType), nil)
		return
	}

	body, fileName, err := s.uploadBody(w, r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "could not read upload", err)
		return
	}
	defer body.Close()

	records, _, err := ingest.ReadRecords(body, s.cfg.MaxRecords)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ingest.ErrTooManyRecords) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, r, status, err.Error(), err)
		return
	}

	res := s.engine.ValidateDataset(records, reportType, subType, nil)

	meta := store.DatasetMeta{
		ID:         uuid.New(),
		ReportType: reportType,
		SubType:    subType,
		FileName:   fileName,
	}
	logger := logging.WithDataset(r.Context(), meta.ID.String(), reportType)

	if err := s.store.SaveDataset(r.Context(), meta, res); err != nil {
		respondError(w, r, http.StatusInternalServerError, "could not store dataset", err)
		return
	}

	summary := &store.DatasetSummary{
		ID:           meta.ID,
		ReportType:   reportType,
		SubType:      subType,
		FileName:     fileName,
		TotalRecords: res.TotalRecords,
		Summary:      res.Summary,
		Truncated:    res.Truncated,
	}
	if s.cache != nil {
		// Cache failures only cost a later DB read.
		if err := s.cache.Put(r.Context(), summary); err != nil {
			logger.Warn("summary cache write failed", "error", err)
		}
	}

	logger.Info("dataset stored",
		"total", res.TotalRecords,
		"valid", res.Summary.Valid,
		"invalid", res.Summary.Invalid,
	)

	respondJSON(w, http.StatusCreated, uploadResponse{
		DatasetID:    meta.ID.String(),
		ReportType:   reportType,
		SubType:      subType,
		TotalRecords: res.TotalRecords,
		Summary:      res.Summary,
		Truncated:    res.Truncated,
	})
}

// uploadBody returns the CSV payload of an upload request: the "file" part
// for multipart forms, the raw body otherwise.
func (s *Server) uploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(s.cfg.MaxBodySize); err != nil {
			return nil, "", fmt.Errorf("parse multipart form: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file part: %w", err)
		}
		return file, header.Filename, nil
	}
	return http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize), "", nil
}

func (s *Server) handleRecentDatasets(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	datasets, err := s.store.RecentDatasets(r.Context(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "could not list datasets", err)
		return
	}
	if datasets == nil {
		datasets = []store.DatasetSummary{}
	}
	respondJSON(w, http.StatusOK, datasets)
}

func (s *Server) handleDatasetSummary(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "datasetID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid dataset id", err)
		return
	}

	if s.cache != nil {
		cached, err := s.cache.Get(r.Context(), idStr)
		if err != nil {
			logging.FromContext(r.Context()).Warn("summary cache read failed", "error", err)
		} else if cached != nil {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	summary, err := s.store.Summary(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "could not load summary", err)
		return
	}
	if summary == nil {
		respondError(w, r, http.StatusNotFound, "dataset not found", nil)
		return
	}

	if s.cache != nil {
		if err := s.cache.Put(r.Context(), summary); err != nil {
			logging.FromContext(r.Context()).Warn("summary cache backfill failed", "error", err)
		}
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleInvalidRecords(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "datasetID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid dataset id", err)
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}
	offset := queryInt(r, "offset", 0)

	rows, err := s.store.InvalidRecords(r.Context(), id, limit, offset)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "could not load invalid records", err)
		return
	}
	if rows == nil {
		rows = []store.RejectedRow{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
