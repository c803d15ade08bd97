package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/brunobiangulo/coursewizard"
	"github.com/brunobiangulo/coursewizard/extract"
	"github.com/brunobiangulo/coursewizard/roster"
)

type handler struct {
	engine  coursewizard.Engine
	metrics *metrics
	maxBody int64
}

func newHandler(e coursewizard.Engine, m *metrics) *handler {
	return &handler{engine: e, metrics: m, maxBody: e.Config().MaxUploadBytes}
}

type textRequest struct {
	Text string `json:"text"`
}

// POST /schedule/parse
func (h *handler) handleParseSchedule(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ParseSchedule(req.Text))
}

// POST /course-table/parse
func (h *handler) handleParseCourseTable(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	table, err := h.engine.ParseCourseTable(req.Text)
	if errors.Is(err, coursewizard.ErrFormatNotRecognized) {
		writeError(w, http.StatusUnprocessableEntity, "course table format not recognized")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "course table parsing failed")
		slog.Error("course table error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"table":  table,
		"course": coursewizard.CourseFromTable(table),
	})
}

// POST /participants/parse
func (h *handler) handleParseParticipants(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"participants": h.engine.ParseParticipants(req.Text),
	})
}

// POST /participants/reorder
func (h *handler) handleReorderParticipants(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Participants []roster.Participant `json:"participants"`
		coursewizard.Reorder
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	list, err := h.engine.ReorderParticipants(req.Participants, req.Reorder)
	switch {
	case errors.Is(err, roster.ErrPosition):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, coursewizard.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "op must be swap or move")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "reorder failed")
		slog.Error("reorder error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"participants": list,
	})
}

// POST /extract
// Accepts a multipart upload with one or more "files" parts, read in order.
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(h.maxBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart upload")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	docs := make([]extract.Document, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read upload")
			slog.Error("reading upload", "file", fh.Filename, "error", err)
			return
		}
		// Sanitise filename; only the base name selects the reader.
		docs = append(docs, extract.Document{Name: filepath.Base(fh.Filename), Data: data})
	}

	res, err := h.engine.Extract(ctx, docs...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "extraction failed")
		slog.Error("extract error", "error", err)
		return
	}
	h.metrics.observeExtraction(res.Method, len(res.Warnings))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": res,
		"course": coursewizard.CourseFromExtraction(res),
	})
}

// POST /export/{format}
// Body is the course JSON, or a multipart form with a "course" field and,
// for docx, a "template" file.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.PathValue("format"))
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var (
		data coursewizard.CourseData
		opts []coursewizard.ExportOption
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(h.maxBody); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("course")), &data); err != nil {
			writeError(w, http.StatusBadRequest, "course field must be JSON")
			return
		}
		if fhs := r.MultipartForm.File["template"]; len(fhs) > 0 {
			tpl, err := readUpload(fhs[0])
			if err != nil {
				writeError(w, http.StatusBadRequest, "failed to read template")
				return
			}
			opts = append(opts, coursewizard.WithTemplate(tpl))
		}
	} else if !h.decodeJSON(w, r, &data) {
		return
	}

	art, err := h.engine.Export(r.Context(), data, format, opts...)
	h.metrics.observeExport(format, err)
	switch {
	case errors.Is(err, coursewizard.ErrUnsupportedFormat):
		writeError(w, http.StatusNotFound, "unknown export format: "+format)
		return
	case errors.Is(err, coursewizard.ErrEmptyInput), errors.Is(err, coursewizard.ErrExportFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("export error", "format", format, "error", err)
		return
	}

	if format == coursewizard.FormatLinks {
		writeJSON(w, http.StatusOK, map[string]interface{}{"links": art.Links})
		return
	}
	if len(art.Unresolved) > 0 {
		w.Header().Set("X-Unresolved-Variables", strings.Join(art.Unresolved, ","))
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+art.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(art.Data)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
