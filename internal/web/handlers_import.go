package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/estatecrm/internal/core"
	"github.com/JonMunkholm/estatecrm/internal/web/templates"
)

// multipartOverhead is the slack allowed above the file size limit for
// form boundaries and the other fields.
const multipartOverhead = 1 << 20

// maxFormMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const maxFormMemory = 32 << 20

// uploadResponse is the body of a successful import.
type uploadResponse struct {
	Success bool       `json:"success"`
	JobID   string     `json:"jobId"`
	Stats   core.Stats `json:"stats"`
}

// handleImportUpload imports one multipart file ("file") into the entity
// kind named by "entityType" (or "entity_kind"). The response is written
// once the job has finished.
func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, fmt.Errorf("%w: request body exceeds %d bytes", core.ErrFileTooLarge, tooBig.Limit))
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer file.Close()

	kind := r.FormValue("entityType")
	if kind == "" {
		kind = r.FormValue("entity_kind")
	}
	if kind == "" {
		respondError(w, r, fmt.Errorf("%w: entityType is required", core.ErrUnknownEntityKind))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	result, err := s.service.Import(withRequestMetadata(r.Context(), r), core.ImportRequest{
		Data:       data,
		FileName:   header.Filename,
		EntityKind: kind,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.ImportSummary(result.FileName, result.EntityKind, []templates.SummaryRow{
			{Label: "Total", Value: result.Stats.Total},
			{Label: "Imported", Value: result.Stats.Imported},
			{Label: "Duplicates", Value: result.Stats.Duplicates},
			{Label: "Errors", Value: result.Stats.Errors},
		}).Render(r.Context(), w)
		return
	}

	writeJSON(w, r, http.StatusOK, uploadResponse{
		Success: true,
		JobID:   result.JobID,
		Stats:   result.Stats,
	})
}

// handleImportHistory returns the most recent import jobs, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ImportHistory(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}
