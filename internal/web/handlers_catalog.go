package web

import (
	"fmt"
	"net/http"

	db "github.com/JonMunkholm/estatecrm/internal/database"
	"github.com/JonMunkholm/estatecrm/internal/schema"
)

type dedupeResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// handleCustomFields lists custom field definitions, optionally filtered by
// ?entity_kind=.
func (s *Server) handleCustomFields(w http.ResponseWriter, r *http.Request) {
	defs, err := s.service.CustomFields(r.Context(), r.URL.Query().Get("entity_kind"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if defs == nil {
		defs = []db.CustomFieldDefinition{}
	}
	writeJSON(w, r, http.StatusOK, defs)
}

// handleDeduplicateProperties soft-deletes properties whose custom fields
// repeat an earlier property's.
func (s *Server) handleDeduplicateProperties(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.SweepDuplicates(r.Context(), schema.Property)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dedupeResponse{
		Success:      true,
		Message:      fmt.Sprintf("Removed %d duplicate properties", result.DeletedCount),
		DeletedCount: result.DeletedCount,
	})
}

