package server

import (
	"fmt"
	"net/http"
	"strings"

	"fileapp/internal/api"
	"fileapp/internal/blobstore"
	"fileapp/internal/models"
	"fileapp/internal/store"
)

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("upload journal is disabled"), ErrCodeJournalDisabled))
		return
	}

	filter, err := parseUploadFilter(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	uploads, err := s.journal.ListUploads(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, makeAPIError(http.StatusInternalServerError, "internal", ErrCodeJournalFailure, err))
		return
	}
	if uploads == nil {
		uploads = []models.Upload{}
	}
	s.writeJSON(w, http.StatusOK, api.UploadListResponse{Uploads: uploads})
}

func parseUploadFilter(r *http.Request) (store.UploadFilter, error) {
	var filter store.UploadFilter

	service := strings.TrimSpace(r.URL.Query().Get("service"))
	if service != "" {
		if err := blobstore.ValidateNamespace(service); err != nil {
			return filter, badRequestCode(err, ErrCodeInvalidName)
		}
		filter.Service = service
	}

	limit, err := queryIntDefault(r, "limit", 0)
	if err != nil {
		return filter, err
	}
	offset, err := queryIntDefault(r, "offset", 0)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset

	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		since, err := parseFlexibleTime(raw)
		if err != nil {
			return filter, err
		}
		filter.Since = &since
	}
	return filter, nil
}
