package server

import (
	"net/http"

	"fileapp/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	resp := api.InfoResponse{
		MediaRoot:    s.files.Root(),
		UploadPolicy: s.files.PolicyInfo(),
	}

	if s.journal != nil {
		info, err := s.journal.JournalInfo(r.Context())
		if err != nil {
			s.writeServiceError(w, r, makeAPIError(http.StatusInternalServerError, "internal", ErrCodeJournalFailure, err))
			return
		}
		resp.DBPath = s.dbPath
		resp.JournalEnabled = true
		resp.SchemaVersion = info.SchemaVersion
		resp.TotalUploads = info.TotalUploads
		resp.TotalBytes = info.TotalBytes
		resp.ServiceUploads = info.ServiceUploads
	}

	s.writeJSON(w, http.StatusOK, resp)
}
