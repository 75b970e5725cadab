package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"fileapp/internal/api"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.files.maxUploadBytes)
	if err := r.ParseMultipartForm(s.files.multipartMaxMemory); err != nil {
		s.writeServiceError(w, r, classifyMultipartError(err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	service := strings.TrimSpace(r.PostFormValue("service"))
	if service == "" {
		s.writeServiceError(w, r, missingField("service"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.writeServiceError(w, r, missingField("file"))
			return
		}
		s.writeServiceError(w, r, badRequestCode(err, ErrCodeInvalidArgument))
		return
	}
	defer file.Close()

	resp, err := s.files.Upload(r.Context(), UploadInput{
		Service:   service,
		Filename:  header.Filename,
		SizeBytes: header.Size,
		RequestID: requestIDFromContext(r.Context()),
	}, file)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.requestLogger(r).Info("file stored",
		"service", resp.Service,
		"file_path", resp.FilePath,
		"size_bytes", resp.SizeBytes,
	)
	s.writeJSON(w, http.StatusCreated, resp)
}

// handleDownload serves GET /v1/files and POST /v1/files/download. Query
// parameters win; missing ones are read from a JSON, urlencoded or multipart
// body.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := api.DownloadRequest{
		Service:  strings.TrimSpace(query.Get("service")),
		Filename: query.Get("filename"),
	}
	if params.Service == "" || params.Filename == "" {
		body, err := readDownloadBody(w, r)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		params.Service = firstNonEmpty(params.Service, body.Service)
		if params.Filename == "" {
			params.Filename = body.Filename
		}
	}

	s.serveBlob(w, r, params.Service, params.Filename)
}

func (s *Server) handleDownloadPath(w http.ResponseWriter, r *http.Request) {
	s.serveBlob(w, r, r.PathValue("service"), r.PathValue("filename"))
}

func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, service, filename string) {
	blob, err := s.files.Open(r.Context(), service, filename)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": blob.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, blob.Name, blob.ModTime, blob.File)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	files, err := s.files.List(r.Context(), service)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FileListResponse{Service: service, Files: files})
}

func readDownloadBody(w http.ResponseWriter, r *http.Request) (api.DownloadRequest, error) {
	var req api.DownloadRequest
	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return req, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return req, badRequestCode(fmt.Errorf("invalid content type"), ErrCodeInvalidArgument)
	}

	switch mediaType {
	case "application/json":
		if err := decodeJSONBody(w, r, &req); err != nil {
			if errors.Is(err, io.EOF) {
				return req, nil
			}
			return req, classifyDecodeJSONError(err)
		}
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, defaultJSONMaxBody)
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return req, classifyDecodeJSONError(err)
		}
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return req, badRequestCode(fmt.Errorf("invalid form body"), ErrCodeInvalidArgument)
		}
		req.Service = values.Get("service")
		req.Filename = values.Get("filename")
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, defaultJSONMaxBody)
		if err := r.ParseMultipartForm(defaultJSONMaxBody); err != nil {
			return req, classifyMultipartError(err)
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()
		req.Service = url.Values(r.MultipartForm.Value).Get("service")
		req.Filename = url.Values(r.MultipartForm.Value).Get("filename")
	}
	return req, nil
}

func classifyMultipartError(err error) error {
	if err == nil {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return tooLarge(fmt.Errorf("request body too large"))
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return missingField("file")
	}
	return badRequestCode(err, ErrCodeInvalidArgument)
}
