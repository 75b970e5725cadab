package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"fileapp/internal/api"
	"fileapp/internal/blobstore"
	"fileapp/internal/store"
)

type testEnv struct {
	srv     *Server
	blobs   *blobstore.NamespaceStore
	journal *store.Store
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	blobs, err := blobstore.NewNamespaceStore(t.TempDir())
	if err != nil {
		t.Fatalf("new namespace store: %v", err)
	}
	journal, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{srv: New("127.0.0.1:0", blobs, journal, logger), blobs: blobs, journal: journal}
}

type uploadForm struct {
	service  *string
	filename string
	content  []byte
	noFile   bool
}

func strPtr(v string) *string { return &v }

func multipartBody(t *testing.T, form uploadForm) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if form.service != nil {
		if err := mw.WriteField("service", *form.service); err != nil {
			t.Fatalf("write service: %v", err)
		}
	}
	if !form.noFile {
		part, err := mw.CreateFormFile("file", form.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(form.content); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return body, mw.FormDataContentType()
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, service, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, uploadForm{service: strPtr(service), filename: filename, content: content})
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	return e.do(req)
}

func (e *testEnv) mustUpload(t *testing.T, service, filename string, content []byte) api.UploadResponse {
	t.Helper()
	w := e.upload(t, service, filename, content)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

func (e *testEnv) download(service, filename string) *httptest.ResponseRecorder {
	query := "?service=" + service + "&filename=" + filename
	return e.do(httptest.NewRequest(http.MethodGet, "/v1/files"+query, nil))
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var errResp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, w.Body.String())
	}
	return errResp
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status, errCode int) api.ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	errResp := decodeErrorResponse(t, w)
	if errResp.ErrorCode != errCode {
		t.Fatalf("expected error_code %d, got %d (%s)", errCode, errResp.ErrorCode, errResp.Error)
	}
	return errResp
}

// namespaceEntries lists visible entries under the storage root, or inside
// one namespace when service is non-empty.
func namespaceEntries(t *testing.T, root, service string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, service))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name() == ".tmp" {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}
