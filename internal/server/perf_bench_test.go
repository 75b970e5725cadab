package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func BenchmarkFileServiceUploadColliding(b *testing.B) {
	env := newTestEnv(b)
	ctx := context.Background()
	payload := bytes.Repeat([]byte("z"), 32*1024)

	b.ReportAllocs()
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.srv.files.Upload(ctx, UploadInput{Service: "bench", Filename: "photo.jpg"}, bytes.NewReader(payload)); err != nil {
			b.Fatalf("upload: %v", err)
		}
	}
}

func BenchmarkHandleDownloadPath(b *testing.B) {
	env := newTestEnv(b)
	resp, err := env.srv.files.Upload(context.Background(), UploadInput{Service: "bench", Filename: "photo.jpg"}, bytes.NewReader(bytes.Repeat([]byte("z"), 32*1024)))
	if err != nil {
		b.Fatalf("seed upload: %v", err)
	}
	handler := env.srv.Handler()
	target := "/v1/files/bench/" + resp.FilePath

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusOK {
			b.Fatalf("download status %d", w.Code)
		}
	}
}
