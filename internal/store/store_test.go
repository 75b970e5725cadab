package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fileapp/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRecordAndListUploads(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := &models.Upload{
		Service:      "news",
		StoredName:   "cover.jpg",
		OriginalName: "cover.jpg",
		SizeBytes:    10,
		SHA256:       strings.Repeat("a", 64),
		MediaType:    "image/jpeg",
		RequestID:    "req-1",
		CreatedAt:    base,
	}
	second := &models.Upload{
		Service:    "news",
		StoredName: "cover_abc1234.jpg",
		SizeBytes:  20,
		SHA256:     strings.Repeat("b", 64),
		CreatedAt:  base.Add(time.Second),
	}
	other := &models.Upload{
		Service:    "training",
		StoredName: "slides.pdf",
		SizeBytes:  5,
		SHA256:     strings.Repeat("c", 64),
		CreatedAt:  base.Add(2 * time.Second),
	}
	for _, u := range []*models.Upload{first, second, other} {
		if err := st.RecordUpload(ctx, u); err != nil {
			t.Fatalf("record %s: %v", u.Reference(), err)
		}
		if u.ID == 0 {
			t.Fatalf("expected id for %s", u.Reference())
		}
	}

	all, err := st.ListUploads(ctx, UploadFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].StoredName != "slides.pdf" {
		t.Fatalf("expected newest first, got %#v", all)
	}

	news, err := st.ListUploads(ctx, UploadFilter{Service: "news"})
	if err != nil {
		t.Fatalf("list news: %v", err)
	}
	if len(news) != 2 || news[0].StoredName != "cover_abc1234.jpg" || news[1].StoredName != "cover.jpg" {
		t.Fatalf("unexpected news uploads: %#v", news)
	}
	if news[1].MediaType != "image/jpeg" || news[1].RequestID != "req-1" || news[1].OriginalName != "cover.jpg" {
		t.Fatalf("optional columns lost: %#v", news[1])
	}
	if !news[1].CreatedAt.Equal(base) {
		t.Fatalf("expected created_at %v, got %v", base, news[1].CreatedAt)
	}

	limited, err := st.ListUploads(ctx, UploadFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].StoredName != "cover_abc1234.jpg" {
		t.Fatalf("unexpected page: %#v", limited)
	}

	since := base.Add(time.Second)
	recent, err := st.ListUploads(ctx, UploadFilter{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent uploads, got %d", len(recent))
	}
}

func TestRecordUploadRejectsDuplicateReference(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	u := &models.Upload{Service: "news", StoredName: "a.png", SizeBytes: 1, SHA256: "x"}
	if err := st.RecordUpload(ctx, u); err != nil {
		t.Fatalf("record: %v", err)
	}
	dup := &models.Upload{Service: "news", StoredName: "a.png", SizeBytes: 1, SHA256: "x"}
	if err := st.RecordUpload(ctx, dup); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestRecordUploadRequiresReference(t *testing.T) {
	st := testStore(t)
	if err := st.RecordUpload(context.Background(), &models.Upload{Service: "news"}); err == nil {
		t.Fatal("expected error for missing stored name")
	}
	if err := st.RecordUpload(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil upload")
	}
}

func TestJournalInfo(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	info, err := st.JournalInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.SchemaVersion != 2 || info.TotalUploads != 0 || info.TotalBytes != 0 {
		t.Fatalf("unexpected empty journal info: %#v", info)
	}

	for i, svc := range []string{"news", "news", "training"} {
		u := &models.Upload{Service: svc, StoredName: svc + string(rune('a'+i)) + ".png", SizeBytes: 100, SHA256: "x"}
		if err := st.RecordUpload(ctx, u); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	info, err = st.JournalInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.TotalUploads != 3 || info.TotalBytes != 300 {
		t.Fatalf("unexpected totals: %#v", info)
	}
	if info.ServiceUploads["news"] != 2 || info.ServiceUploads["training"] != 1 {
		t.Fatalf("unexpected per-service counts: %#v", info.ServiceUploads)
	}
}

func TestSQLiteDSNRequiresPath(t *testing.T) {
	if _, err := sqliteDSN(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	dsn, err := sqliteDSN("/tmp/journal.db")
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if dsn != "file:///tmp/journal.db" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}

func TestListUploadsOrdersWithinOneSecond(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	second := time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC)

	whole := &models.Upload{Service: "news", StoredName: "whole.png", SizeBytes: 1, SHA256: "x", CreatedAt: second}
	half := &models.Upload{Service: "news", StoredName: "half.png", SizeBytes: 1, SHA256: "x", CreatedAt: second.Add(500 * time.Millisecond)}
	for _, u := range []*models.Upload{half, whole} {
		if err := st.RecordUpload(ctx, u); err != nil {
			t.Fatalf("record %s: %v", u.StoredName, err)
		}
	}

	uploads, err := st.ListUploads(ctx, UploadFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(uploads) != 2 || uploads[0].StoredName != "half.png" || uploads[1].StoredName != "whole.png" {
		t.Fatalf("expected newest first, got %v", uploadNames(uploads))
	}

	since := second.Add(250 * time.Millisecond)
	uploads, err = st.ListUploads(ctx, UploadFilter{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(uploads) != 1 || uploads[0].StoredName != "half.png" {
		t.Fatalf("expected only half.png since %s, got %v", since, uploadNames(uploads))
	}
	if !uploads[0].CreatedAt.Equal(half.CreatedAt) {
		t.Fatalf("created_at round trip: got %s want %s", uploads[0].CreatedAt, half.CreatedAt)
	}
}

func TestFormatTimeIsFixedWidth(t *testing.T) {
	whole := formatTime(time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC))
	frac := formatTime(time.Date(2024, 3, 1, 10, 0, 5, 500_000_000, time.UTC))
	if len(whole) != len(frac) {
		t.Fatalf("expected equal widths, got %q and %q", whole, frac)
	}
	if !(whole < frac) {
		t.Fatalf("expected %q to sort before %q", whole, frac)
	}
}

func uploadNames(uploads []models.Upload) []string {
	names := make([]string, 0, len(uploads))
	for _, u := range uploads {
		names = append(names, u.StoredName)
	}
	return names
}
