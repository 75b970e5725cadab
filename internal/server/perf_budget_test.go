package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestPerformanceBudgets(t *testing.T) {
	if strings.TrimSpace(os.Getenv("FILEAPP_PERF_ENFORCE")) != "1" {
		t.Skip("set FILEAPP_PERF_ENFORCE=1 to run performance budget checks")
	}

	t.Run("upload_colliding", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		rounds := envInt("FILEAPP_PERF_UPLOAD_ROUNDS", 200)
		maxPerOp := envDuration("FILEAPP_PERF_UPLOAD_MAX_PER_OP", 15*time.Millisecond)
		payload := bytes.Repeat([]byte("x"), 64*1024)

		started := time.Now()
		for i := 0; i < rounds; i++ {
			in := UploadInput{Service: "perf", Filename: "same.bin"}
			if _, err := env.srv.files.Upload(ctx, in, bytes.NewReader(payload)); err != nil {
				t.Fatalf("upload round %d: %v", i, err)
			}
		}
		assertBudget(t, "upload_colliding", time.Since(started), rounds, maxPerOp)
	})

	t.Run("download", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		rounds := envInt("FILEAPP_PERF_DOWNLOAD_ROUNDS", 500)
		maxPerOp := envDuration("FILEAPP_PERF_DOWNLOAD_MAX_PER_OP", 5*time.Millisecond)
		resp, err := env.srv.files.Upload(ctx, UploadInput{Service: "perf", Filename: "read.bin"}, bytes.NewReader(bytes.Repeat([]byte("y"), 256*1024)))
		if err != nil {
			t.Fatalf("seed upload: %v", err)
		}

		started := time.Now()
		for i := 0; i < rounds; i++ {
			blob, err := env.srv.files.Open(ctx, "perf", resp.FilePath)
			if err != nil {
				t.Fatalf("open round %d: %v", i, err)
			}
			_, err = io.Copy(io.Discard, blob.File)
			blob.File.Close()
			if err != nil {
				t.Fatalf("read round %d: %v", i, err)
			}
		}
		assertBudget(t, "download", time.Since(started), rounds, maxPerOp)
	})
}

func assertBudget(t *testing.T, name string, elapsed time.Duration, ops int, maxPerOp time.Duration) {
	t.Helper()
	if ops <= 0 {
		t.Fatalf("%s: invalid op count %d", name, ops)
	}
	perOp := elapsed / time.Duration(ops)
	t.Logf("%s baseline: total=%s ops=%d per_op=%s budget=%s", name, elapsed, ops, perOp, maxPerOp)
	if perOp > maxPerOp {
		t.Fatalf("%s regression: per_op=%s exceeds budget=%s", name, perOp, maxPerOp)
	}
}

func envInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err == nil && parsed > 0 {
		return parsed
	}
	if millis, err := strconv.Atoi(value); err == nil && millis > 0 {
		return time.Duration(millis) * time.Millisecond
	}
	fmt.Fprintf(os.Stderr, "warning: invalid duration for %s=%q, using default %s\n", key, value, def)
	return def
}
