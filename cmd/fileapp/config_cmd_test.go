package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"fileapp/internal/config"
)

func TestConfigSetRejectsBadUploadValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FILEAPP_CONFIG_DIR", dir)
	cfg := config.Default()

	for _, args := range [][]string{
		{"uploads.max_upload_bytes", "-1"},
		{"uploads.multipart_max_memory", "0"},
		{"uploads.policy_max_bytes", "10MB"},
		{"uploads.enforce_policy", "sometimes"},
		{"uploads.allowed_extensions", " , "},
	} {
		err := runRoot(t, &cfg, append([]string{"config", "set", "--"}, args...)...)
		if err == nil || !strings.Contains(err.Error(), "config set "+args[0]) {
			t.Fatalf("expected typed error for %s=%q, got %v", args[0], args[1], err)
		}
	}

	err := runRoot(t, &cfg, "config", "set", "uploads.max_bytes", "1")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, config.ConfigFileName)); !os.IsNotExist(err) {
		t.Fatalf("rejected values must not write a config file (err: %v)", err)
	}
}

func TestConfigSetWritesNormalizedUploadValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FILEAPP_CONFIG_DIR", dir)
	t.Setenv("FILEAPP_MEDIA_ROOT", filepath.Join(dir, "media"))
	t.Setenv("FILEAPP_ALLOWED_EXTENSIONS", "")
	t.Setenv("FILEAPP_ENFORCE_UPLOAD_POLICY", "")
	cfg := config.Default()

	for _, args := range [][]string{
		{"uploads.allowed_extensions", "PNG, gif,png"},
		{"uploads.policy_max_bytes", " 2048 "},
		{"uploads.enforce_policy", "TRUE"},
	} {
		if err := runRoot(t, &cfg, append([]string{"config", "set", "--"}, args...)...); err != nil {
			t.Fatalf("config set %s: %v", args[0], err)
		}
	}

	loaded, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Uploads.EnforcePolicy || loaded.Uploads.PolicyMaxBytes != 2048 {
		t.Fatalf("unexpected uploads config %#v", loaded.Uploads)
	}
	if !reflect.DeepEqual(loaded.Uploads.AllowedExtensions, []string{".gif", ".png"}) {
		t.Fatalf("unexpected extensions %v", loaded.Uploads.AllowedExtensions)
	}
}
