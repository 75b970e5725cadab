package blobstore

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const (
	base36Alphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength      = 7
	maxFilenameBytes  = 200
	maxNameAttempts   = 20
	namespacePatternS = `^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`
)

var namespacePattern = regexp.MustCompile(namespacePatternS)

// ValidateNamespace checks that service is safe to use as one directory name.
func ValidateNamespace(service string) error {
	if !namespacePattern.MatchString(service) {
		return fmt.Errorf("%w: service %q", ErrInvalidName, service)
	}
	return nil
}

// ValidateFilename checks that a lookup filename names exactly one entry
// inside a namespace.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: filename %q", ErrInvalidName, name)
	}
	return nil
}

// SanitizeFilename turns an uploaded filename into a storable one. Directory
// components are dropped, spaces become underscores and anything other than
// letters, digits, '_', '-' and '.' is removed.
func SanitizeFilename(raw string) (string, error) {
	name := strings.ReplaceAll(raw, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	name = b.String()
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: filename %q", ErrInvalidName, raw)
	}
	return truncateFilename(name, maxFilenameBytes), nil
}

// alternativeName inserts a random suffix between stem and extension.
func alternativeName(name string) (string, error) {
	suffix, err := randomBase36(suffixLength)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := fmt.Sprintf("%s_%s%s", stem, suffix, ext)
	if len(candidate) > maxFilenameBytes {
		stem = truncateString(stem, maxFilenameBytes-len(ext)-suffixLength-1)
		candidate = fmt.Sprintf("%s_%s%s", stem, suffix, ext)
	}
	return candidate, nil
}

func truncateFilename(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= limit {
		return truncateString(name, limit)
	}
	return truncateString(strings.TrimSuffix(name, ext), limit-len(ext)) + ext
}

// truncateString cuts s to at most limit bytes without splitting a rune.
func truncateString(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut]
}

func randomBase36(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = base36Alphabet[int(b[i])%len(base36Alphabet)]
	}
	return string(out), nil
}
