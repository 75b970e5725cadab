package server

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

const (
	defaultMaxUploadBytes     = 100 << 20 // 100 MiB
	defaultMultipartMaxMemory = 8 << 20   // 8 MiB
	defaultPolicyMaxBytes     = 10 << 20  // 10 MiB
)

// DefaultAllowedExtensions is the image allow-list applied when the upload
// policy is enforced without an explicit list.
var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}

// UploadOptions configures upload limits and the optional content policy.
type UploadOptions struct {
	MaxUploadBytes     int64
	MultipartMaxMemory int64
	EnforcePolicy      bool
	AllowedExtensions  []string
	PolicyMaxBytes     int64
}

// DefaultUploadOptions returns the limits used when nothing is configured.
// The content policy is off.
func DefaultUploadOptions() UploadOptions {
	return UploadOptions{
		MaxUploadBytes:     defaultMaxUploadBytes,
		MultipartMaxMemory: defaultMultipartMaxMemory,
		AllowedExtensions:  append([]string(nil), DefaultAllowedExtensions...),
		PolicyMaxBytes:     defaultPolicyMaxBytes,
	}
}

// uploadPolicy is the normalized form of UploadOptions.
type uploadPolicy struct {
	enforce    bool
	extensions map[string]struct{}
	maxBytes   int64
}

func newUploadPolicy(opts UploadOptions) uploadPolicy {
	policy := uploadPolicy{enforce: opts.EnforcePolicy, maxBytes: opts.PolicyMaxBytes}
	if policy.maxBytes <= 0 {
		policy.maxBytes = defaultPolicyMaxBytes
	}
	raw := opts.AllowedExtensions
	if len(raw) == 0 {
		raw = DefaultAllowedExtensions
	}
	policy.extensions = map[string]struct{}{}
	for _, ext := range raw {
		ext = normalizeExtension(ext)
		if ext == "" {
			continue
		}
		policy.extensions[ext] = struct{}{}
	}
	return policy
}

func normalizeExtension(raw string) string {
	ext := strings.ToLower(strings.TrimSpace(raw))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// check validates name and size against the policy. It is a no-op when the
// policy is not enforced.
func (p uploadPolicy) check(name string, size int64) error {
	if !p.enforce {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := p.extensions[ext]; !ok {
		return badRequestCode(fmt.Errorf("file type %q is not allowed; allowed: %s", ext, strings.Join(p.allowed(), ", ")), ErrCodeInvalidUpload)
	}
	if size > p.maxBytes {
		return p.sizeViolation(fmt.Sprintf("file is %d bytes", size))
	}
	return nil
}

func (p uploadPolicy) sizeViolation(detail string) error {
	return badRequestCode(fmt.Errorf("%s; limit is %d bytes", detail, p.maxBytes), ErrCodeInvalidUpload)
}

var errPolicySizeExceeded = errors.New("upload exceeds policy size limit")

// limit caps r at the policy size so a missing or understated declared size
// cannot bypass check. Reads past the cap fail with errPolicySizeExceeded.
func (p uploadPolicy) limit(r io.Reader) io.Reader {
	if !p.enforce {
		return r
	}
	return &policyLimitReader{r: io.LimitReader(r, p.maxBytes+1), max: p.maxBytes}
}

type policyLimitReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (l *policyLimitReader) Read(b []byte) (int, error) {
	n, err := l.r.Read(b)
	l.read += int64(n)
	if l.read > l.max {
		return n, errPolicySizeExceeded
	}
	return n, err
}

func (p uploadPolicy) allowed() []string {
	out := make([]string, 0, len(p.extensions))
	for ext := range p.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
