package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:7340"
	DefaultMediaRoot  = "media"
	DefaultDBFileName = ".fileapp.db"
	DefaultLogLevel   = "debug"
	ConfigFileName    = ".fileapp.toml"

	// DisabledDBPath turns the upload journal off.
	DisabledDBPath = "-"

	DefaultMaxUploadBytes     int64 = 100 * 1024 * 1024
	DefaultMultipartMaxMemory int64 = 8 * 1024 * 1024
	DefaultPolicyMaxBytes     int64 = 10 * 1024 * 1024

	configDirEnvKey          = "FILEAPP_CONFIG_DIR"
	trustProjectConfigEnvKey = "FILEAPP_TRUST_PROJECT_CONFIG"

	apiURLEnvKey            = "FILEAPP_API_URL"
	mediaRootEnvKey         = "FILEAPP_MEDIA_ROOT"
	dbPathEnvKey            = "FILEAPP_DB"
	logLevelEnvKey          = "FILEAPP_LOG_LEVEL"
	enforcePolicyEnvKey     = "FILEAPP_ENFORCE_UPLOAD_POLICY"
	allowedExtensionsEnvKey = "FILEAPP_ALLOWED_EXTENSIONS"
)

// DefaultAllowedExtensions is the image allow-list used by the upload policy.
var DefaultAllowedExtensions = []string{".bmp", ".gif", ".jpeg", ".jpg", ".png"}

// UploadConfig defines runtime configuration for upload handling.
type UploadConfig struct {
	MaxUploadBytes     int64    `toml:"max_upload_bytes"`
	MultipartMaxMemory int64    `toml:"multipart_max_memory"`
	EnforcePolicy      bool     `toml:"enforce_policy"`
	AllowedExtensions  []string `toml:"allowed_extensions"`
	PolicyMaxBytes     int64    `toml:"policy_max_bytes"`
}

// Config defines runtime configuration for fileapp.
type Config struct {
	APIURL                   string       `toml:"api_url"`
	MediaRoot                string       `toml:"media_root"`
	DBPath                   string       `toml:"db_path"`
	LogLevel                 string       `toml:"log_level"`
	Uploads                  UploadConfig `toml:"uploads"`
	TrustedProjectConfigPath string       `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:    DefaultAPIURL,
		MediaRoot: "",
		DBPath:    "",
		LogLevel:  DefaultLogLevel,
		Uploads: UploadConfig{
			MaxUploadBytes:     DefaultMaxUploadBytes,
			MultipartMaxMemory: DefaultMultipartMaxMemory,
			EnforcePolicy:      false,
			AllowedExtensions:  append([]string(nil), DefaultAllowedExtensions...),
			PolicyMaxBytes:     DefaultPolicyMaxBytes,
		},
	}
}

// JournalEnabled reports whether the upload journal should be opened.
func (c *Config) JournalEnabled() bool {
	return strings.TrimSpace(c.DBPath) != DisabledDBPath
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, ConfigFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"media_root",
	"db_path",
	"log_level",
	"uploads.max_upload_bytes",
	"uploads.multipart_max_memory",
	"uploads.enforce_policy",
	"uploads.allowed_extensions",
	"uploads.policy_max_bytes",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "media_root":
		return c.MediaRoot, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "uploads.max_upload_bytes":
		return strconv.FormatInt(c.Uploads.MaxUploadBytes, 10), nil
	case "uploads.multipart_max_memory":
		return strconv.FormatInt(c.Uploads.MultipartMaxMemory, 10), nil
	case "uploads.enforce_policy":
		return strconv.FormatBool(c.Uploads.EnforcePolicy), nil
	case "uploads.allowed_extensions":
		return strings.Join(c.Uploads.AllowedExtensions, ","), nil
	case "uploads.policy_max_bytes":
		return strconv.FormatInt(c.Uploads.PolicyMaxBytes, 10), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ConfigFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, ConfigFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, ConfigFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	cfg.normalizeUploadDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		c.APIURL = apiURL
	}
	if mediaRoot := os.Getenv(mediaRootEnvKey); mediaRoot != "" {
		c.MediaRoot = mediaRoot
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		c.DBPath = dbPath
	}
	if level := os.Getenv(logLevelEnvKey); level != "" {
		c.LogLevel = level
	}
	if raw := strings.TrimSpace(os.Getenv(enforcePolicyEnvKey)); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			c.Uploads.EnforcePolicy = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv(allowedExtensionsEnvKey)); raw != "" {
		c.Uploads.AllowedExtensions = splitCSV(raw)
	}
}

// resolvePaths anchors the media root at the working directory and places
// the journal inside it unless configured elsewhere.
func (c *Config) resolvePaths() error {
	if strings.TrimSpace(c.MediaRoot) == "" {
		c.MediaRoot = DefaultMediaRoot
	}
	root, err := filepath.Abs(c.MediaRoot)
	if err != nil {
		return fmt.Errorf("resolve media_root: %w", err)
	}
	c.MediaRoot = root

	switch strings.TrimSpace(c.DBPath) {
	case "":
		c.DBPath = filepath.Join(c.MediaRoot, DefaultDBFileName)
	case DisabledDBPath:
		c.DBPath = DisabledDBPath
	}
	return nil
}

// ParseValue checks value against the type of key and returns it in the
// form Get reports once written.
func ParseValue(key, value string) (string, error) {
	if !IsAllowedKey(key) {
		return "", fmt.Errorf("unknown key: %s", key)
	}
	parsed, err := parseSetValue(key, value)
	if err != nil {
		return "", err
	}
	switch v := parsed.(type) {
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []string:
		return strings.Join(v, ","), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "api_url":
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("api_url must be an http or https URL, got %q", value)
		}
		return value, nil
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			return strings.ToLower(value), nil
		}
		return nil, fmt.Errorf("log_level must be debug, info, warn or error, got %q", value)
	case "uploads.max_upload_bytes", "uploads.multipart_max_memory", "uploads.policy_max_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		return parsed, nil
	case "uploads.enforce_policy":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		return parsed, nil
	case "uploads.allowed_extensions":
		exts := splitCSV(value)
		if len(exts) == 0 {
			return nil, fmt.Errorf("%s must list at least one extension", key)
		}
		return normalizeExtensions(exts), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (c *Config) normalizeUploadDefaults() {
	if c.Uploads.MaxUploadBytes <= 0 {
		c.Uploads.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Uploads.MultipartMaxMemory <= 0 {
		c.Uploads.MultipartMaxMemory = DefaultMultipartMaxMemory
	}
	if c.Uploads.PolicyMaxBytes <= 0 {
		c.Uploads.PolicyMaxBytes = DefaultPolicyMaxBytes
	}
	c.Uploads.AllowedExtensions = normalizeExtensions(c.Uploads.AllowedExtensions)
}

func normalizeExtensions(rawValues []string) []string {
	out := make([]string, 0, len(rawValues))
	seen := map[string]struct{}{}
	for _, raw := range rawValues {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return append([]string(nil), DefaultAllowedExtensions...)
	}
	return out
}
