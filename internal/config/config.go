package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	scribeerrors "github.com/hpungsan/scribe/internal/errors"
)

// Config holds application configuration.
type Config struct {
	// Date is the meeting date (YYYY-MM-DD). Empty means today, unless the log has a "date:" line.
	Date string `json:"date,omitempty"`

	// Jekyll selects the publishing target: "none", "md" or "kd" (kramdown).
	Jekyll string `json:"jekyll,omitempty"`

	// Pandoc emits a pandoc title block instead of the logo header. Ignored when Jekyll is set.
	Pandoc bool `json:"pandoc,omitempty"`

	// Final drops the draft notice.
	Final bool `json:"final,omitempty"`

	// Auto records action items in the local action store after each conversion.
	Auto bool `json:"auto,omitempty"`

	// IRCFormat forces the log format ("rrsagent", "irccloud", "textual", "plain").
	// Empty means detect from the log.
	IRCFormat string `json:"irc_format,omitempty"`

	GHRepo       string `json:"ghrepo,omitempty"`
	IssueRepo    string `json:"issuerepo,omitempty"`
	ACRepo       string `json:"acrepo,omitempty"`
	ACURLPattern string `json:"acurlpattern,omitempty"`

	Agenda  string `json:"agenda,omitempty"`
	Meeting string `json:"meeting,omitempty"`

	// Nicknames is a path or URL of the nickname table (JSON or YAML).
	Nicknames string `json:"nicknames,omitempty"`

	// AllowedPaths is an allowlist of directories minutes may be written to.
	// Paths outside ~/.scribe/minutes require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for minutes files.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// AllowedHosts lists hosts that MCP and web callers may fetch from even
	// when they resolve to loopback or private addresses.
	AllowedHosts []string `json:"allowed_hosts,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

var (
	jekyllModes = []string{"none", "md", "kd"}
	ircFormats  = []string{"", "rrsagent", "irccloud", "textual", "plain"}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Jekyll: "none",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.scribe.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.scribe) and repo (.scribe) directories.
// Repo config is found by walking upward from startDir to find the nearest .scribe/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .scribe/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".scribe", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, scribeerrors.NewInvalidConfig(configPath, err.Error())
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Strings and ints: overlay wins if non-zero, else base
	result.Date = pick(overlay.Date, base.Date)
	result.Jekyll = pick(overlay.Jekyll, base.Jekyll)
	result.IRCFormat = pick(overlay.IRCFormat, base.IRCFormat)
	result.GHRepo = pick(overlay.GHRepo, base.GHRepo)
	result.IssueRepo = pick(overlay.IssueRepo, base.IssueRepo)
	result.ACRepo = pick(overlay.ACRepo, base.ACRepo)
	result.ACURLPattern = pick(overlay.ACURLPattern, base.ACURLPattern)
	result.Agenda = pick(overlay.Agenda, base.Agenda)
	result.Meeting = pick(overlay.Meeting, base.Meeting)
	result.Nicknames = pick(overlay.Nicknames, base.Nicknames)
	result.DBMaxOpenConns = pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.Pandoc = base.Pandoc || overlay.Pandoc
	result.Final = base.Final || overlay.Final
	result.Auto = base.Auto || overlay.Auto
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.AllowedHosts = mergeStringSlice(base.AllowedHosts, overlay.AllowedHosts)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// Validate checks enumerated and formatted values.
func (c *Config) Validate() error {
	if c.Jekyll != "" && !slices.Contains(jekyllModes, c.Jekyll) {
		return scribeerrors.NewInvalidConfig("jekyll", "must be one of none, md, kd")
	}
	if !slices.Contains(ircFormats, c.IRCFormat) {
		return scribeerrors.NewInvalidConfig("irc_format", "must be one of rrsagent, irccloud, textual, plain")
	}
	if c.Date != "" {
		if _, err := time.Parse(time.DateOnly, c.Date); err != nil {
			return scribeerrors.NewInvalidConfig("date", "must be YYYY-MM-DD")
		}
	}
	for _, field := range []struct{ name, value string }{
		{"ghrepo", c.GHRepo},
		{"issuerepo", c.IssueRepo},
		{"acrepo", c.ACRepo},
	} {
		if field.value == "" {
			continue
		}
		org, repo, ok := strings.Cut(field.value, "/")
		if !ok || org == "" || repo == "" || strings.Contains(repo, "/") {
			return scribeerrors.NewInvalidConfig(field.name, "must be of the form org/repo")
		}
	}
	if c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0 {
		return scribeerrors.NewInvalidConfig("db_max_open_conns", "must not be negative")
	}
	return nil
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range slices.Concat(a, b) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
