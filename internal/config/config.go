package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"adscout/internal/errorwrapper"

	"gopkg.in/yaml.v3"
)

const (
	// Server Defaults
	DefaultServerListenAddress    = ":8080"
	DefaultServerReadTimeoutSecs  = 15
	DefaultServerWriteTimeoutSecs = 15
	DefaultSessionCookieName      = "adscout_session"

	// Prober Defaults
	DefaultProberUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultProberTimeoutSecs    = 5
	DefaultProberMaxBodyBytes   = 100 * 1024
	DefaultProberScoreThreshold = 4
	DefaultProberSchemaPoints   = 2

	// Merchant Defaults
	DefaultMerchantTimeoutSecs  = 10
	DefaultMerchantCacheTTLSecs = 300

	// Cache Defaults
	DefaultRedisAddress = "localhost:6379"

	// Audit Defaults
	DefaultAuditSQLitePath = "database/audit/classifications.db"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3
)

type GlobalConfig struct {
	ServerConfig     ServerConfig     `json:"server_config,omitempty" yaml:"server_config,omitempty"`
	ClassifierConfig ClassifierConfig `json:"classifier_config,omitempty" yaml:"classifier_config,omitempty"`
	ProberConfig     ProberConfig     `json:"prober_config,omitempty" yaml:"prober_config,omitempty"`
	MerchantConfig   MerchantConfig   `json:"merchant_config,omitempty" yaml:"merchant_config,omitempty"`
	CacheConfig      CacheConfig      `json:"cache_config,omitempty" yaml:"cache_config,omitempty"`
	AuditConfig      AuditConfig      `json:"audit_config,omitempty" yaml:"audit_config,omitempty"`
	LogConfig        LogConfig        `json:"log_config,omitempty" yaml:"log_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		ServerConfig:     NewDefaultServerConfig(),
		ClassifierConfig: NewDefaultClassifierConfig(),
		ProberConfig:     NewDefaultProberConfig(),
		MerchantConfig:   NewDefaultMerchantConfig(),
		CacheConfig:      NewDefaultCacheConfig(),
		AuditConfig:      NewDefaultAuditConfig(),
		LogConfig:        NewDefaultLogConfig(),
	}
}

type ServerConfig struct {
	ListenAddress     string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`
	ReadTimeoutSecs   int    `json:"read_timeout_secs,omitempty" yaml:"read_timeout_secs,omitempty" validate:"omitempty,min=1"`
	WriteTimeoutSecs  int    `json:"write_timeout_secs,omitempty" yaml:"write_timeout_secs,omitempty" validate:"omitempty,min=1"`
	SessionCookieName string `json:"session_cookie_name,omitempty" yaml:"session_cookie_name,omitempty"`
	// SessionJWTSecret is normally supplied via the ADSCOUT_SESSION_SECRET
	// environment variable rather than the config file.
	SessionJWTSecret string `json:"session_jwt_secret,omitempty" yaml:"session_jwt_secret,omitempty"`
}

func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddress:     DefaultServerListenAddress,
		ReadTimeoutSecs:   DefaultServerReadTimeoutSecs,
		WriteTimeoutSecs:  DefaultServerWriteTimeoutSecs,
		SessionCookieName: DefaultSessionCookieName,
		SessionJWTSecret:  os.Getenv("ADSCOUT_SESSION_SECRET"),
	}
}

type ClassifierConfig struct {
	// CommerceHostnames are matched against the candidate hostname by exact
	// or domain-suffix comparison; entries ending in "." are brand prefixes
	// matched against any TLD (e.g. "amazon." matches amazon.com, amazon.ae).
	CommerceHostnames []string `json:"commerce_hostnames,omitempty" yaml:"commerce_hostnames,omitempty"`
	// CommercePathHints are literal path-segment hints like "/shop".
	CommercePathHints []string `json:"commerce_path_hints,omitempty" yaml:"commerce_path_hints,omitempty"`
}

func NewDefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		CommerceHostnames: []string{
			"myshopify.com",
			"etsy.com",
			"ebay.",
			"amazon.",
			"aliexpress.com",
			"shein.com",
			"noon.com",
			"jumia.",
			"namshi.com",
			"salla.sa",
			"zid.sa",
			"zid.store",
		},
		CommercePathHints: []string{
			"/shop",
			"/store",
			"/cart",
			"/checkout",
			"/products",
			"/product/",
			"/collections",
			"/boutique",
		},
	}
}

type ProberConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	TimeoutSecs    int      `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1"`
	MaxBodyBytes   int      `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty" validate:"omitempty,min=1024"`
	UserAgent      string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	ScoreThreshold int      `json:"score_threshold,omitempty" yaml:"score_threshold,omitempty" validate:"omitempty,min=1"`
	SchemaPoints   int      `json:"schema_points,omitempty" yaml:"schema_points,omitempty" validate:"omitempty,min=1"`
	DenylistHosts  []string `json:"denylist_hosts,omitempty" yaml:"denylist_hosts,omitempty"`
}

func NewDefaultProberConfig() ProberConfig {
	return ProberConfig{
		Enabled:        true,
		TimeoutSecs:    DefaultProberTimeoutSecs,
		MaxBodyBytes:   DefaultProberMaxBodyBytes,
		UserAgent:      DefaultProberUserAgent,
		ScoreThreshold: DefaultProberScoreThreshold,
		SchemaPoints:   DefaultProberSchemaPoints,
		DenylistHosts: []string{
			"olx.",
			"dubizzle.",
			"craigslist.",
			"avito.",
			"gumtree.",
			"opensooq.",
			"haraj.com.sa",
			"facebook.com",
			"instagram.com",
			"twitter.com",
			"x.com",
			"linkedin.com",
			"wikipedia.org",
			"booking.com",
			"airbnb.",
			"indeed.",
			"bayt.com",
		},
	}
}

type MerchantConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	TimeoutSecs  int  `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1"`
	CacheTTLSecs int  `json:"cache_ttl_secs,omitempty" yaml:"cache_ttl_secs,omitempty" validate:"omitempty,min=1"`
}

func NewDefaultMerchantConfig() MerchantConfig {
	return MerchantConfig{
		Enabled:      true,
		TimeoutSecs:  DefaultMerchantTimeoutSecs,
		CacheTTLSecs: DefaultMerchantCacheTTLSecs,
	}
}

type CacheConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	RedisAddress  string `json:"redis_address,omitempty" yaml:"redis_address,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty" validate:"omitempty,min=0"`
}

func NewDefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       false,
		RedisAddress:  DefaultRedisAddress,
		RedisPassword: os.Getenv("ADSCOUT_REDIS_PASSWORD"),
		RedisDB:       0,
	}
}

type AuditConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	SQLiteDBPath string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty"`
}

func NewDefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:      false,
		SQLiteDBPath: DefaultAuditSQLitePath,
	}
}

type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
}

func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFile:       "", // stderr only by default
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath and supports both
// YAML and JSON formats; YAML is preferred for .yaml/.yml extensions.
// Missing file means defaults.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to read config file")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errorwrapper.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errorwrapper.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
