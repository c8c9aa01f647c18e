// Package config resolves process configuration for visitlog. Values come from
// VISITLOG_* environment variables first, then from the optional TOML file named
// by VISITLOG_CONFIG, then from built-in defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// File mirrors the layout of the optional TOML configuration file.
type File struct {
	Web struct {
		Listen   string `toml:"listen"`
		Port     int    `toml:"port"`
		BasePath string `toml:"basePath"`
		Domain   string `toml:"domain"`
		CertFile string `toml:"certFile"`
		KeyFile  string `toml:"keyFile"`
		TimeZone string `toml:"timeZone"`
	} `toml:"web"`
	Log struct {
		Level  string `toml:"level"`
		Folder string `toml:"folder"`
	} `toml:"log"`
	JWT struct {
		Secret     string `toml:"secret"`
		AccessTTL  string `toml:"accessTTL"`
		RefreshTTL string `toml:"refreshTTL"`
	} `toml:"jwt"`
	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`
	Admin struct {
		Username string `toml:"username"`
		Password string `toml:"password"`
	} `toml:"admin"`
	Security struct {
		LoginAttemptsPerMinute int `toml:"loginAttemptsPerMinute"`
		AuditRetentionDays     int `toml:"auditRetentionDays"`
	} `toml:"security"`
	Database DatabaseConfig `toml:"database"`
}

var (
	fileMu   sync.RWMutex
	fileConf *File
)

// LoadFile parses the TOML file at path and makes its values available to the
// getters. An empty path is a no-op.
func LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	f := &File{}
	if err := toml.Unmarshal(data, f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	fileMu.Lock()
	fileConf = f
	fileMu.Unlock()
	return nil
}

// ResetFile drops any configuration loaded by LoadFile.
func ResetFile() {
	fileMu.Lock()
	fileConf = nil
	fileMu.Unlock()
}

func file() *File {
	fileMu.RLock()
	defer fileMu.RUnlock()
	if fileConf == nil {
		return &File{}
	}
	return fileConf
}

func GetConfigPath() string {
	return os.Getenv("VISITLOG_CONFIG")
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := firstNonEmpty(os.Getenv("VISITLOG_LOG_LEVEL"), file().Log.Level)
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("VISITLOG_DEBUG") == "true"
}

func GetLogFolder() string {
	return firstNonEmpty(os.Getenv("VISITLOG_LOG_FOLDER"), file().Log.Folder, "log")
}

func GetListen() string {
	return firstNonEmpty(os.Getenv("VISITLOG_LISTEN"), file().Web.Listen)
}

func GetPort() int {
	return envInt("VISITLOG_PORT", file().Web.Port, 5000)
}

// GetBasePath returns the route prefix with a leading slash and no trailing slash.
func GetBasePath() string {
	p := firstNonEmpty(os.Getenv("VISITLOG_BASE_PATH"), file().Web.BasePath, "/api")
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return ""
	}
	return p
}

// GetDomain returns the only Host accepted by the server, or "" for any.
func GetDomain() string {
	return firstNonEmpty(os.Getenv("VISITLOG_DOMAIN"), file().Web.Domain)
}

// GetCertFile and GetKeyFile name the TLS key pair; both empty means plain HTTP.
func GetCertFile() string {
	return firstNonEmpty(os.Getenv("VISITLOG_CERT_FILE"), file().Web.CertFile)
}

func GetKeyFile() string {
	return firstNonEmpty(os.Getenv("VISITLOG_KEY_FILE"), file().Web.KeyFile)
}

// GetTimeLocation returns the zone cron schedules run in.
func GetTimeLocation() (*time.Location, error) {
	zone := firstNonEmpty(os.Getenv("VISITLOG_TIME_ZONE"), file().Web.TimeZone, "Local")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %s: %w", zone, err)
	}
	return loc, nil
}

func GetJWTSecret() string {
	return firstNonEmpty(os.Getenv("VISITLOG_JWT_SECRET"), file().JWT.Secret)
}

func GetAccessTokenTTL() time.Duration {
	return envDuration("VISITLOG_ACCESS_TOKEN_TTL", file().JWT.AccessTTL, time.Hour)
}

func GetRefreshTokenTTL() time.Duration {
	return envDuration("VISITLOG_REFRESH_TOKEN_TTL", file().JWT.RefreshTTL, 7*24*time.Hour)
}

// GetRedisAddr returns the external redis address; empty means embedded.
func GetRedisAddr() string {
	return firstNonEmpty(os.Getenv("VISITLOG_REDIS_ADDR"), file().Redis.Addr)
}

func GetRedisPassword() string {
	return firstNonEmpty(os.Getenv("VISITLOG_REDIS_PASSWORD"), file().Redis.Password)
}

func GetRedisDB() int {
	return envInt("VISITLOG_REDIS_DB", file().Redis.DB, 0)
}

func GetAdminUsername() string {
	return firstNonEmpty(os.Getenv("VISITLOG_ADMIN_USERNAME"), file().Admin.Username, "admin")
}

func GetAdminPassword() string {
	return firstNonEmpty(os.Getenv("VISITLOG_ADMIN_PASSWORD"), file().Admin.Password, "Admin@123")
}

func GetLoginAttemptsPerMinute() int {
	return envInt("VISITLOG_LOGIN_ATTEMPTS_PER_MINUTE", file().Security.LoginAttemptsPerMinute, 10)
}

func GetAuditRetentionDays() int {
	return envInt("VISITLOG_AUDIT_RETENTION_DAYS", file().Security.AuditRetentionDays, 90)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, fromFile, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	if fromFile != 0 {
		return fromFile
	}
	return fallback
}

func envDuration(key, fromFile string, fallback time.Duration) time.Duration {
	for _, raw := range []string{os.Getenv(key), fromFile} {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
