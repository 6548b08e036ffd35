package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ksred/reservations-migrate/internal/utils"
)

// MaxIdentifierLength is the longest identifier PostgreSQL keeps without truncating
const MaxIdentifierLength = 63

// Config represents the main application configuration
type Config struct {
	Database  Database  `json:"database" mapstructure:"database"`
	Migration Migration `json:"migration" mapstructure:"migration"`
	Server    Server    `json:"server" mapstructure:"server"`
	HTTP      HTTP      `json:"http" mapstructure:"http"`
	JWT       JWT       `json:"jwt" mapstructure:"jwt"`
}

// Database represents database configuration
type Database struct {
	Host            string        `json:"host" mapstructure:"host"`
	Port            int           `json:"port" mapstructure:"port"`
	User            string        `json:"user" mapstructure:"user"`
	Password        string        `json:"password" mapstructure:"password"`
	DBName          string        `json:"dbname" mapstructure:"dbname"`
	SSLMode         string        `json:"sslmode" mapstructure:"sslmode"`
	TimeZone        string        `json:"timezone" mapstructure:"timezone"`
	MaxConnections  int           `json:"max_connections" mapstructure:"max_connections"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnectRetries  int           `json:"connect_retries" mapstructure:"connect_retries"`
	LogLevel        string        `json:"log_level" mapstructure:"log_level"`
}

// Migration controls how the normalization run behaves
type Migration struct {
	// Schema is the table_schema searched in the metadata catalog
	Schema string `json:"schema" mapstructure:"schema"`
	// DryRun reports corrective statements without executing them
	DryRun bool `json:"dry_run" mapstructure:"dry_run"`
	// Bootstrap creates missing tables before normalizing
	Bootstrap bool `json:"bootstrap" mapstructure:"bootstrap"`
	// LockTimeout bounds how long a statement waits for a table lock; zero disables it
	LockTimeout time.Duration `json:"lock_timeout" mapstructure:"lock_timeout"`
	// Timeout bounds the whole run
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Server represents logging configuration shared by both binaries
type Server struct {
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	Debug    bool   `json:"debug" mapstructure:"debug"`
	LogFile  string `json:"log_file" mapstructure:"log_file"`
}

// HTTP represents the inspection server configuration
type HTTP struct {
	Port         int      `json:"port" mapstructure:"port"`
	AllowOrigins []string `json:"allow_origins" mapstructure:"allow_origins"`
}

// JWT represents operator token configuration; an empty secret disables auth
type JWT struct {
	Secret string        `json:"secret" mapstructure:"secret"`
	TTL    time.Duration `json:"ttl" mapstructure:"ttl"`
}

// NewDefault returns a Config instance with default values
func NewDefault() *Config {
	return &Config{
		Database: Database{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "",
			DBName:          "postgres",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxConnections:  5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectRetries:  5,
			LogLevel:        "warn",
		},
		Migration: Migration{
			Schema:      "public",
			LockTimeout: 10 * time.Second,
			Timeout:     5 * time.Minute,
		},
		Server: Server{
			LogLevel: "info",
		},
		HTTP: HTTP{
			Port:         8083,
			AllowOrigins: []string{"http://localhost:3000"},
		},
		JWT: JWT{
			TTL: 12 * time.Hour,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return utils.RequiredFieldError("database.host")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return utils.InvalidFieldError("database.port", "must be between 1 and 65535")
	}
	if c.Database.User == "" {
		return utils.RequiredFieldError("database.user")
	}
	if c.Database.DBName == "" {
		return utils.RequiredFieldError("database.dbname")
	}
	if c.Database.MaxConnections <= 0 {
		return utils.InvalidFieldError("database.max_connections", "must be greater than 0")
	}
	if c.Database.MaxIdleConns < 0 {
		return utils.InvalidFieldError("database.max_idle_conns", "cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxConnections {
		return utils.InvalidFieldError("database.max_idle_conns", "cannot exceed max connections")
	}
	if c.Database.ConnectRetries < 1 {
		return utils.InvalidFieldError("database.connect_retries", "must be at least 1")
	}
	validGormLevels := map[string]bool{"silent": true, "error": true, "warn": true, "info": true}
	if !validGormLevels[c.Database.LogLevel] {
		return utils.InvalidFieldError("database.log_level", fmt.Sprintf("invalid level: %s", c.Database.LogLevel))
	}

	if c.Migration.Schema == "" {
		return utils.RequiredFieldError("migration.schema")
	}
	if len(c.Migration.Schema) > MaxIdentifierLength {
		return utils.InvalidFieldError("migration.schema", fmt.Sprintf("must be at most %d bytes", MaxIdentifierLength))
	}
	if c.Migration.LockTimeout < 0 {
		return utils.InvalidFieldError("migration.lock_timeout", "cannot be negative")
	}
	if c.Migration.Timeout <= 0 {
		return utils.InvalidFieldError("migration.timeout", "must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[c.Server.LogLevel] {
		return utils.InvalidFieldError("server.log_level", fmt.Sprintf("invalid log level: %s", c.Server.LogLevel))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return utils.InvalidFieldError("http.port", "must be between 1 and 65535")
	}
	if c.JWT.Secret != "" && c.JWT.TTL <= 0 {
		return utils.InvalidFieldError("jwt.ttl", "must be positive when a secret is set")
	}

	return nil
}

// URL renders the connection settings as a postgres:// URL. Credentials and
// the database name are escaped, so any byte is safe in them.
func (d Database) URL() string {
	params := url.Values{}
	params.Set("sslmode", d.SSLMode)
	if d.TimeZone != "" {
		params.Set("TimeZone", d.TimeZone)
	}

	var userInfo *url.Userinfo
	if d.Password == "" {
		userInfo = url.User(d.User)
	} else {
		userInfo = url.UserPassword(d.User, d.Password)
	}

	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: params.Encode(),
	}

	return u.String()
}
