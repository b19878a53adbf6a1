// Package config handles application configuration loading from YAML and environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "feedbackboard/internal/utils"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server and the CLI client
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Client configuration used by the feedback CLI
	Client ClientConfig `json:"client" yaml:"client"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port        string   `json:"port" yaml:"port"`
	Debug       bool     `json:"debug" yaml:"debug"`
	LogLevel    string   `json:"log_level" yaml:"log_level"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	// MaxSearchLength bounds the search query accepted by the list endpoint.
	MaxSearchLength int `json:"max_search_length" yaml:"max_search_length"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL             string        `json:"url" yaml:"url"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// ClientConfig represents the REST client and board settings
type ClientConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	// PageSize is the number of records per page in list views.
	PageSize int `json:"page_size" yaml:"page_size"`
	// MaxNavPages is how many page numbers the navigation bar shows at once.
	MaxNavPages    int           `json:"max_nav_pages" yaml:"max_nav_pages"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
	// UserID is the pseudonymous author ID. When empty the CLI reads or creates
	// one in IdentityFile.
	UserID       string `json:"user_id" yaml:"user_id"`
	Role         string `json:"role" yaml:"role"`
	IdentityFile string `json:"identity_file" yaml:"identity_file"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "feedback-server" or "feedback-cli"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultServerPort,
			LogLevel:        "info",
			MaxSearchLength: MaxSearchLength,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: DatabaseConnMaxLifetime,
		},
		Client: ClientConfig{
			BaseURL:        DefaultBaseURL,
			PageSize:       DefaultPageSize,
			MaxNavPages:    DefaultMaxNavPages,
			RequestTimeout: DefaultRequestTimeout,
			Role:           RoleStudent,
		},
		OpenTelemetry: OpenTelemetryConfig{
			Endpoint:     "localhost:4317",
			Protocol:     "grpc",
			Insecure:     true,
			SamplingRate: 1.0,
		},
	}
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	return config, nil
}

// IsStaff reports whether the configured client role may respond and change status
func (c *Config) IsStaff() bool {
	return IsStaffRole(c.Client.Role)
}

// IsStaffRole reports whether role is one of the staff roles
func IsStaffRole(role string) bool {
	return role == RoleTeacher || role == RoleAdmin
}

// applyDefaults fills zero values left by a partial YAML file
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.MaxSearchLength <= 0 {
		c.Server.MaxSearchLength = def.Server.MaxSearchLength
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = def.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = def.Database.MaxIdleConns
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = def.Database.ConnMaxLifetime
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = def.Client.BaseURL
	}
	if c.Client.PageSize <= 0 {
		c.Client.PageSize = def.Client.PageSize
	}
	if c.Client.MaxNavPages <= 0 {
		c.Client.MaxNavPages = def.Client.MaxNavPages
	}
	if c.Client.RequestTimeout <= 0 {
		c.Client.RequestTimeout = def.Client.RequestTimeout
	}
	if c.Client.Role == "" {
		c.Client.Role = def.Client.Role
	}
	if c.OpenTelemetry.Protocol == "" {
		c.OpenTelemetry.Protocol = def.OpenTelemetry.Protocol
	}
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = def.OpenTelemetry.SamplingRate
	}
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnvWithPrefix(c, "")
}

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		// time.Duration is an int64 kind; accept "15s" style values first
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if envVal := os.Getenv(envKey); envVal != "" {
				if d, err := time.ParseDuration(envVal); err == nil {
					field.SetInt(int64(d))
				}
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				if field.Type().Elem().Kind() == reflect.String {
					slice := strings.Split(envVal, ",")
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file named by FEEDBACK_CONFIG_FILE or
// the default config.yaml. A missing default file yields DefaultConfig.
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	config, err := loadConfigFromFile(DefaultConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// loadConfigFromFile loads configuration from a specific file on top of the defaults
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}
