package coursewizard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/coursewizard/export"
	"github.com/brunobiangulo/coursewizard/extract"
)

// Config holds all configuration for the course wizard engine.
type Config struct {
	// ListenAddr is the HTTP listen address used by cmd/server.
	ListenAddr string `json:"listen_addr" yaml:"listen_addr" validate:"required"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`

	// Timezone is the IANA zone lesson times are expressed in. Calendar
	// exports and links use it.
	Timezone string `json:"timezone" yaml:"timezone" validate:"required"`

	// MaxTextBytes caps the document text handed to the extractors.
	MaxTextBytes int `json:"max_text_bytes" yaml:"max_text_bytes" validate:"gte=1024"`

	// MaxUploadBytes caps a single upload accepted by cmd/server.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gte=1024"`

	// MockFallback substitutes stand-in text for documents whose text
	// layer cannot be read.
	MockFallback bool `json:"mock_fallback" yaml:"mock_fallback"`

	// TemplateVariables are the placeholder names substituted in docx
	// templates. Defaults to export.KnownVariables.
	TemplateVariables []string `json:"template_variables" yaml:"template_variables" validate:"dive,required"`

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

// DefaultConfig returns a Config suitable for a local single-user server.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":8080",
		LogLevel:          "info",
		Timezone:          "Europe/Rome",
		MaxTextBytes:      extract.DefaultMaxTextBytes,
		MaxUploadBytes:    32 << 20,
		MockFallback:      true,
		TemplateVariables: append([]string(nil), export.KnownVariables...),
		CORSOrigins:       []string{"*"},
	}
}

// Normalize fills zero values with their defaults so partial config files
// behave like full ones.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.MaxTextBytes <= 0 {
		c.MaxTextBytes = def.MaxTextBytes
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if len(c.TemplateVariables) == 0 {
		c.TemplateVariables = def.TemplateVariables
	}
	if c.CORSOrigins == nil {
		c.CORSOrigins = def.CORSOrigins
	}
}

var validate = validator.New()

// Validate checks field constraints and that Timezone names a known zone.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone, falling back to time.Local
// when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadConfig reads a YAML or JSON config file, chosen by extension, on top
// of DefaultConfig, then normalizes and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unknown config extension %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
