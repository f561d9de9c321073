package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orian/docpad/models"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the complete docpad configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Export ExportConfig `mapstructure:"export" yaml:"export"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the HTTP server. An empty StaticDir serves the API
// only.
type ServerConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	StaticDir      string `mapstructure:"static_dir" yaml:"static_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// StoreConfig selects the annotation store backend and image persistence.
type StoreConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"` // "memory" or "duckdb"
	ImageDir      string `mapstructure:"image_dir" yaml:"image_dir"`
	PersistImages bool   `mapstructure:"persist_images" yaml:"persist_images"`
}

// ExportConfig lists enabled formats and the shared layout settings.
type ExportConfig struct {
	Formats  []string              `mapstructure:"formats" yaml:"formats"`
	Settings models.ExportSettings `mapstructure:"settings" yaml:"settings"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			StaticDir:      "",
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Store: StoreConfig{
			Backend:       "memory",
			ImageDir:      filepath.Join(os.TempDir(), "docpad-images"),
			PersistImages: false,
		},
		Export: ExportConfig{
			Formats:  []string{"pdf", "markdown", "html"},
			Settings: models.DefaultExportSettings(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from defaults, the optional file at path and
// DOCPAD_* environment variables, in increasing priority.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("DOCPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides are picked up
// even when no config file mentions them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.static_dir", cfg.Server.StaticDir)
	v.SetDefault("server.max_upload_bytes", cfg.Server.MaxUploadBytes)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.image_dir", cfg.Store.ImageDir)
	v.SetDefault("store.persist_images", cfg.Store.PersistImages)
	v.SetDefault("export.formats", cfg.Export.Formats)
	v.SetDefault("log.level", cfg.Log.Level)

	s := cfg.Export.Settings
	v.SetDefault("export.settings.page_size", s.PageSize)
	v.SetDefault("export.settings.left_margin", s.LeftMargin)
	v.SetDefault("export.settings.right_margin", s.RightMargin)
	v.SetDefault("export.settings.top_margin", s.TopMargin)
	v.SetDefault("export.settings.bottom_margin", s.BottomMargin)
	v.SetDefault("export.settings.code_wrap_width", s.CodeWrapWidth)
	v.SetDefault("export.settings.code_language", s.CodeLanguage)
	v.SetDefault("export.settings.code_font_size", s.CodeFontSize)
	v.SetDefault("export.settings.code_leading", s.CodeLeading)
	v.SetDefault("export.settings.code_indent", s.CodeIndent)
	v.SetDefault("export.settings.image_width", s.ImageWidth)
	v.SetDefault("export.settings.image_height", s.ImageHeight)
	v.SetDefault("export.settings.spacer_height", s.SpacerHeight)
	v.SetDefault("export.settings.compress", s.Compress)
	v.SetDefault("export.settings.file_name", s.FileName)
	v.SetDefault("export.settings.title", s.Title)
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	switch c.Store.Backend {
	case "memory", "duckdb":
	default:
		return fmt.Errorf("unknown store backend %q (want memory or duckdb)", c.Store.Backend)
	}
	if c.Store.PersistImages && c.Store.ImageDir == "" {
		return fmt.Errorf("store.persist_images requires store.image_dir")
	}
	for _, f := range c.Export.Formats {
		if _, err := models.ParseExportFormat(f); err != nil {
			return fmt.Errorf("export.formats: %w", err)
		}
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ExportConfigs returns one entry per known format, enabled when listed in
// Export.Formats.
func (c *Config) ExportConfigs() []models.ExportConfig {
	enabled := make(map[models.ExportFormat]bool)
	for _, f := range c.Export.Formats {
		if format, err := models.ParseExportFormat(f); err == nil {
			enabled[format] = true
		}
	}
	configs := models.GetDefaultExportConfigs()
	for i := range configs {
		configs[i].Enabled = enabled[configs[i].Format]
	}
	return configs
}

// WriteDefaultConfig writes the default configuration as YAML to path.
func WriteDefaultConfig(path string) error {
	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	header := []byte("# docpad configuration\n# Every key can be overridden with DOCPAD_<SECTION>_<KEY>, e.g. DOCPAD_SERVER_ADDR.\n")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append(header, out...), 0644)
}
