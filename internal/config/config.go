package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const (
	defaultConfigName = "config"
	envPrefix         = "VMV"
)

// Config holds application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DBPath string

	// Archive folder settings
	ArchivePath string
	Charset     string // encoding of the exported .vcf/.vmg files

	// Display settings
	Location *time.Location
	Language language.Tag

	Workers     int
	OpenBrowser bool
	LogLevel    slog.Level
}

// Default returns default configuration
func Default() *Config {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Use ~/.vmsg-viewer for data directory
	dataDir := filepath.Join(homeDir, ".vmsg-viewer")

	return &Config{
		Host:        "localhost",
		Port:        "8080",
		DBPath:      filepath.Join(dataDir, "archive.db"),
		ArchivePath: "./archive",
		Charset:     "utf-8",
		Location:    time.Local,
		Language:    language.Japanese,
		Workers:     runtime.NumCPU() * 2,
		OpenBrowser: true,
		LogLevel:    slog.LevelInfo,
	}
}

// Load layers config.yaml, .env and VMV_* environment variables over Default
func Load() (*Config, error) {
	def := Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName(defaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", def.Host)
	v.SetDefault("server.port", def.Port)
	v.SetDefault("db.path", def.DBPath)
	v.SetDefault("archive.path", def.ArchivePath)
	v.SetDefault("archive.charset", def.Charset)
	v.SetDefault("display.timezone", "Local")
	v.SetDefault("display.language", def.Language.String())
	v.SetDefault("index.workers", def.Workers)
	v.SetDefault("browser.open", def.OpenBrowser)
	v.SetDefault("log.level", "info")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:        strings.TrimSpace(v.GetString("server.host")),
		Port:        strings.TrimSpace(v.GetString("server.port")),
		DBPath:      v.GetString("db.path"),
		ArchivePath: v.GetString("archive.path"),
		Charset:     strings.TrimSpace(v.GetString("archive.charset")),
		Workers:     v.GetInt("index.workers"),
		OpenBrowser: v.GetBool("browser.open"),
	}

	if cfg.Port == "" {
		return nil, fmt.Errorf("server.port must not be empty")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, fmt.Errorf("db.path must not be empty")
	}
	if strings.TrimSpace(cfg.ArchivePath) == "" {
		return nil, fmt.Errorf("archive.path must not be empty")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("invalid index.workers %d", cfg.Workers)
	}

	loc, err := time.LoadLocation(v.GetString("display.timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid display.timezone: %w", err)
	}
	cfg.Location = loc

	tag, err := language.Parse(v.GetString("display.language"))
	if err != nil {
		return nil, fmt.Errorf("invalid display.language: %w", err)
	}
	cfg.Language = tag

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("invalid log.level: %w", err)
	}

	return cfg, nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}
