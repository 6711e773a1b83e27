package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"umrah-desk/api"
	"umrah-desk/order"
	"umrah-desk/storage"
)

const fileName = "config.json"

// Config holds everything the CLI and the HTTP surface read at startup.
type Config struct {
	API    APIConfig
	Server ServerConfig
	Desk   DeskConfig
	Log    LogConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ServerConfig struct {
	ListenAddr     string
	AllowedOrigins []string
}

type DeskConfig struct {
	DefaultTab          string
	PageSize            int
	AvailabilityWorkers int
}

type LogConfig struct {
	Level string
}

// File is the on-disk config in the desk config directory. Environment
// variables take precedence over it.
type File struct {
	APIURL     string `json:"api_url,omitempty"`
	DefaultTab string `json:"default_tab,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
}

func FilePath() (string, error) {
	dir, err := storage.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// LoadFile reads the config file; a missing file is an empty config.
func LoadFile() (File, error) {
	path, err := FilePath()
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, err
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return file, nil
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	file, err := LoadFile()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("DESK_API_URL", orDefault(file.APIURL, api.DefaultBaseURL)),
			Timeout: getEnvAsDuration("DESK_HTTP_TIMEOUT", 15*time.Second),
		},
		Server: ServerConfig{
			ListenAddr:     getEnv("DESK_LISTEN_ADDR", orDefault(file.ListenAddr, ":8080")),
			AllowedOrigins: getEnvAsSlice("DESK_ALLOWED_ORIGINS", []string{"*"}),
		},
		Desk: DeskConfig{
			DefaultTab:          getEnv("DESK_DEFAULT_TAB", file.DefaultTab),
			PageSize:            getEnvAsInt("DESK_PAGE_SIZE", orDefaultInt(file.PageSize, 10)),
			AvailabilityWorkers: getEnvAsInt("DESK_AVAILABILITY_WORKERS", 4),
		},
		Log: LogConfig{
			Level: getEnv("DESK_LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("DESK_API_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("DESK_HTTP_TIMEOUT must be positive")
	}
	if c.Desk.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Desk.PageSize)
	}
	if c.Desk.AvailabilityWorkers <= 0 {
		return fmt.Errorf("DESK_AVAILABILITY_WORKERS must be positive, got %d", c.Desk.AvailabilityWorkers)
	}
	if _, err := order.ParseTab(c.Desk.DefaultTab); err != nil {
		return fmt.Errorf("default tab: %w", err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("DESK_LOG_LEVEL: %w", err)
	}
	return nil
}

// LogLevel is the parsed level; Validate has already accepted it.
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("30s") and bare seconds ("30").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logrus.Warnf("invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
