package grn

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Built-in endpoints and the fixed database
const (
	DefaultAPIBase = "https://cdcapi.onrender.com/api/"
	LocalAPIBase   = "http://localhost:3001/api/"
	FixedDatabase  = "KOL"
)

// Storage backends
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Transporter resolution modes used when saving a challan
const (
	ResolveRefetch = "refetch"
	ResolveCached  = "cached"
)

// Config holds the CLI configuration
type Config struct {
	APIBase         string // default base URL when no preference is stored
	Brand           string // branding shown in the TUI (default: "GRN CLI")
	StateDir        string // where file storage and logs live
	TabID           string // tab scope for session storage (default: parent pid)
	Storage         string // "file", "redis" or "memory"
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SessionTTL      time.Duration // redis only, 0 keeps keys until logout
	HTTPTimeout     time.Duration // 0 means no client timeout
	LogLevel        string
	LogFile         string
	TransporterMode string // "refetch" or "cached"
	Bell            bool
	ConfigPath      string // file the values were read from, empty if none
}

// configKeys lists every key honored in .grn-config and the environment.
var configKeys = []string{
	"GRN_API_BASE", "GRN_BRAND", "GRN_STATE_DIR", "GRN_TAB_ID", "GRN_STORAGE",
	"GRN_REDIS_ADDR", "GRN_REDIS_PASSWORD", "GRN_REDIS_DB", "GRN_SESSION_TTL",
	"GRN_HTTP_TIMEOUT", "GRN_LOG_LEVEL", "GRN_LOG_FILE",
	"GRN_TRANSPORTER_RESOLVE", "GRN_BELL",
}

// LoadConfig reads the optional .grn-config file and the environment
func LoadConfig() (*Config, error) {
	configPaths := []string{
		".grn-config",
		"../.grn-config",
		filepath.Join(filepath.Dir(os.Args[0]), ".grn-config"),
		filepath.Join(filepath.Dir(os.Args[0]), "..", ".grn-config"),
	}

	var configPath string
	for _, p := range configPaths {
		if _, err := os.Stat(p); err == nil {
			configPath = p
			break
		}
	}

	return LoadConfigFrom(configPath)
}

// LoadConfigFrom builds a Config from path (may be empty) with environment
// variables taking precedence over file values.
func LoadConfigFrom(path string) (*Config, error) {
	values := map[string]string{}
	if path != "" {
		fileValues, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
		values = fileValues
	}
	for _, key := range configKeys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	config := &Config{
		APIBase:         DefaultAPIBase,
		Brand:           "GRN CLI",
		TabID:           strconv.Itoa(os.Getppid()),
		Storage:         StorageFile,
		RedisAddr:       "localhost:6379",
		SessionTTL:      12 * time.Hour,
		LogLevel:        "info",
		TransporterMode: ResolveRefetch,
		Bell:            true,
		ConfigPath:      path,
	}

	for key, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case "GRN_API_BASE":
			config.APIBase = value
		case "GRN_BRAND":
			config.Brand = value
		case "GRN_STATE_DIR":
			config.StateDir = value
		case "GRN_TAB_ID":
			config.TabID = value
		case "GRN_STORAGE":
			config.Storage = strings.ToLower(value)
		case "GRN_REDIS_ADDR":
			config.RedisAddr = value
		case "GRN_REDIS_PASSWORD":
			config.RedisPassword = value
		case "GRN_REDIS_DB":
			db, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid GRN_REDIS_DB %q: %w", value, err)
			}
			config.RedisDB = db
		case "GRN_SESSION_TTL":
			d, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid GRN_SESSION_TTL %q: %w", value, err)
			}
			config.SessionTTL = d
		case "GRN_HTTP_TIMEOUT":
			d, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid GRN_HTTP_TIMEOUT %q: %w", value, err)
			}
			config.HTTPTimeout = d
		case "GRN_LOG_LEVEL":
			config.LogLevel = value
		case "GRN_LOG_FILE":
			config.LogFile = value
		case "GRN_TRANSPORTER_RESOLVE":
			config.TransporterMode = strings.ToLower(value)
		case "GRN_BELL":
			config.Bell = value != "off" && value != "false" && value != "0"
		}
	}

	switch config.Storage {
	case StorageFile, StorageRedis, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown GRN_STORAGE %q (want file, redis or memory)", config.Storage)
	}
	switch config.TransporterMode {
	case ResolveRefetch, ResolveCached:
	default:
		return nil, fmt.Errorf("unknown GRN_TRANSPORTER_RESOLVE %q (want refetch or cached)", config.TransporterMode)
	}

	if config.StateDir == "" {
		config.StateDir = defaultStateDir()
	}
	if config.LogFile == "" {
		config.LogFile = filepath.Join(config.StateDir, "grn-cli.log")
	}

	return config, nil
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "grn-cli")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "grn-cli")
	}
	return ".grn-state"
}
