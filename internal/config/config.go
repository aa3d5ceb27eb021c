package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

type Config struct {
	HTTPAddr string `validate:"required"`

	DBDriver string `validate:"oneof=sqlite postgres"`
	DBDSN    string

	BlobBasePath string `validate:"required"`

	AuthHMACSecret string `validate:"required,min=16"`

	CORSOrigins []string

	ImportMaxBytes      int64 `validate:"gt=0"`
	LedgerStrictColumns bool

	LogLevel string `validate:"oneof=debug info warn error off"`
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := FromEnv()
	return cfg, cfg.Validate()
}

func FromEnv() Config {
	return Config{
		HTTPAddr:            envOr("HTTP_ADDR", ":8080"),
		DBDriver:            strings.ToLower(envOr("DB_DRIVER", "sqlite")),
		DBDSN:               envOr("DB_DSN", ""),
		BlobBasePath:        envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:      envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		CORSOrigins:         csvOr("CORS_ORIGINS", "http://localhost:3000"),
		ImportMaxBytes:      envInt("IMPORT_MAX_BYTES", 10<<20),
		LedgerStrictColumns: envBool("LEDGER_STRICT_COLUMNS", false),
		LogLevel:            strings.ToLower(envOr("LOG_LEVEL", "info")),
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Logger returns a gommon logger at the configured level.
func (c Config) Logger(prefix string) *log.Logger {
	l := log.New(prefix)
	l.SetHeader("${time_rfc3339} ${level} ${prefix}")
	l.SetLevel(levels[c.LogLevel])
	return l
}

var levels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"":      log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(k), 10, 64)
	if err != nil {
		return def
	}
	return n
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
