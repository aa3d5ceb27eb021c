package config

import (
	"testing"

	"github.com/labstack/gommon/log"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_DRIVER", "DB_DSN", "IMPORT_MAX_BYTES", "LEDGER_STRICT_COLUMNS", "LOG_LEVEL", "CORS_ORIGINS", "AUTH_HMAC_SECRET"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" || c.ImportMaxBytes != 10<<20 || c.LedgerStrictColumns {
		t.Fatalf("defaults = %+v", c)
	}
	if len(c.CORSOrigins) != 1 || c.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("cors = %v", c.CORSOrigins)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("IMPORT_MAX_BYTES", "2048")
	t.Setenv("LEDGER_STRICT_COLUMNS", "yes")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("LOG_LEVEL", "WARN")
	c := FromEnv()
	if c.DBDriver != "postgres" || c.ImportMaxBytes != 2048 || !c.LedgerStrictColumns || c.LogLevel != "warn" {
		t.Fatalf("overrides = %+v", c)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors = %q", c.CORSOrigins)
	}
	if c.Logger("test").Level() != log.WARN {
		t.Fatal("logger level not applied")
	}
}

func TestValidate(t *testing.T) {
	base := FromEnv()
	cases := map[string]func(*Config){
		"driver":    func(c *Config) { c.DBDriver = "mysql" },
		"secret":    func(c *Config) { c.AuthHMACSecret = "short" },
		"max bytes": func(c *Config) { c.ImportMaxBytes = 0 },
		"log level": func(c *Config) { c.LogLevel = "loud" },
		"blob path": func(c *Config) { c.BlobBasePath = "" },
		"http addr": func(c *Config) { c.HTTPAddr = "" },
	}
	for name, mut := range cases {
		c := base
		mut(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}
