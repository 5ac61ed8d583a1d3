package shared

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./prlint.db"
	} `yaml:"database"`

	Analysis struct {
		Sources       []string `yaml:"sources"`         // ["./src"]
		Extensions    []string `yaml:"extensions"`      // [".py"]
		RulesFile     string   `yaml:"rules_file"`      // rule config (yaml/json)
		CustomRules   string   `yaml:"custom_rules"`    // custom rule pack (yaml)
		MaxFiles      int      `yaml:"max_files"`       // 0 = unlimited
		MaxTotalLines int      `yaml:"max_total_lines"` // 0 = unlimited
	} `yaml:"analysis"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
	} `yaml:"reporting"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`

	Server struct {
		Addr           string   `yaml:"addr"`            // ":8080"
		SessionHours   int      `yaml:"session_hours"`   // 24
		AllowedOrigins []string `yaml:"allowed_origins"` // CORS allowlist
	} `yaml:"server"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./prlint.db"
	c.Analysis.Extensions = []string{".py"}
	c.Reporting.OutDir = "./reports"
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	c.Server.Addr = ":8080"
	c.Server.SessionHours = 24
	return c
}

func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("PRLINT_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PRLINT_RULES_FILE"); v != "" {
		c.Analysis.RulesFile = v
	}
	if v := os.Getenv("PRLINT_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.MaxFiles = n
		}
	}
	if v := os.Getenv("PRLINT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PRLINT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PRLINT_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("PRLINT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	return c, nil
}
