// Package platform wires the configured query targets, the metadata store,
// and the MCP toolkit into one runnable unit.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/txn2/mcp-dal/pkg/capability"
	"github.com/txn2/mcp-dal/pkg/executor"
	"github.com/txn2/mcp-dal/pkg/toolkits/dal"
)

// Config holds the complete service configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Database DatabaseConfig          `yaml:"database"`
	Toolkit  dal.Config              `yaml:"toolkit"`
	Targets  map[string]TargetConfig `yaml:"targets"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio" or "http"
	Address   string `yaml:"address"`
}

// DatabaseConfig configures the metadata database holding target records.
// An empty DSN disables persistence; targets then live only in memory.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	Migrate      bool   `yaml:"migrate"`
}

// TargetConfig configures one query target. The connection section is decoded
// per provider when the target is built.
type TargetConfig struct {
	Provider   string              `yaml:"provider"`
	Connection yaml.Node           `yaml:"connection"`
	Guardrails executor.Guardrails `yaml:"guardrails"`
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "mcp-dal"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		errs = append(errs, fmt.Sprintf("server.transport %q is not supported (stdio, http)", c.Server.Transport))
	}
	if c.Server.Transport == "http" && c.Server.Address == "" {
		errs = append(errs, "server.address is required for the http transport")
	}

	for name, target := range c.Targets {
		if target.Provider == "" {
			errs = append(errs, fmt.Sprintf("targets.%s.provider is required", name))
			continue
		}
		if !capability.Known(target.Provider) {
			errs = append(errs, fmt.Sprintf("targets.%s.provider %q is not supported", name, target.Provider))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
