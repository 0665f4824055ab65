package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server  Settings      `hcl:"server,block"`
	Tables  []TableConfig `hcl:"table,block"`
	Bots    []BotConfig   `hcl:"bot,block"`
	History HistoryConfig `hcl:"history,block"`
}

// Settings contains server-level configuration.
type Settings struct {
	Address            string `hcl:"address,optional"`
	Port               int    `hcl:"port,optional"`
	LogLevel           string `hcl:"log_level,optional"`
	TurnTimeoutSeconds int    `hcl:"turn_timeout_seconds,optional"`
}

// TableConfig defines a table created at boot.
type TableConfig struct {
	Name          string `hcl:"name,label"`
	SmallBlind    int    `hcl:"small_blind"`
	BigBlind      int    `hcl:"big_blind"`
	StartingStack int    `hcl:"starting_stack,optional"`
}

// BotConfig seats a machine player at a boot table.
type BotConfig struct {
	Name     string   `hcl:"name,label"`
	Strategy string   `hcl:"strategy"`
	Tables   []string `hcl:"tables,optional"`
}

// HistoryConfig selects the hand-history backend.
type HistoryConfig struct {
	Backend     string `hcl:"backend,optional"` // memory, redis, postgres
	RedisAddr   string `hcl:"redis_addr,optional"`
	PostgresDSN string `hcl:"postgres_dsn,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:            "localhost",
			Port:               8080,
			LogLevel:           "info",
			TurnTimeoutSeconds: 30,
		},
		History: HistoryConfig{Backend: "memory"},
	}
}

// LoadConfig reads an HCL configuration file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.TurnTimeoutSeconds == 0 {
		config.Server.TurnTimeoutSeconds = 30
	}
	if config.History.Backend == "" {
		config.History.Backend = "memory"
	}
	for i := range config.Tables {
		if config.Tables[i].StartingStack == 0 {
			config.Tables[i].StartingStack = config.Tables[i].BigBlind * 100
		}
	}
	for i := range config.Bots {
		if config.Bots[i].Strategy == "" {
			config.Bots[i].Strategy = "regret"
		}
		if len(config.Bots[i].Tables) == 0 {
			for _, table := range config.Tables {
				config.Bots[i].Tables = append(config.Bots[i].Tables, table.Name)
			}
		}
	}
	return &config, nil
}

// Validate checks the configuration for values the service would reject.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.TurnTimeoutSeconds < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}

	for _, table := range c.Tables {
		if table.SmallBlind < minSmallBlind {
			return fmt.Errorf("table %s: small blind must be at least %d", table.Name, minSmallBlind)
		}
		if table.BigBlind <= table.SmallBlind {
			return fmt.Errorf("table %s: big blind must be greater than small blind", table.Name)
		}
		if table.StartingStack < minStartingStack {
			return fmt.Errorf("table %s: starting stack must be at least %d", table.Name, minStartingStack)
		}
	}

	validStrategies := map[string]bool{
		"call":   true,
		"fold":   true,
		"random": true,
		"regret": true,
	}
	for _, b := range c.Bots {
		if !validStrategies[b.Strategy] {
			return fmt.Errorf("bot %s: invalid strategy %s", b.Name, b.Strategy)
		}
	}

	switch c.History.Backend {
	case "memory":
	case "redis":
		if c.History.RedisAddr == "" {
			return fmt.Errorf("history backend redis requires redis_addr")
		}
	case "postgres":
		if c.History.PostgresDSN == "" {
			return fmt.Errorf("history backend postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown history backend: %s", c.History.Backend)
	}
	return nil
}

// ListenAddress returns the host:port the server binds.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TurnTimeout returns the configured timeout as a duration.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.Server.TurnTimeoutSeconds) * time.Second
}
