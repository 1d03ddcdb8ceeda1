package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aretw0/policydesk/pkg/adapters/process"
	"github.com/aretw0/policydesk/pkg/domain"
)

// Config holds the console configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	MCP      MCPConfig      `mapstructure:"mcp"`
	Services ServicesConfig `mapstructure:"services"`

	// Messages translates action names and editor titles. A list keeps the
	// keys' case, which viper folds in maps.
	Messages []MessageConfig `mapstructure:"messages"`

	// Builder receives the settings of every finished terminal wizard run.
	Builder process.Config `mapstructure:"builder"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// StoreConfig selects where confirmed assertions are committed.
type StoreConfig struct {
	Driver     string           `mapstructure:"driver"` // memory | file | redis
	File       FileConfig       `mapstructure:"file"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
}

// EncryptionConfig enables sealing of stored assertions. Keys are base64
// encoded 32-byte AES keys; an empty key leaves payloads in the clear.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// FileConfig holds file store settings.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// RedisConfig holds redis store settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HTTPConfig holds the HTTP adapter settings.
type HTTPConfig struct {
	Addr    string `mapstructure:"addr"`
	Metrics bool   `mapstructure:"metrics"`
}

// MCPConfig holds the MCP adapter settings.
type MCPConfig struct {
	Transport string `mapstructure:"transport"` // stdio | sse
	Port      int    `mapstructure:"port"`
}

// ServicesConfig lists the admin registries editors can offer.
type ServicesConfig struct {
	Connections []string `mapstructure:"connections"`
	Passwords   []string `mapstructure:"passwords"`
}

// MessageConfig maps an English display string to its translation.
type MessageConfig struct {
	Key  string `mapstructure:"key"`
	Text string `mapstructure:"text"`
}

// Catalog returns the messages as a lookup table.
func (c Config) Catalog() map[string]string {
	out := make(map[string]string, len(c.Messages))
	for _, m := range c.Messages {
		out[m.Key] = m.Text
	}
	return out
}

// EnvPrefix is the prefix of environment overrides, e.g. POLICYDESK_STORE_DRIVER.
const EnvPrefix = "POLICYDESK"

// Load reads configuration from path (YAML) and the environment.
// With an empty path, ./policydesk.yaml is used when present.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.file.dir", ".policydesk/assertions")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "policydesk:assertion:")
	v.SetDefault("store.redis.ttl", time.Duration(0))
	v.SetDefault("store.encryption.key", "")
	v.SetDefault("store.encryption.fallback_keys", []string{})
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.metrics", true)
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.port", 8081)
	v.SetDefault("services.connections", []string{})
	v.SetDefault("services.passwords", []string{})

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("policydesk")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "file", "redis":
	default:
		return &domain.ConfigurationError{Component: "config", Reason: fmt.Sprintf("unknown store driver '%s'", c.Store.Driver)}
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return &domain.ConfigurationError{Component: "config", Reason: fmt.Sprintf("unknown mcp transport '%s'", c.MCP.Transport)}
	}
	return nil
}
