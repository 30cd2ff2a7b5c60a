package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

// Config is the full service configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	LLM         LLMConfig         `yaml:"llm"`
	Sources     SourcesConfig     `yaml:"sources"`
	DB          DBConfig          `yaml:"db"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Alert       AlertConfig       `yaml:"alert"`
	Monitor     MonitorConfig     `yaml:"monitor"`
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// AuthConfig holds the JWT signing key.
type AuthConfig struct {
	JWTKey string `yaml:"jwt_key"`
}

// LLMConfig configures the OpenAI-compatible endpoint. Models are tried in
// order until one answers.
type LLMConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Models  []string `yaml:"models"`
}

// SourcesConfig configures the mention fetchers.
type SourcesConfig struct {
	NewsAPIKeys   []string `yaml:"newsapi_keys"`
	EnableRSS     bool     `yaml:"enable_rss"`
	EnableGNews   bool     `yaml:"enable_gnews"`
	EnableSocial  bool     `yaml:"enable_social"`
	CacheTTLMins  int      `yaml:"cache_ttl_minutes"`
	FetchTimeout  int      `yaml:"fetch_timeout_seconds"`
}

// DBConfig holds PostgreSQL connection parameters.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig bounds LLM traffic.
type ConcurrencyConfig struct {
	QPS     int `yaml:"qps"`
	RPM     int `yaml:"rpm"`
	Workers int `yaml:"workers"`
}

// AlertConfig configures the negative-sentiment alert channels.
type AlertConfig struct {
	NegativeThreshold float64          `yaml:"negative_threshold"`
	Slack             SlackConfig      `yaml:"slack"`
	Email             EmailConfig      `yaml:"email"`
	ServiceNow        ServiceNowConfig `yaml:"servicenow"`
}

// SlackConfig holds Slack API credentials.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// EmailConfig holds SMTP settings for alert and report mail.
type EmailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	To   string `yaml:"to"`
}

// ServiceNowConfig holds the incident table API credentials.
type ServiceNowConfig struct {
	Instance string `yaml:"instance"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// MonitorConfig drives optional scheduled runs of a default brief.
type MonitorConfig struct {
	Schedule string      `yaml:"schedule"` // cron expression, empty disables
	Brief    model.Brief `yaml:"brief"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if len(cfg.LLM.Models) == 0 {
		return nil, fmt.Errorf("config: llm.models must list at least one model")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Auth.JWTKey == "" {
		c.Auth.JWTKey = "flash-narrative-dev"
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 2
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.Workers <= 0 {
		c.Concurrency.Workers = 8
	}
	if c.Sources.CacheTTLMins <= 0 {
		c.Sources.CacheTTLMins = 15
	}
	if c.Sources.FetchTimeout <= 0 {
		c.Sources.FetchTimeout = 10
	}
	if c.Alert.NegativeThreshold <= 0 {
		c.Alert.NegativeThreshold = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
