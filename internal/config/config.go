// Package config handles deskagent configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/deskagent/config.yaml, /etc/deskagent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "deskagent", "config.yaml"))
	}

	paths = append(paths, "/etc/deskagent/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all deskagent configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Payment  PaymentConfig  `yaml:"payment"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	ChatOps  ChatOpsConfig  `yaml:"chatops"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	FAQ      FAQConfig      `yaml:"faq"`
	Agent    AgentConfig    `yaml:"agent"`
	LogLevel string         `yaml:"log_level"`
}

// DatabaseConfig defines the SQLite store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OllamaConfig defines the reasoning engine endpoint.
type OllamaConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
	// TimeoutSec bounds a single completion call. This is the only
	// bound on a hung reasoning request.
	TimeoutSec int `yaml:"timeout_sec"`
}

// Timeout returns the completion timeout as a duration.
func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// PaymentConfig defines the payment processor connection and the
// automated refund guardrails.
type PaymentConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	// RefundLimits maps an upper-case currency code to the maximum
	// amount (in major units) the agent may refund without human
	// review. The numbers are not interchangeable across currencies;
	// no conversion is attempted.
	RefundLimits map[string]float64 `yaml:"refund_limits"`
}

// SMTPConfig defines outbound mail delivery.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	StartTLS bool   `yaml:"starttls"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// ChatOpsConfig defines the support-team webhook channel.
type ChatOpsConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// MQTTConfig defines the ops-bus broker for event publishing.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

// FAQConfig defines the semantic document search service.
type FAQConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
	Results    int    `yaml:"results"`
}

// AgentConfig tunes the control loop.
type AgentConfig struct {
	// MaxIterations caps reasoning cycles per turn.
	MaxIterations int `yaml:"max_iterations"`
	// ContextExchanges is how many recent exchanges feed the prompt.
	ContextExchanges int `yaml:"context_exchanges"`
	// RecallMessages is how many stored messages the fast path scans
	// when back-filling parameters.
	RecallMessages int `yaml:"recall_messages"`
	// FastPath toggles the deterministic intent shortcuts.
	FastPath *bool `yaml:"fastpath"`
}

// FastPathEnabled reports whether the fast path is on (default true).
func (c AgentConfig) FastPathEnabled() bool {
	return c.FastPath == nil || *c.FastPath
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with all defaults applied and no file read.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "deskagent.db"
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.1"
	}
	if c.Ollama.TimeoutSec <= 0 {
		c.Ollama.TimeoutSec = 120
	}
	if c.Payment.BaseURL == "" {
		c.Payment.BaseURL = "https://api.stripe.com/v1"
	}
	if c.Payment.RefundLimits == nil {
		c.Payment.RefundLimits = map[string]float64{
			"USD": 120,
			"INR": 10000,
		}
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
		c.SMTP.StartTLS = true
	}
	if c.ChatOps.Channel == "" {
		c.ChatOps.Channel = "#support-alerts"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "deskagent"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "deskagent"
	}
	if c.FAQ.Collection == "" {
		c.FAQ.Collection = "faq_collection"
	}
	if c.FAQ.Results <= 0 {
		c.FAQ.Results = 5
	}
	if c.Agent.MaxIterations <= 0 {
		c.Agent.MaxIterations = 5
	}
	if c.Agent.ContextExchanges <= 0 {
		c.Agent.ContextExchanges = 3
	}
	if c.Agent.RecallMessages <= 0 {
		c.Agent.RecallMessages = 5
	}
}
