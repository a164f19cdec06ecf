// Package config provides configuration management for the menuplan CLI.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/logging"
)

// Config represents the menuplan configuration
type Config struct {
	// Version of the config file format
	Version string `yaml:"version"`

	// Bus deadlines
	Bus BusConfig `yaml:"bus"`

	// Logging settings
	Logging logging.Config `yaml:"logging"`

	// Metrics settings
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing settings
	Tracing TracingConfig `yaml:"tracing"`

	// Notification transports
	Notify NotifyConfig `yaml:"notify"`
}

// BusConfig holds the message bus deadlines in seconds. Zero disables a deadline.
type BusConfig struct {
	CommandTimeoutSeconds float64 `yaml:"command_timeout_seconds"`
	EventTimeoutSeconds   float64 `yaml:"event_timeout_seconds"`
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Namespace   string `yaml:"namespace"`
	ServiceName string `yaml:"service_name"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// NotifyConfig contains notification transport settings
type NotifyConfig struct {
	// Destination receives MenuDeleted notifications, e.g. "kafka:menus".
	// Empty disables notifications.
	Destination string `yaml:"destination"`

	// Format is the payload encoding: json, msgpack or protobuf.
	Format string `yaml:"format"`

	Kafka   KafkaConfig   `yaml:"kafka"`
	SNS     SNSConfig     `yaml:"sns"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// KafkaConfig configures the Kafka publisher
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// SNSConfig configures the SNS publisher
type SNSConfig struct {
	Region   string `yaml:"region"`
	TopicARN string `yaml:"topic_arn"`
}

// WebhookConfig configures the webhook publisher
type WebhookConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Bus: BusConfig{
			CommandTimeoutSeconds: menuplan.DefaultCommandTimeout.Seconds(),
			EventTimeoutSeconds:   menuplan.DefaultEventTimeout.Seconds(),
		},
		Logging: logging.Config{
			Mode:  "development",
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Namespace:   "menuplan",
			ServiceName: "menuplan",
		},
		Tracing: TracingConfig{
			ServiceName: "menuplan",
		},
		Notify: NotifyConfig{
			Format: "json",
			Webhook: WebhookConfig{
				TimeoutSeconds: 30,
			},
		},
	}
}

// ConfigFileName is the default config file name
const ConfigFileName = "menuplan.yaml"

// Load loads configuration from the specified directory
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from a specific file path.
// Missing keys keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to the specified directory
func (c *Config) Save(dir string) error {
	return c.SaveFile(filepath.Join(dir, ConfigFileName))
}

// SaveFile saves the configuration to a specific file path
func (c *Config) SaveFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Exists checks if a config file exists in the directory
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindConfig searches for a config file starting from dir and going up
func FindConfig(dir string) (string, *Config, error) {
	current := dir
	for {
		configPath := filepath.Join(current, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			cfg, err := LoadFile(configPath)
			if err != nil {
				return "", nil, err
			}
			return current, cfg, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", nil, os.ErrNotExist
		}
		current = parent
	}
}

// Validate validates the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c.Bus.CommandTimeoutSeconds < 0 {
		errors = append(errors, "bus.command_timeout_seconds must not be negative")
	}

	if c.Bus.EventTimeoutSeconds < 0 {
		errors = append(errors, "bus.event_timeout_seconds must not be negative")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errors = append(errors, "logging.level must be debug, info, warn or error")
	}

	switch c.Notify.Format {
	case "", "json", "msgpack", "protobuf":
	default:
		errors = append(errors, "notify.format must be 'json', 'msgpack' or 'protobuf'")
	}

	if c.Notify.Destination != "" {
		switch menuplan.DestinationPrefix(c.Notify.Destination) {
		case "kafka":
			if len(c.Notify.Kafka.Brokers) == 0 {
				errors = append(errors, "notify.kafka.brokers is required for kafka destinations")
			}
		case "sns":
			if c.Notify.SNS.Region == "" {
				errors = append(errors, "notify.sns.region is required for sns destinations")
			}
		case "webhook":
			if c.Notify.Webhook.URL == "" && !strings.Contains(c.Notify.Destination, "://") {
				errors = append(errors, "notify.webhook.url is required for webhook destinations without a URL")
			}
		default:
			errors = append(errors, "notify.destination must start with 'kafka:', 'sns:' or 'webhook:'")
		}
	}

	return errors
}

// BusOptions converts the bus section to bus options.
func (c *Config) BusOptions() []menuplan.BusOption {
	return []menuplan.BusOption{
		menuplan.WithCommandTimeout(seconds(c.Bus.CommandTimeoutSeconds)),
		menuplan.WithEventTimeout(seconds(c.Bus.EventTimeoutSeconds)),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// GenerateYAML generates YAML content with comments
func GenerateYAML(cfg *Config) string {
	return `# menuplan configuration file

version: "1"

# Message bus deadlines in seconds (0 disables)
bus:
  command_timeout_seconds: ` + formatFloat(cfg.Bus.CommandTimeoutSeconds) + `
  event_timeout_seconds: ` + formatFloat(cfg.Bus.EventTimeoutSeconds) + `

# Logging: mode is development or production
logging:
  mode: "` + cfg.Logging.Mode + `"
  level: "` + cfg.Logging.Level + `"

metrics:
  enabled: ` + formatBool(cfg.Metrics.Enabled) + `
  namespace: "` + cfg.Metrics.Namespace + `"
  service_name: "` + cfg.Metrics.ServiceName + `"

tracing:
  enabled: ` + formatBool(cfg.Tracing.Enabled) + `
  service_name: "` + cfg.Tracing.ServiceName + `"

# Notifications: destination is kafka:<topic>, sns:<topic-arn> or webhook:<url>
notify:
  destination: "` + cfg.Notify.Destination + `"
  format: "` + cfg.Notify.Format + `"
  kafka:
    brokers: [` + formatList(cfg.Notify.Kafka.Brokers) + `]
  sns:
    region: "` + cfg.Notify.SNS.Region + `"
    topic_arn: "` + cfg.Notify.SNS.TopicARN + `"
  webhook:
    url: "` + cfg.Notify.Webhook.URL + `"
    timeout_seconds: ` + formatInt(cfg.Notify.Webhook.TimeoutSeconds) + `
`
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
func formatBool(b bool) string     { return strconv.FormatBool(b) }
func formatInt(i int) string       { return strconv.Itoa(i) }

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return strings.Join(quoted, ", ")
}
