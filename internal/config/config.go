package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Daunte502/RNG/internal/broker"
	"github.com/Daunte502/RNG/internal/db"
)

type Config struct {
	DB     DBConfig     `yaml:"db"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	HTTP   HTTPConfig   `yaml:"http"`
	Worker WorkerConfig `yaml:"worker"`
	Log    LogConfig    `yaml:"log"`
}

type DBConfig struct {
	Server   string        `yaml:"server"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	TLS      bool          `yaml:"tls"`
	Timeout  time.Duration `yaml:"timeout"`
}

type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

type HTTPConfig struct {
	Port string `yaml:"port"`
}

type WorkerConfig struct {
	Count         int `yaml:"count"`
	QueueCapacity int `yaml:"queue_capacity"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Load reads path (if non-empty), applies environment overrides and defaults,
// then validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	setString("DB_SERVER", &c.DB.Server)
	setString("DB_USERNAME", &c.DB.Username)
	setString("DB_PASSWORD", &c.DB.Password)
	setString("KAFKA_BROKERS", &c.Kafka.Brokers)
	setString("KAFKA_TOPIC", &c.Kafka.Topic)
	setString("HTTP_PORT", &c.HTTP.Port)
	setString("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT: %w", err)
		}
		c.DB.Port = port
	}
	if v, ok := lookup("DB_TLS"); ok && v != "" {
		tls, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DB_TLS: %w", err)
		}
		c.DB.TLS = tls
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DB.Server == "" {
		c.DB.Server = "localhost"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 27017
	}
	if c.DB.Timeout == 0 {
		c.DB.Timeout = db.DefaultTimeout
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "620167361_pub"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "elet2415-updates"
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8080"
	}
	if c.Worker.Count == 0 {
		c.Worker.Count = 4
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		return fmt.Errorf("db.port must be in 1..65535, got %d", c.DB.Port)
	}
	if c.DB.Timeout < 0 {
		return fmt.Errorf("db.timeout must be positive, got %s", c.DB.Timeout)
	}
	if c.Worker.Count < 0 || c.Worker.QueueCapacity < 0 {
		return fmt.Errorf("worker.count and worker.queue_capacity must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (c *Config) Mongo() db.MongoConfig {
	return db.MongoConfig{
		Server:   c.DB.Server,
		Port:     c.DB.Port,
		Username: c.DB.Username,
		Password: c.DB.Password,
		TLS:      c.DB.TLS,
	}
}

// KafkaEnabled reports whether brokers were configured.
func (c *Config) KafkaEnabled() bool {
	return c.Kafka.Brokers != ""
}

func (c *Config) KafkaQueue() broker.KafkaConfig {
	return broker.KafkaConfig{
		Brokers: c.Kafka.Brokers,
		Topic:   c.Kafka.Topic,
		GroupID: c.Kafka.GroupID,
	}
}
