package server

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Daunte502/RNG/internal/broker"
	"github.com/Daunte502/RNG/internal/db"
	"github.com/Daunte502/RNG/internal/domain"
)

type ServerConfig struct {
	Mongo           *db.MongoConfig
	Kafka           *broker.KafkaConfig
	ChannelCapacity int

	DataStore    domain.UpdateStore
	MessageQueue broker.MessageQueue

	WorkerCount int
	Port        string
	Timeout     time.Duration
	Logger      *slog.Logger
	Registry    *prometheus.Registry
}

type ConfigOption func(*ServerConfig) error

// WithMongoDB connects to MongoDB when the server is built.
func WithMongoDB(cfg db.MongoConfig) ConfigOption {
	return func(config *ServerConfig) error {
		if cfg.Server == "" {
			return fmt.Errorf("mongo server is required")
		}
		config.Mongo = &cfg
		return nil
	}
}

// WithStore uses an existing store instead of connecting to MongoDB.
func WithStore(store domain.UpdateStore) ConfigOption {
	return func(config *ServerConfig) error {
		config.DataStore = store
		return nil
	}
}

// WithKafka routes POST /api/update through a Kafka topic drained by the workers.
func WithKafka(cfg broker.KafkaConfig) ConfigOption {
	return func(config *ServerConfig) error {
		if cfg.Brokers == "" || cfg.Topic == "" {
			return fmt.Errorf("kafka brokers and topic are required")
		}
		config.Kafka = &cfg
		return nil
	}
}

func WithChannelQueue(capacity int) ConfigOption {
	return func(config *ServerConfig) error {
		if capacity < 1 {
			return fmt.Errorf("channel queue capacity must be positive, got %d", capacity)
		}
		config.ChannelCapacity = capacity
		return nil
	}
}

func WithQueue(mq broker.MessageQueue) ConfigOption {
	return func(config *ServerConfig) error {
		config.MessageQueue = mq
		return nil
	}
}

func WithWorkerCount(workerCount int) ConfigOption {
	return func(config *ServerConfig) error {
		config.WorkerCount = workerCount
		return nil
	}
}

func WithPort(port string) ConfigOption {
	return func(config *ServerConfig) error {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("invalid port %q", port)
		}
		config.Port = port
		return nil
	}
}

func WithTimeout(d time.Duration) ConfigOption {
	return func(config *ServerConfig) error {
		config.Timeout = d
		return nil
	}
}

func WithLogger(logger *slog.Logger) ConfigOption {
	return func(config *ServerConfig) error {
		if logger != nil {
			config.Logger = logger
		}
		return nil
	}
}

func WithRegistry(reg *prometheus.Registry) ConfigOption {
	return func(config *ServerConfig) error {
		config.Registry = reg
		return nil
	}
}
