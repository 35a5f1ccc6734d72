package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	Port        string        `env:"PORT" envDefault:"10000"`
	CORSOrigin  string        `env:"CORS_ORIGIN" envDefault:"*"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	StatsWindow int           `env:"STATS_WINDOW" envDefault:"1000"`

	// Kafka ingestion is optional; the consumer starts only when brokers are set.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"trades"`
	KafkaGroupID string `env:"KAFKA_GROUP_ID" envDefault:"forex-dashboard"`
}

func Load() (Config, error) {
	var cfg Config
	return cfg, env.Parse(&cfg)
}

func (c Config) KafkaEnabled() bool { return c.KafkaBrokers != "" }
