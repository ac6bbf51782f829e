package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	Port           string        `env:"PORT" envDefault:"8080"`
	CORSOrigin     string        `env:"CORS_ORIGIN" envDefault:"*"`
	JWTSecret      string        `env:"JWT_SECRET,required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
	StockAPIKey    string        `env:"STOCK_API_KEY"`
	StockAPIURL    string        `env:"STOCK_API_URL" envDefault:"https://www.alphavantage.co"`
	AdminEmail     string        `env:"ADMIN_EMAIL"`
	AdminPassword  string        `env:"ADMIN_PASSWORD"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	InitialBalance string        `env:"INITIAL_BALANCE" envDefault:"10000"`
	KafkaBrokers   []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string        `env:"KAFKA_TOPIC" envDefault:"settlements"`
}

func Load() (Config, error) {
	var cfg Config
	return cfg, env.Parse(&cfg)
}
