package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV"`
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CartCacheTTL  time.Duration `mapstructure:"CART_CACHE_TTL"`

	KafkaBrokers  string `mapstructure:"KAFKA_BROKERS"`
	CheckoutTopic string `mapstructure:"CHECKOUT_TOPIC"`
	CartGroupID   string `mapstructure:"CART_CLEANER_GROUP_ID"`

	JWTSecret       string `mapstructure:"JWT_SECRET"`
	JWTPublicKeyPEM string `mapstructure:"JWT_PUBLIC_KEY_PEM"`
	JWTIssuer       string `mapstructure:"JWT_ISSUER"`

	OTelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OTelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
	OTelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`
}

var defaults = map[string]any{
	"APP_ENV":          "development",
	"HTTP_PORT":        "8080",
	"REQUEST_TIMEOUT":  30 * time.Second,
	"SHUTDOWN_TIMEOUT": 10 * time.Second,

	"MONGO_URI":     "mongodb://localhost:27017",
	"MONGO_DB_NAME": "storefront",

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"CART_CACHE_TTL": 15 * time.Minute,

	"KAFKA_BROKERS":         "",
	"CHECKOUT_TOPIC":        "checkout-completed",
	"CART_CLEANER_GROUP_ID": "storefront-cart-cleaner",

	"JWT_SECRET":         "",
	"JWT_PUBLIC_KEY_PEM": "",
	"JWT_ISSUER":         "",

	"OTEL_ENABLED":                false,
	"OTEL_SERVICE_NAME":           "storefront",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_SAMPLE_RATIO":           1.0,
}

// Load reads defaults, then the optional file named by CONFIG_FILE, then the
// environment. Later sources win.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" && c.JWTPublicKeyPEM == "" {
		return fmt.Errorf("one of JWT_SECRET or JWT_PUBLIC_KEY_PEM is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Brokers splits KAFKA_BROKERS. An empty result means Kafka is disabled.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
