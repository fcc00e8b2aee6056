package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"temperature-dashboard/period"

	"github.com/joho/godotenv"
)

const (
	DriverRedis = "redis"
	DriverMQTT  = "mqtt"
	DriverKafka = "kafka"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Key is the hash holding the collection, one field per reading.
	Key string
	// Channel carries change notifications for Key.
	Channel string
}

type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type FeedConfig struct {
	Driver string
	Redis  RedisConfig
	MQTT   MQTTConfig
	Kafka  KafkaConfig
}

// Config holds the application's configuration.
type Config struct {
	HTTPAddr           string
	Feed               FeedConfig
	Location           *time.Location
	DefaultPeriod      period.Period
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Load reads configuration from the environment, after loading an optional
// .env file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		HTTPAddr: get("HTTP_ADDR", ":8080"),
		Feed: FeedConfig{
			Driver: strings.ToLower(get("FEED_DRIVER", DriverRedis)),
			Redis: RedisConfig{
				Addr:     get("REDIS_ADDR", "localhost:6379"),
				Password: getenv("REDIS_PASSWORD"),
				Key:      get("FEED_KEY", "temperatures"),
				Channel:  get("FEED_CHANNEL", "temperatures:events"),
			},
			MQTT: MQTTConfig{
				Broker:   get("MQTT_BROKER", "tcp://localhost:1883"),
				Topic:    get("MQTT_TOPIC", "temperatures/snapshot"),
				ClientID: get("MQTT_CLIENT_ID", "temperature-dashboard"),
			},
			Kafka: KafkaConfig{
				Brokers: splitList(get("KAFKA_BROKERS", "localhost:9092")),
				Topic:   get("KAFKA_TOPIC", "temperatures.snapshot"),
				GroupID: getenv("KAFKA_GROUP_ID"),
			},
		},
		CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "*")),
	}

	switch cfg.Feed.Driver {
	case DriverRedis, DriverMQTT, DriverKafka:
	default:
		return Config{}, fmt.Errorf("unknown FEED_DRIVER %q", cfg.Feed.Driver)
	}

	db, err := strconv.Atoi(get("REDIS_DB", "0"))
	if err != nil || db < 0 {
		return Config{}, fmt.Errorf("invalid REDIS_DB %q", getenv("REDIS_DB"))
	}
	cfg.Feed.Redis.DB = db

	tz := get("DASHBOARD_TIMEZONE", "Local")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return Config{}, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", tz, err)
	}

	if cfg.DefaultPeriod, err = period.Parse(get("DEFAULT_PERIOD", "today"), "", ""); err != nil {
		return Config{}, fmt.Errorf("invalid DEFAULT_PERIOD: %w", err)
	}
	if cfg.DefaultPeriod.Kind == period.KindCustom {
		return Config{}, fmt.Errorf("invalid DEFAULT_PERIOD: custom periods need dates")
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(get("SHUTDOWN_TIMEOUT", "30s")); err != nil {
		return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
