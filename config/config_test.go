package config

import (
	"testing"
	"time"

	"temperature-dashboard/period"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Feed.Driver != DriverRedis || cfg.Feed.Redis.Addr != "localhost:6379" {
		t.Errorf("unexpected feed config: %+v", cfg.Feed)
	}
	if cfg.Feed.Redis.Key != "temperatures" || cfg.Feed.Redis.Channel != "temperatures:events" {
		t.Errorf("unexpected redis key/channel: %+v", cfg.Feed.Redis)
	}
	if cfg.DefaultPeriod.Kind != period.KindToday {
		t.Errorf("DefaultPeriod = %v", cfg.DefaultPeriod)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"FEED_DRIVER":        "KAFKA",
		"KAFKA_BROKERS":      "k1:9092, k2:9092,",
		"DASHBOARD_TIMEZONE": "UTC",
		"DEFAULT_PERIOD":     "7",
		"REDIS_DB":           "2",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Feed.Driver != DriverKafka {
		t.Errorf("Driver = %q", cfg.Feed.Driver)
	}
	if len(cfg.Feed.Kafka.Brokers) != 2 || cfg.Feed.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Feed.Kafka.Brokers)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v", cfg.Location)
	}
	if cfg.DefaultPeriod.Kind != period.KindRolling || cfg.DefaultPeriod.Days != 7 {
		t.Errorf("DefaultPeriod = %+v", cfg.DefaultPeriod)
	}
	if cfg.Feed.Redis.DB != 2 {
		t.Errorf("DB = %d", cfg.Feed.Redis.DB)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":   {"FEED_DRIVER": "firebase"},
		"timezone": {"DASHBOARD_TIMEZONE": "Mars/Olympus"},
		"redis db": {"REDIS_DB": "-1"},
		"period":   {"DEFAULT_PERIOD": "5"},
		"custom":   {"DEFAULT_PERIOD": "custom"},
		"timeout":  {"SHUTDOWN_TIMEOUT": "soon"},
	}
	for name, env := range cases {
		if _, err := FromEnv(envOf(env)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
