package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/LeonardoBeccarini/smartfarm/pkg/mqttbus"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string
	GRPCAddr string // empty disables the health server
	TZ       string

	RefreshDelay time.Duration
	Seed         uint64 // 0 means time-seeded

	MQTT         mqttbus.Config
	SeriesTopic  string
	RefreshTopic string

	// circuit breaker around mqtt publish
	CBFails  int
	CBOpenMs int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}

func getenvUint64(k string, d uint64) uint64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func loadConfig() Config {
	return Config{
		AppEnv:       getenv("APP_ENV", "dev"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:     getenv("GRPC_ADDR", ""),
		TZ:           getenv("TZ", "Local"),
		RefreshDelay: getenvDuration("REFRESH_DELAY", time.Second),
		Seed:         getenvUint64("SEED", 0),
		MQTT: mqttbus.Config{
			Host:     getenv("MQTT_HOST", ""),
			Port:     getenvInt("MQTT_PORT", 1883),
			User:     getenv("MQTT_USER", "guest"),
			Password: getenv("MQTT_PASSWORD", "guest"),
			ClientID: getenv("MQTT_CLIENT_ID", "smartfarm-dashboard"),
		},
		SeriesTopic:  getenv("MQTT_SERIES_TOPIC", "farm/series"),
		RefreshTopic: getenv("MQTT_REFRESH_TOPIC", "farm/refresh"),
		CBFails:      getenvInt("CB_FAILS", 3),
		CBOpenMs:     getenvInt("CB_OPEN_MS", 30000),
	}
}

// Location resolves TZ; "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.TZ == "" || c.TZ == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("load TZ %q: %w", c.TZ, err)
	}
	return loc, nil
}
