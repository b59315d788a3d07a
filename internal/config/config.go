package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreMongo  = "mongo"
)

// Config holds every runtime setting of the auction server
type Config struct {
	Port    int
	WSPort  int
	GinMode string

	JWTSecret string
	TokenTTL  time.Duration

	StoreDriver string
	BoltPath    string
	MongoURI    string
	MongoDB     string

	RedisURL              string
	NotifyWorkers         int
	NotifyScheduleTimeout time.Duration

	GCSBucket     string
	GCSAccessID   string
	GCSPrivateKey string
	URLTTL        time.Duration

	LogLevel string
}

var defaults = map[string]any{
	"port":                    8080,
	"ws_port":                 8081,
	"gin_mode":                "release",
	"token_ttl":               "24h",
	"store_driver":            StoreMemory,
	"bolt_path":               "auction.db",
	"mongo_uri":               "mongodb://localhost:27017",
	"mongo_db":                "auction",
	"notify_workers":          16,
	"notify_schedule_timeout": "100ms",
	"url_ttl":                 "15m",
	"log_level":               "info",
}

var envKeys = []string{
	"port", "ws_port", "gin_mode", "jwt_secret", "token_ttl",
	"store_driver", "bolt_path", "mongo_uri", "mongo_db",
	"redis_url", "notify_workers", "notify_schedule_timeout",
	"gcs_bucket", "gcs_access_id", "gcs_private_key", "url_ttl",
	"log_level",
}

// Load reads .env if present, then the environment, then command line flags in args
func Load(args []string) (*Config, error) {
	// a missing .env is fine, the environment may be injected directly
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range envKeys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	flags := pflag.NewFlagSet("auction", pflag.ContinueOnError)
	flags.Int("port", 8080, "HTTP API port")
	flags.Int("ws-port", 8081, "standalone live channel port")
	flags.String("store", StoreMemory, "listing store driver (memory, bolt, mongo)")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	for key, name := range map[string]string{"port": "port", "ws_port": "ws-port", "store_driver": "store"} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}

	cfg := &Config{
		Port:                  v.GetInt("port"),
		WSPort:                v.GetInt("ws_port"),
		GinMode:               v.GetString("gin_mode"),
		JWTSecret:             v.GetString("jwt_secret"),
		TokenTTL:              v.GetDuration("token_ttl"),
		StoreDriver:           strings.ToLower(v.GetString("store_driver")),
		BoltPath:              v.GetString("bolt_path"),
		MongoURI:              v.GetString("mongo_uri"),
		MongoDB:               v.GetString("mongo_db"),
		RedisURL:              v.GetString("redis_url"),
		NotifyWorkers:         v.GetInt("notify_workers"),
		NotifyScheduleTimeout: v.GetDuration("notify_schedule_timeout"),
		GCSBucket:             v.GetString("gcs_bucket"),
		GCSAccessID:           v.GetString("gcs_access_id"),
		GCSPrivateKey:         strings.ReplaceAll(v.GetString("gcs_private_key"), `\n`, "\n"),
		URLTTL:                v.GetDuration("url_ttl"),
		LogLevel:              v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreMemory, StoreBolt, StoreMongo:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Port <= 0 || c.WSPort <= 0 {
		return fmt.Errorf("config: ports must be positive")
	}
	if c.NotifyWorkers <= 0 {
		return fmt.Errorf("config: NOTIFY_WORKERS must be positive")
	}
	return nil
}

// MediaEnabled reports whether object URL signing is configured
func (c *Config) MediaEnabled() bool {
	return c.GCSBucket != "" && c.GCSAccessID != "" && c.GCSPrivateKey != ""
}

// Addr returns the HTTP API listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// WSAddr returns the standalone live channel listen address
func (c *Config) WSAddr() string {
	return fmt.Sprintf(":%d", c.WSPort)
}
