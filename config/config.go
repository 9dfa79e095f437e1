// Package config loads the engine configuration from file, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go.pilab.hu/oauth2/client"
	"go.pilab.hu/oauth2/domain"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
	DriverMongo  = "mongo"
)

// Registry drivers.
const (
	RegistryStatic = "static"
	RegistryMongo  = "mongo"
)

// Config holds all configuration of the token engine.
type Config struct {
	TokenName string `mapstructure:"token_name"`

	CodeTimeout            time.Duration `mapstructure:"code_timeout"`
	AccessTokenTimeout     time.Duration `mapstructure:"access_token_timeout"`
	RefreshTokenTimeout    time.Duration `mapstructure:"refresh_token_timeout"`
	ClientTokenTimeout     time.Duration `mapstructure:"client_token_timeout"`
	PastClientTokenTimeout time.Duration `mapstructure:"past_client_token_timeout"`
	IsNewRefresh           bool          `mapstructure:"is_new_refresh"`

	OpenidDigestPrefix string `mapstructure:"openid_digest_prefix"`

	Storage  StorageConfig        `mapstructure:"storage"`
	Registry RegistryConfig       `mapstructure:"registry"`
	Clients  []domain.ClientModel `mapstructure:"clients"`
	Log      LogConfig            `mapstructure:"log"`
	Otel     OtelConfig           `mapstructure:"otel"`
}

type StorageConfig struct {
	Driver string      `mapstructure:"driver"`
	Redis  RedisConfig `mapstructure:"redis"`
	Bolt   BoltConfig  `mapstructure:"bolt"`
	Mongo  MongoConfig `mapstructure:"mongo"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BoltConfig struct {
	Path            string        `mapstructure:"path"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RegistryConfig struct {
	Driver string `mapstructure:"driver"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type OtelConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	d := client.DefaultDefaults()

	v.SetDefault("token_name", "satoken")
	v.SetDefault("code_timeout", d.CodeTimeout)
	v.SetDefault("access_token_timeout", d.AccessTokenTimeout)
	v.SetDefault("refresh_token_timeout", d.RefreshTokenTimeout)
	v.SetDefault("client_token_timeout", d.ClientTokenTimeout)
	v.SetDefault("past_client_token_timeout", d.PastClientTokenTimeout)
	v.SetDefault("is_new_refresh", d.IsNewRefresh)
	v.SetDefault("openid_digest_prefix", "")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.bolt.path", "./data/oauth2.db")
	v.SetDefault("storage.bolt.cleanup_interval", time.Minute)
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "oauth2")

	v.SetDefault("registry.driver", RegistryStatic)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "oauth2")
}

// Load reads configuration from cfgFile (or the default search paths when
// empty), OAUTH2_ environment variables and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("oauth2")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/oauth2/")
		v.AddConfigPath("$HOME/.oauth2")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("OAUTH2")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the driver selections and the static client list.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis, DriverBolt, DriverMongo:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Registry.Driver {
	case RegistryStatic, RegistryMongo:
	default:
		return fmt.Errorf("unknown registry driver %q", c.Registry.Driver)
	}

	if c.TokenName == "" {
		return errors.New("token_name must not be empty")
	}

	seen := make(map[string]struct{}, len(c.Clients))
	for i, m := range c.Clients {
		if m.ClientID == "" {
			return fmt.Errorf("clients[%d]: client_id is required", i)
		}
		if _, dup := seen[m.ClientID]; dup {
			return fmt.Errorf("clients[%d]: duplicate client_id %q", i, m.ClientID)
		}
		seen[m.ClientID] = struct{}{}
	}

	return nil
}

// ClientDefaults returns the lifetimes applied to clients that leave them
// unset.
func (c *Config) ClientDefaults() client.Defaults {
	return client.Defaults{
		CodeTimeout:            c.CodeTimeout,
		AccessTokenTimeout:     c.AccessTokenTimeout,
		RefreshTokenTimeout:    c.RefreshTokenTimeout,
		ClientTokenTimeout:     c.ClientTokenTimeout,
		PastClientTokenTimeout: c.PastClientTokenTimeout,
		IsNewRefresh:           c.IsNewRefresh,
	}
}
