package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func envReplacer() *strings.Replacer { return strings.NewReplacer(".", "_") }

type AppCfg struct {
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

func (a AppCfg) PortString() string { return fmt.Sprintf(":%d", a.Port) }

type MongoCfg struct {
	URI string `mapstructure:"uri"`
	DB  string `mapstructure:"db"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTCfg struct {
	Secret        string `mapstructure:"secret"`
	AccessTTLMins int    `mapstructure:"access_ttl_minutes"`
}

type OAuthProviderCfg struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type OAuthCfg struct {
	GitHub OAuthProviderCfg `mapstructure:"github"`
	Google OAuthProviderCfg `mapstructure:"google"`
}

type S3Cfg struct {
	Region     string `mapstructure:"region"`
	Bucket     string `mapstructure:"bucket"`
	PublicRead bool   `mapstructure:"public_read"`
	PresignTTL int    `mapstructure:"presign_ttl_minutes"`
}

type ConsulCfg struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Service string `mapstructure:"service"`
}

type Config struct {
	App    AppCfg    `mapstructure:"app"`
	Mongo  MongoCfg  `mapstructure:"mongo"`
	Redis  RedisCfg  `mapstructure:"redis"`
	Kafka  KafkaCfg  `mapstructure:"kafka"`
	JWT    JWTCfg    `mapstructure:"jwt"`
	OAuth  OAuthCfg  `mapstructure:"oauth"`
	S3     S3Cfg     `mapstructure:"s3"`
	Consul ConsulCfg `mapstructure:"consul"`
	// Derived
	AccessTTL  time.Duration
	PresignTTL time.Duration
}

// Load reads the config file at path (optional) with APP_-prefixed env
// overrides, e.g. APP_REDIS_ADDR.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envReplacer())

	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.db", "converse")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "converse")
	v.SetDefault("kafka.topic", "converse.events")
	v.SetDefault("jwt.access_ttl_minutes", 60*24*7)
	v.SetDefault("s3.presign_ttl_minutes", 15)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWT.Secret == "" && cfg.App.Env != "development" {
		return nil, fmt.Errorf("jwt.secret is required outside development")
	}

	cfg.AccessTTL = time.Duration(cfg.JWT.AccessTTLMins) * time.Minute
	cfg.PresignTTL = time.Duration(cfg.S3.PresignTTL) * time.Minute
	return &cfg, nil
}

func (c *Config) Development() bool { return c.App.Env == "development" }
