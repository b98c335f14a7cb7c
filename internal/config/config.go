package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. ASSESSMENT_POSTGRES_URL.
const EnvPrefix = "ASSESSMENT"

type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port      string `yaml:"port"`
		RateLimit int    `yaml:"rate_limit" split_words:"true"`
	} `yaml:"server"`
	Logger struct {
		Level           string `yaml:"level"`
		OutputFile      string `yaml:"output_file" split_words:"true"`
		ErrorOutputFile string `yaml:"error_output_file" split_words:"true"`
	} `yaml:"logger"`
	Auth struct {
		Secret     string `yaml:"secret"`
		TokenTTL   string `yaml:"token_ttl" split_words:"true"`
		Issuer     string `yaml:"issuer"`
		BcryptCost int    `yaml:"bcrypt_cost" split_words:"true"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	RabbitMQ struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Minio struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key" split_words:"true"`
		SecretKey string `yaml:"secret_key" split_words:"true"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl" split_words:"true"`
	} `yaml:"minio"`
	History struct {
		TTL string `yaml:"ttl"`
	} `yaml:"history"`
}

// Load reads YAML config from path, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the app runs with development defaults.
func (c Config) IsDevelopment() bool {
	return c.App.Env == "" || c.App.Env == "development"
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
