package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type WhatsAppConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WorkerConfig bounds one dispatch pass: how many queue items are claimed,
// how long to pause between gateway sends, and how many stranded items are
// rerouted when the gateway is down.
type WorkerConfig struct {
	BatchSize       int           `mapstructure:"batch_size" validate:"gt=0"`
	FallbackLimit   int           `mapstructure:"fallback_limit" validate:"gt=0"`
	MessageInterval time.Duration `mapstructure:"message_interval" validate:"gt=0"`
	PollInterval    time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	TemplateTTL     time.Duration `mapstructure:"template_ttl"`
}

// Secrets that must never live in the config file are pulled from the
// environment and override whatever the file carries.
type secretOverrides struct {
	DBPassword     string `envconfig:"DB_PASSWORD"`
	RedisURL       string `envconfig:"REDIS_URL"`
	WhatsAppAPIKey string `envconfig:"WHATSAPP_API_KEY"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets secretOverrides
	if err := envconfig.Process("", &secrets); err != nil {
		return nil, fmt.Errorf("failed to process env overrides: %w", err)
	}
	applySecrets(&cfg, secrets)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.rate_limit_rps", 50)
	viper.SetDefault("server.rate_burst", 100)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("whatsapp.timeout", 15*time.Second)
	viper.SetDefault("worker.batch_size", 50)
	viper.SetDefault("worker.fallback_limit", 10)
	viper.SetDefault("worker.message_interval", time.Second)
	viper.SetDefault("worker.poll_interval", time.Minute)
	viper.SetDefault("worker.template_ttl", 5*time.Minute)
}

func applySecrets(cfg *Config, s secretOverrides) {
	if s.DBPassword != "" {
		cfg.Database.Password = s.DBPassword
	}
	if s.RedisURL != "" {
		cfg.Redis.URL = s.RedisURL
	}
	if s.WhatsAppAPIKey != "" {
		cfg.WhatsApp.APIKey = s.WhatsAppAPIKey
	}
	if s.SMTPPassword != "" {
		cfg.SMTP.Password = s.SMTPPassword
	}
}
