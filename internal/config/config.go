package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded once at startup.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	MySQL      MySQLConfig      `mapstructure:"mysql"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	SSLCommerz SSLCommerzConfig `mapstructure:"sslcommerz"`
	Business   BusinessConfig   `mapstructure:"business"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug | release
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	PaymentEvents string `mapstructure:"payment_events"`
}

type JWTConfig struct {
	AccessSecret    string `mapstructure:"access_secret"`
	RefreshSecret   string `mapstructure:"refresh_secret"`
	AccessTTLMins   int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours int    `mapstructure:"refresh_ttl_hours"`
}

// SSLCommerzConfig carries the merchant credentials plus the two base URLs the
// handshake needs: BaseURL is this API as reachable by the gateway (callback
// URLs are built from it; when empty the handler falls back to the inbound
// request's host), FrontendURL is the SPA the browser is redirected to.
type SSLCommerzConfig struct {
	StoreID        string `mapstructure:"store_id"`
	StorePassword  string `mapstructure:"store_password"`
	Sandbox        bool   `mapstructure:"sandbox"`
	BaseURL        string `mapstructure:"base_url"`
	FrontendURL    string `mapstructure:"frontend_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type BusinessConfig struct {
	// AllowOverpayment is an explicit policy decision: when true a payment may
	// push due_amount negative (prepayment/credit); when false such amounts
	// are rejected before any persistence.
	AllowOverpayment      bool `mapstructure:"allow_overpayment"`
	ReconcileIntervalMins int  `mapstructure:"reconcile_interval_minutes"`
	RepairBalanceDrift    bool `mapstructure:"repair_balance_drift"`
	PendingAlertAfterMins int  `mapstructure:"pending_alert_after_minutes"`
	MaxOutboxRetryCount   int  `mapstructure:"max_outbox_retry_count"`
}

var GlobalConfig *Config

// LoadConfig reads and parses the yaml config file.
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	GlobalConfig = config
	return config
}
