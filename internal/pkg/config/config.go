// Package config loads the shared configuration for all storefront services.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole deployment description. Each service reads only its own
// section plus Infra; unused sections cost nothing.
type Config struct {
	Infra     Infra     `yaml:"infra"`
	Inventory Inventory `yaml:"inventory"`
	Order     Order     `yaml:"order"`
	Shipping  Shipping  `yaml:"shipping"`
}

type Infra struct {
	Jaeger Jaeger `yaml:"jaeger"`
	Kafka  Kafka  `yaml:"kafka"`
	MySQL  MySQL  `yaml:"mysql"`
	Redis  Redis  `yaml:"redis"`
}

type Jaeger struct {
	Endpoint string `yaml:"endpoint"`
}

type Kafka struct {
	Brokers    []string `yaml:"brokers"`
	OrderTopic string   `yaml:"order_topic"`
	GroupID    string   `yaml:"group_id"`
}

type MySQL struct {
	DSN string `yaml:"dsn"`
}

type Redis struct {
	Addr string `yaml:"addr"`
}

type Inventory struct {
	Port  int    `yaml:"port"`
	Store string `yaml:"store"` // memory | mysql | redis
}

type Order struct {
	Port          int           `yaml:"port"`
	Store         string        `yaml:"store"` // memory | mysql
	InventoryURL  string        `yaml:"inventory_url"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
}

type Shipping struct {
	Port  int    `yaml:"port"`
	Store string `yaml:"store"` // memory | mysql
}

// Load reads CONFIG_PATH (if set) and then applies environment overrides.
// The zero-file default is a fully local, memory-backed deployment.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Infra: Infra{
			Jaeger: Jaeger{Endpoint: "http://localhost:14268/api/traces"},
			Kafka: Kafka{
				Brokers:    []string{"localhost:9092"},
				OrderTopic: "order-events",
				GroupID:    "shipping-service",
			},
			MySQL: MySQL{DSN: "root:root@tcp(localhost:3306)/storefront?parseTime=true"},
			Redis: Redis{Addr: "localhost:6379"},
		},
		Inventory: Inventory{Port: 8000, Store: "memory"},
		Order: Order{
			Port:          8001,
			Store:         "memory",
			InventoryURL:  "http://localhost:8000",
			RemoteTimeout: 5 * time.Second,
		},
		Shipping: Shipping{Port: 8002, Store: "memory"},
	}
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Infra.Jaeger.Endpoint, "JAEGER_ENDPOINT")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = []string{v}
	}
	setStr(&cfg.Infra.Kafka.OrderTopic, "KAFKA_ORDER_TOPIC")
	setStr(&cfg.Infra.Kafka.GroupID, "KAFKA_GROUP_ID")
	setStr(&cfg.Infra.MySQL.DSN, "MYSQL_DSN")
	setStr(&cfg.Infra.Redis.Addr, "REDIS_ADDR")

	setStr(&cfg.Inventory.Store, "INVENTORY_STORE")
	setInt(&cfg.Inventory.Port, "INVENTORY_PORT")
	setStr(&cfg.Order.Store, "ORDER_STORE")
	setInt(&cfg.Order.Port, "ORDER_PORT")
	setStr(&cfg.Order.InventoryURL, "INVENTORY_URL")
	setDuration(&cfg.Order.RemoteTimeout, "ORDER_REMOTE_TIMEOUT")
	setStr(&cfg.Shipping.Store, "SHIPPING_STORE")
	setInt(&cfg.Shipping.Port, "SHIPPING_PORT")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
