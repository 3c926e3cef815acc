package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Logger struct {
	Level string `yaml:"level"`
	Sink  string `yaml:"sink"`
}

type Telegram struct {
	Token       string `yaml:"token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Channel     string `yaml:"channel"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Business struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Address string `yaml:"address"`
	Hours   string `yaml:"hours"`
}

type Sessions struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	TTLMinutes    int    `yaml:"ttl_minutes"`
}

type Web struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	SecretKey string `yaml:"secret_key"`
}

type AppConfig struct {
	Logger   Logger   `yaml:"log"`
	Telegram Telegram `yaml:"telegram"`
	Database Database `yaml:"database"`
	Business Business `yaml:"business"`
	Sessions Sessions `yaml:"sessions"`
	Web      Web      `yaml:"web"`
}

// NewConfig reads the YAML config file and applies environment overrides.
// Secrets are expected to come from the environment; only business display
// fields carry defaults.
func NewConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var appConfig AppConfig
	if err := yaml.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfig.applyEnv()
	appConfig.applyDefaults()

	if appConfig.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is required (BOT_TOKEN)")
	}
	if appConfig.Telegram.AdminChatID == 0 {
		return nil, fmt.Errorf("admin chat id is required (ADMIN_CHAT_ID)")
	}

	return &appConfig, nil
}

func (c *AppConfig) applyEnv() {
	overrideString(&c.Telegram.Token, "BOT_TOKEN")
	overrideInt64(&c.Telegram.AdminChatID, "ADMIN_CHAT_ID")
	overrideString(&c.Telegram.Channel, "CHANNEL_USERNAME")
	overrideString(&c.Database.Path, "DATABASE_PATH")
	overrideString(&c.Business.Name, "BUSINESS_NAME")
	overrideString(&c.Business.Email, "BUSINESS_EMAIL")
	overrideString(&c.Business.Phone, "BUSINESS_PHONE")
	overrideString(&c.Business.Address, "BUSINESS_ADDRESS")
	overrideString(&c.Business.Hours, "BUSINESS_HOURS")
	overrideString(&c.Sessions.RedisAddr, "REDIS_ADDR")
	overrideString(&c.Sessions.RedisPassword, "REDIS_PASSWORD")
	overrideInt(&c.Sessions.TTLMinutes, "SESSION_TTL_MINUTES")
	overrideString(&c.Web.Password, "ADMIN_PASSWORD")
	overrideString(&c.Web.SecretKey, "SECRET_KEY")

	if port := os.Getenv("PORT"); port != "" {
		c.Web.Addr = ":" + port
	}
}

func (c *AppConfig) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Sink == "" {
		c.Logger.Sink = "stdout"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/kalprint.db"
	}
	if c.Business.Name == "" {
		c.Business.Name = "KalNetworks Printing"
	}
	if c.Business.Email == "" {
		c.Business.Email = "contact@printingbusiness.com"
	}
	if c.Business.Phone == "" {
		c.Business.Phone = "+1234567890"
	}
	if c.Business.Address == "" {
		c.Business.Address = "Business Address"
	}
	if c.Business.Hours == "" {
		c.Business.Hours = "Monday-Friday, 8:00 AM - 6:00 PM"
	}
	if c.Sessions.TTLMinutes <= 0 {
		c.Sessions.TTLMinutes = 60
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
