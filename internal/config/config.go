package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Discord DiscordConfig
	Catalog CatalogConfig
	Advisor AdvisorConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalogConfig()
	if err != nil {
		return nil, err
	}

	advisor, err := loadAdvisorConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Discord: loadDiscordConfig(), Catalog: catalog, Advisor: advisor}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DiscordConfig 描述 Discord 机器人配置。
type DiscordConfig struct {
	Token         string
	CommandPrefix string
}

// Enabled 表示是否提供了机器人令牌。
func (c DiscordConfig) Enabled() bool {
	return c.Token != ""
}

func loadDiscordConfig() DiscordConfig {
	return DiscordConfig{
		Token:         strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		CommandPrefix: getEnvOrDefault("DISCORD_COMMAND_PREFIX", "!"),
	}
}

// CatalogConfig 描述商品目录数据源。URL 为空时使用内置示例目录。
type CatalogConfig struct {
	DatabaseURL  string
	Table        string
	QueryTimeout time.Duration
	MaxConns     int32
}

// UsePostgres 表示是否配置了数据库连接。
func (c CatalogConfig) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func loadCatalogConfig() (CatalogConfig, error) {
	timeout, err := parseDurationEnv("CATALOG_QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return CatalogConfig{}, err
	}

	maxConns := int32(4)
	if override, err := parseOptionalIntEnv("CATALOG_MAX_CONNS"); err != nil {
		return CatalogConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return CatalogConfig{}, fmt.Errorf("invalid CATALOG_MAX_CONNS value %d: must be positive", *override)
		}
		maxConns = int32(*override)
	}

	return CatalogConfig{
		DatabaseURL:  strings.TrimSpace(os.Getenv("CATALOG_DATABASE_URL")),
		Table:        getEnvOrDefault("CATALOG_TABLE", "sneakers"),
		QueryTimeout: timeout,
		MaxConns:     maxConns,
	}, nil
}

// AdvisorConfig 描述问卷与推荐规则的可调参数。
type AdvisorConfig struct {
	LowBudgetLimit float64
	MidBudgetLimit float64
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
}

func loadAdvisorConfig() (AdvisorConfig, error) {
	low, err := parseFloatEnv("BUDGET_LOW_LIMIT", 120)
	if err != nil {
		return AdvisorConfig{}, err
	}

	mid, err := parseFloatEnv("BUDGET_MID_LIMIT", 180)
	if err != nil {
		return AdvisorConfig{}, err
	}
	if low <= 0 || mid < low {
		return AdvisorConfig{}, fmt.Errorf("invalid budget limits low=%v mid=%v: need 0 < low <= mid", low, mid)
	}

	idle, err := parseDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return AdvisorConfig{}, err
	}

	sweep, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return AdvisorConfig{}, err
	}

	return AdvisorConfig{
		LowBudgetLimit: low,
		MidBudgetLimit: mid,
		IdleTimeout:    idle,
		SweepInterval:  sweep,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
