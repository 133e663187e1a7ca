package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Listen  string `yaml:"listen" json:"listen"`
	GinMode string `yaml:"gin_mode" json:"gin_mode"`

	// 每个客户端 IP 每分钟允许的写请求数（报名/下注），0 表示不限
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// FeedConfig 行情源配置
type FeedConfig struct {
	URL              string   `yaml:"url" json:"url"`
	Coins            []string `yaml:"coins" json:"coins"`
	ReconnectSeconds int      `yaml:"reconnect_seconds" json:"reconnect_seconds"` // 固定重连间隔（秒），默认 3
	FrameIntervalMs  int      `yaml:"frame_interval_ms" json:"frame_interval_ms"` // 动画帧间隔（毫秒），默认 16
}

// SupabaseConfig Supabase REST 配置
type SupabaseConfig struct {
	URL    string `yaml:"url" json:"url"`
	APIKey string `yaml:"api_key" json:"api_key"`
}

// WaitlistConfig 等候名单存储配置
type WaitlistConfig struct {
	Driver   string         `yaml:"driver" json:"driver"` // sqlite | postgres | supabase
	DSN      string         `yaml:"dsn" json:"dsn"`
	Table    string         `yaml:"table" json:"table"`
	Supabase SupabaseConfig `yaml:"supabase" json:"supabase"`
}

// MailerConfig SMTP 邮件配置（Host 为空则不发送）
type MailerConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

// CacheConfig 价格缓存配置
type CacheConfig struct {
	Driver        string `yaml:"driver" json:"driver"` // memory | redis
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds" json:"ttl_seconds"`
}

// WalletConfig 模拟钱包配置
type WalletConfig struct {
	DataDir         string  `yaml:"data_dir" json:"data_dir"`
	Backend         string  `yaml:"backend" json:"backend"` // json | badger
	StartingBalance string  `yaml:"starting_balance" json:"starting_balance"`
	MaxBetPct       float64 `yaml:"max_bet_pct" json:"max_bet_pct"`
}

// MetricsConfig 指标/调试端口配置（Listen 为空则关闭）
type MetricsConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

// SchedulerConfig 定时任务配置（cron 表达式）
type SchedulerConfig struct {
	WaitlistCountSpec string `yaml:"waitlist_count" json:"waitlist_count"`
	WalletFlushSpec   string `yaml:"wallet_flush" json:"wallet_flush"`
}

// Config 应用配置
type Config struct {
	Log       LogConfig       `yaml:"log" json:"log"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Feed      FeedConfig      `yaml:"feed" json:"feed"`
	Waitlist  WaitlistConfig  `yaml:"waitlist" json:"waitlist"`
	Mailer    MailerConfig    `yaml:"mailer" json:"mailer"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Wallet    WalletConfig    `yaml:"wallet" json:"wallet"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`
}

var globalConfig *Config
var configFilePath string

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	configFilePath = path
}

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	return configFilePath
}

// Get 获取全局配置（如果已加载）
func Get() *Config {
	return globalConfig
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", File: "logs/hypiq.log"},
		Server: ServerConfig{
			Listen:             ":8080",
			GinMode:            "release",
			RateLimitPerMinute: 10,
		},
		Feed: FeedConfig{
			URL:              "wss://api.hyperliquid.xyz/ws",
			Coins:            []string{"BTC", "ETH", "HYPE"},
			ReconnectSeconds: 3,
			FrameIntervalMs:  16,
		},
		Waitlist: WaitlistConfig{
			Driver: "sqlite",
			DSN:    "data/waitlist.db",
			Table:  "waitlist",
		},
		Mailer: MailerConfig{Port: 587, From: "Hypiq <hello@hypiq.xyz>"},
		Cache:  CacheConfig{Driver: "memory", RedisAddr: "127.0.0.1:6379", TTLSeconds: 60},
		Wallet: WalletConfig{
			DataDir:         "data/wallet",
			Backend:         "json",
			StartingBalance: "382.35",
			MaxBetPct:       0.05,
		},
		Scheduler: SchedulerConfig{
			WaitlistCountSpec: "@every 1m",
			WalletFlushSpec:   "@every 30s",
		},
	}
}

// Load 加载配置
func Load() (*Config, error) {
	return LoadFromFile(configFilePath)
}

// LoadFromFile 从指定文件加载配置
// 优先级：配置文件 > 环境变量 > 默认值
func LoadFromFile(filePath string) (*Config, error) {
	config := Default()
	applyEnv(config)

	if filePath != "" {
		if err := loadConfigFile(filePath, config); err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
	}

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	globalConfig = config
	configFilePath = filePath
	return config, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON），覆盖已有字段
func loadConfigFile(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}
	return nil
}

// applyEnv 环境变量覆盖默认值
func applyEnv(c *Config) {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Log.JSON = parseBoolEnv("LOG_JSON", c.Log.JSON)

	c.Server.Listen = getEnv("SERVER_LISTEN", c.Server.Listen)
	c.Server.GinMode = getEnv("GIN_MODE", c.Server.GinMode)
	c.Server.RateLimitPerMinute = parseIntEnv("SERVER_RATE_LIMIT_PER_MINUTE", c.Server.RateLimitPerMinute)

	c.Feed.URL = getEnv("HYPERLIQUID_WS_URL", c.Feed.URL)
	if coins := parseList(os.Getenv("FEED_COINS")); len(coins) > 0 {
		c.Feed.Coins = coins
	}
	c.Feed.ReconnectSeconds = parseIntEnv("FEED_RECONNECT_SECONDS", c.Feed.ReconnectSeconds)
	c.Feed.FrameIntervalMs = parseIntEnv("FEED_FRAME_INTERVAL_MS", c.Feed.FrameIntervalMs)

	c.Waitlist.Driver = getEnv("WAITLIST_DRIVER", c.Waitlist.Driver)
	c.Waitlist.DSN = getEnv("WAITLIST_DSN", c.Waitlist.DSN)
	c.Waitlist.Table = getEnv("WAITLIST_TABLE", c.Waitlist.Table)
	c.Waitlist.Supabase.URL = getEnv("SUPABASE_URL", c.Waitlist.Supabase.URL)
	c.Waitlist.Supabase.APIKey = getEnv("SUPABASE_ANON_KEY", c.Waitlist.Supabase.APIKey)

	c.Mailer.Host = getEnv("SMTP_HOST", c.Mailer.Host)
	c.Mailer.Port = parseIntEnv("SMTP_PORT", c.Mailer.Port)
	c.Mailer.Username = getEnv("SMTP_USERNAME", c.Mailer.Username)
	c.Mailer.Password = getEnv("SMTP_PASSWORD", c.Mailer.Password)
	c.Mailer.From = getEnv("SMTP_FROM", c.Mailer.From)

	c.Cache.Driver = getEnv("CACHE_DRIVER", c.Cache.Driver)
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = parseIntEnv("REDIS_DB", c.Cache.RedisDB)
	c.Cache.TTLSeconds = parseIntEnv("CACHE_TTL_SECONDS", c.Cache.TTLSeconds)

	c.Wallet.DataDir = getEnv("WALLET_DATA_DIR", c.Wallet.DataDir)
	c.Wallet.Backend = getEnv("WALLET_BACKEND", c.Wallet.Backend)
	c.Wallet.StartingBalance = getEnv("WALLET_STARTING_BALANCE", c.Wallet.StartingBalance)
	c.Wallet.MaxBetPct = parseFloatEnv("WALLET_MAX_BET_PCT", c.Wallet.MaxBetPct)

	c.Metrics.Listen = getEnv("METRICS_LISTEN", c.Metrics.Listen)

	c.Scheduler.WaitlistCountSpec = getEnv("CRON_WAITLIST_COUNT", c.Scheduler.WaitlistCountSpec)
	c.Scheduler.WalletFlushSpec = getEnv("CRON_WALLET_FLUSH", c.Scheduler.WalletFlushSpec)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url 未配置")
	}
	if len(c.Feed.Coins) == 0 {
		return fmt.Errorf("feed.coins 至少需要一个币种")
	}
	if c.Feed.ReconnectSeconds <= 0 {
		return fmt.Errorf("feed.reconnect_seconds 必须大于 0")
	}
	if c.Feed.FrameIntervalMs <= 0 {
		return fmt.Errorf("feed.frame_interval_ms 必须大于 0")
	}

	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute 不能为负数")
	}

	switch c.Waitlist.Driver {
	case "sqlite", "postgres":
		if c.Waitlist.DSN == "" {
			return fmt.Errorf("waitlist.dsn 未配置（driver=%s）", c.Waitlist.Driver)
		}
	case "supabase":
		if c.Waitlist.Supabase.URL == "" || c.Waitlist.Supabase.APIKey == "" {
			return fmt.Errorf("SUPABASE_URL / SUPABASE_ANON_KEY 未配置")
		}
	default:
		return fmt.Errorf("未知的 waitlist.driver: %s", c.Waitlist.Driver)
	}
	if c.Waitlist.Table == "" {
		return fmt.Errorf("waitlist.table 不能为空")
	}

	if c.Mailer.Host != "" && c.Mailer.From == "" {
		return fmt.Errorf("mailer.from 未配置")
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr 未配置")
		}
	default:
		return fmt.Errorf("未知的 cache.driver: %s", c.Cache.Driver)
	}

	switch c.Wallet.Backend {
	case "json", "badger":
	default:
		return fmt.Errorf("未知的 wallet.backend: %s", c.Wallet.Backend)
	}
	if c.Wallet.DataDir == "" {
		return fmt.Errorf("wallet.data_dir 不能为空")
	}
	if _, err := strconv.ParseFloat(c.Wallet.StartingBalance, 64); err != nil {
		return fmt.Errorf("wallet.starting_balance 无效: %q", c.Wallet.StartingBalance)
	}
	if c.Wallet.MaxBetPct <= 0 || c.Wallet.MaxBetPct > 1 {
		return fmt.Errorf("wallet.max_bet_pct 必须在 (0, 1] 之间")
	}

	return nil
}

// parseList 解析逗号分隔列表
func parseList(str string) []string {
	if str == "" {
		return nil
	}
	parts := strings.Split(str, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseFloatEnv 解析浮点数环境变量
func parseFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
