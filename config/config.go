package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	SyncPort     int        `mapstructure:"sync_port"`      // syncd 监听端口
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"` // CSV 导入上限
	RateLimit    int        `mapstructure:"rate_limit"`     // 每分钟每 IP 请求数，0 表示关闭
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置（仅 syncd 使用）
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig 本地持久化配置（badger 目录）
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// TrackerConfig 作业计时相关配置
type TrackerConfig struct {
	SampleDir     string        `mapstructure:"sample_dir"`     // 无已保存数据时读取的示例 CSV 目录
	TickInterval  time.Duration `mapstructure:"tick_interval"`  // 计时器步进周期
	FlushInterval time.Duration `mapstructure:"flush_interval"` // 计时累积后写回本地存储的周期
	Timezone      string        `mapstructure:"timezone"`       // 计算「今日」所用时区
}

// Location 解析配置的时区，失败时回退到本地时区
func (c *TrackerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SyncConfig 远端快照服务配置
type SyncConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.sync_port", 8000)
	v.SetDefault("server.max_body_bytes", 8<<20)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "gantt_pro")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Tokyo")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.dir", "./data/badger")

	v.SetDefault("tracker.sample_dir", "./public")
	v.SetDefault("tracker.tick_interval", "1s")
	v.SetDefault("tracker.flush_interval", "15s")
	v.SetDefault("tracker.timezone", "Asia/Tokyo")

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.base_url", "http://localhost:8000")
	v.SetDefault("sync.timeout", "5s")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("GANTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Server.SyncPort <= 0 || c.Server.SyncPort > 65535 {
		return fmt.Errorf("配置校验失败: server.sync_port 必须在 1-65535 之间")
	}
	if c.Tracker.TickInterval <= 0 {
		return fmt.Errorf("配置校验失败: tracker.tick_interval 必须大于 0")
	}
	if c.Tracker.FlushInterval < 0 {
		return fmt.Errorf("配置校验失败: tracker.flush_interval 不能为负")
	}
	if c.Storage.Dir == "" {
		return fmt.Errorf("配置校验失败: storage.dir 不能为空")
	}
	if c.Sync.Enabled && c.Sync.BaseURL == "" {
		return fmt.Errorf("配置校验失败: 启用同步时 sync.base_url 不能为空")
	}
	return nil
}
