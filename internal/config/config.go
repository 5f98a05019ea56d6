package config

import (
	"github.com/blues/cds/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Reward   RewardConfig   `mapstructure:"reward"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LedgerConfig 捐款台账配置
type LedgerConfig struct {
	Owner            string `mapstructure:"owner"`              // 平台管理员地址
	Treasury         string `mapstructure:"treasury"`           // 手续费接收地址
	Account          string `mapstructure:"account"`            // 台账托管账户地址
	PlatformFeeBps   uint64 `mapstructure:"platform_fee_bps"`   // 平台手续费，基点
	MinRewardAmount  string `mapstructure:"min_reward_amount"`  // 铸造奖励的最低净额，最小单位十进制字符串
	EventWorkerCount int    `mapstructure:"event_worker_count"` // 事件分发协程池大小
}

// RewardConfig 奖励凭证配置
type RewardConfig struct {
	Name            string `mapstructure:"name"`             // 凭证集合名称
	Symbol          string `mapstructure:"symbol"`           // 凭证集合符号
	RoyaltyReceiver string `mapstructure:"royalty_receiver"` // 版税接收地址，默认为 treasury
	RoyaltyBps      uint64 `mapstructure:"royalty_bps"`      // 版税比例，基点
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/cds")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "charity")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("ledger.platform_fee_bps", 100)
	viper.SetDefault("ledger.min_reward_amount", "10000000000000000") // 0.01
	viper.SetDefault("ledger.event_worker_count", 8)
	viper.SetDefault("reward.name", "Charity Hero")
	viper.SetDefault("reward.symbol", "HERO")
	viper.SetDefault("reward.royalty_bps", 500)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
