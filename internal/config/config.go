package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	MySQL  MySQLConfig  `mapstructure:"mysql"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Sweep  SweepConfig  `mapstructure:"sweep"`
	Lock   LockConfig   `mapstructure:"lock"`
	SMS    SMSConfig    `mapstructure:"sms"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LockConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Wait time.Duration `mapstructure:"wait"`
}

type SMSConfig struct {
	GatewayURL string        `mapstructure:"gateway_url"`
	Sender     string        `mapstructure:"sender"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("mysql.dsn", "market_user:market_pass@tcp(localhost:3306)/marketplace?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("sweep.interval", time.Minute)
	viper.SetDefault("lock.ttl", 10*time.Second)
	viper.SetDefault("lock.wait", 2*time.Second)
	viper.SetDefault("sms.gateway_url", "")
	viper.SetDefault("sms.sender", "")
	viper.SetDefault("sms.timeout", 5*time.Second)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auction-marketplace/")

	// Environment variable support
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("sweep.interval", "SWEEP_INTERVAL")
	viper.BindEnv("lock.ttl", "LOCK_TTL")
	viper.BindEnv("lock.wait", "LOCK_WAIT")
	viper.BindEnv("sms.gateway_url", "SMS_GATEWAY_URL")
	viper.BindEnv("sms.sender", "SMS_SENDER")
	viper.BindEnv("sms.timeout", "SMS_TIMEOUT")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
