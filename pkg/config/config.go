package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Sync   SyncConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
	TimeZone string
}

type RedisConfig struct {
	Addr string
}

// SyncConfig 控制同步核心的調校參數
type SyncConfig struct {
	PresenceTTLSeconds       int `mapstructure:"presence_ttl_seconds"`
	RoomEvictionGraceSeconds int `mapstructure:"room_eviction_grace_seconds"`
}

// PresenceTTL 回傳在線狀態的閒置過期時間
func (c SyncConfig) PresenceTTL() time.Duration {
	return time.Duration(c.PresenceTTLSeconds) * time.Second
}

// RoomEvictionGrace 回傳房間清空後保留快取的寬限時間
func (c SyncConfig) RoomEvictionGrace() time.Duration {
	return time.Duration(c.RoomEvictionGraceSeconds) * time.Second
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	// 同步參數的預設值，配置文件可覆蓋
	viper.SetDefault("sync.presence_ttl_seconds", 60)
	viper.SetDefault("sync.room_eviction_grace_seconds", 300)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("db.timezone", "UTC")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
