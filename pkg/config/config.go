package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Chat   ChatConfig
	Upload UploadConfig
	JWT    JWTConfig
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
}

type ChatConfig struct {
	StorageTimeout time.Duration `mapstructure:"storage_timeout"` // 持久層操作的逾時上限
	RosterGrace    time.Duration `mapstructure:"roster_grace"`    // 空房間名單的延遲回收寬限期
}

type UploadConfig struct {
	Dir string
}

type JWTConfig struct {
	Secret string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("chat.storage_timeout", "5s")
	viper.SetDefault("chat.roster_grace", "30s")
	viper.SetDefault("upload.dir", "./uploads")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
