package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"GO_ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Auth
	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn time.Duration `mapstructure:"JWT_EXPIRES_IN"`

	// Redis (presence mirror, token blacklist)
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	PresenceTTL   time.Duration `mapstructure:"PRESENCE_TTL"`

	// Chat
	HistoryLimit int `mapstructure:"HISTORY_LIMIT"`
}

var AppConfig *Config

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GO_ENV", "development")
	viper.SetDefault("JWT_EXPIRES_IN", "1h")
	viper.SetDefault("PRESENCE_TTL", "90s")
	viper.SetDefault("HISTORY_LIMIT", 100)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
}

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("FATAL ERROR: JWT_SECRET is not defined.")
	}
}
