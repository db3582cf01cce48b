package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration, bound from the environment with
// viper. Defaults suit local development.
type Config struct {
	ServerPort   string
	LogLevel     string
	JWTSecretKey string
	JWTExpiry    time.Duration

	// Empty DatabaseHost selects the in-memory ledger backend.
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabaseSSLMode  string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// Load reads .env when present and lets real environment variables
// override it.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("jwt.secret_key", "dev-secret-change-me")
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "shop")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.db", 0)

	return &Config{
		ServerPort:   viper.GetString("server.port"),
		LogLevel:     viper.GetString("log.level"),
		JWTSecretKey: viper.GetString("jwt.secret_key"),
		JWTExpiry:    time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour,

		DatabaseHost:     viper.GetString("database.host"),
		DatabasePort:     viper.GetString("database.port"),
		DatabaseUser:     viper.GetString("database.user"),
		DatabasePassword: viper.GetString("database.password"),
		DatabaseName:     viper.GetString("database.name"),
		DatabaseSSLMode:  viper.GetString("database.ssl_mode"),

		RedisHost:     viper.GetString("redis.host"),
		RedisPort:     viper.GetString("redis.port"),
		RedisPassword: viper.GetString("redis.password"),
		RedisDB:       viper.GetInt("redis.db"),
	}
}
