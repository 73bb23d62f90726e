package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Storage  Storage
	Gemini   Gemini
	Retry    Retry
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Storage struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	URLExpiry       time.Duration
}

type Gemini struct {
	ApiKey string
	Model  string
}

type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("STORAGE_BUCKET", "resumes")
	viper.SetDefault("STORAGE_URL_EXPIRY", "24h")
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_BASE_DELAY", "500ms")
	viper.SetDefault("RETRY_MAX_DELAY", "8s")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Storage.Endpoint = viper.GetString("STORAGE_ENDPOINT")
	config.Storage.AccessKeyID = viper.GetString("STORAGE_ACCESS_KEY")
	config.Storage.SecretAccessKey = viper.GetString("STORAGE_SECRET_KEY")
	config.Storage.Bucket = viper.GetString("STORAGE_BUCKET")
	config.Storage.UseSSL = viper.GetBool("STORAGE_USE_SSL")
	config.Storage.URLExpiry = viper.GetDuration("STORAGE_URL_EXPIRY")

	config.Gemini.ApiKey = viper.GetString("GEMINI_API_KEY")
	config.Gemini.Model = viper.GetString("GEMINI_MODEL")

	config.Retry.MaxAttempts = viper.GetInt("RETRY_MAX_ATTEMPTS")
	config.Retry.BaseDelay = viper.GetDuration("RETRY_BASE_DELAY")
	config.Retry.MaxDelay = viper.GetDuration("RETRY_MAX_DELAY")

	log.Info().Str("port", config.Server.Port).Str("model", config.Gemini.Model).Msg("Config loaded")
	return &config, nil
}
