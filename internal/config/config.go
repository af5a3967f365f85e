package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	AIURL           string        `mapstructure:"AI_URL"`
	AirportAPIURL   string        `mapstructure:"AIRPORT_API_URL"`
	AirportAPIKey   string        `mapstructure:"AIRPORT_API_KEY"`
	AirportRate     float64       `mapstructure:"AIRPORT_RATE_PER_SEC"`
	AirportBurst    int           `mapstructure:"AIRPORT_BURST"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	BusinessStart   int           `mapstructure:"BUSINESS_HOURS_START"`
	BusinessEnd     int           `mapstructure:"BUSINESS_HOURS_END"`
	TopFindings     int           `mapstructure:"TOP_FINDINGS"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("AIRPORT_RATE_PER_SEC", 2.0)
	v.SetDefault("AIRPORT_BURST", 4)
	v.SetDefault("BUSINESS_HOURS_START", 9)
	v.SetDefault("BUSINESS_HOURS_END", 18)
	v.SetDefault("TOP_FINDINGS", 3)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
