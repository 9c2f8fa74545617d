package config

import "github.com/aws/aws-sdk-go-v2/service/s3"

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Channel : канал, в который публикуются события смены статуса пользователей
	Channel string `yaml:"channel"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Client   *s3.Client
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Local    bool   `yaml:"local"`
}

type JWTConfig struct {
	SecretKey       string `yaml:"secret_key"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

type AuthConfig struct {
	// RequireVerifiedEmail : запрещает логин, пока email не подтвержден кодом
	RequireVerifiedEmail bool `yaml:"require_verified_email"`
	// Production : включает флаг Secure у выставляемых куки
	Production bool   `yaml:"production"`
	OtpTTL     string `yaml:"otp_ttl"`
}

// ThrottleRule : лимит запросов для одного маршрута
type ThrottleRule struct {
	Route        string `yaml:"route"`
	WindowMillis int64  `yaml:"window_millis"`
	Limit        int    `yaml:"limit"`
	Message      string `yaml:"message"`
}

type ThrottleConfig struct {
	Rules   []ThrottleRule `yaml:"rules"`
	Default ThrottleRule   `yaml:"default"`
}
