package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	OTP       OTPConfig
	Password  PasswordConfig
	Redis     RedisConfig
	Storage   StorageConfig
	SMTP      SMTPConfig
	MQTT      MQTTConfig
	OAuth     OAuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Jobs      JobsConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	BaseURL     string
	ClientURL   string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// JWTConfig holds the signing material for both token purposes.
// AccessSecret signs access and refresh tokens, ResetSecret signs password
// reset confirmation tokens.
type JWTConfig struct {
	AccessSecret string
	ResetSecret  string
	Issuer       string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	ResetTTL     time.Duration
}

type OTPConfig struct {
	Secret string
	Step   time.Duration
	Skew   uint
	Digits int
}

type PasswordConfig struct {
	BcryptCost int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	ResetRequestLimit  int
	ResetRequestWindow time.Duration
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type StorageConfig struct {
	Backend       string // "local" or "s3"
	LocalDir      string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicURL     string
	MaxUploadSize int64
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

func (c OAuthProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type OAuthConfig struct {
	Google   OAuthProviderConfig
	Facebook OAuthProviderConfig
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
	AuthRPS      float64
	AuthBurst    int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type JobsConfig struct {
	SessionPurgeSchedule    string
	SessionRetention        time.Duration
	EventCompletionSchedule string
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("API_BASE_URL", "http://localhost:8080")

	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	viper.SetDefault("DB_AUTO_MIGRATE", true)

	viper.SetDefault("JWT_ISSUER", "event-ticketing")
	viper.SetDefault("JWT_ACCESS_TTL", time.Hour)
	viper.SetDefault("JWT_REFRESH_TTL", 24*time.Hour)
	viper.SetDefault("JWT_RESET_TTL", 10*time.Minute)

	viper.SetDefault("OTP_STEP", 60*time.Second)
	viper.SetDefault("OTP_SKEW", 1)
	viper.SetDefault("OTP_DIGITS", 6)

	viper.SetDefault("BCRYPT_COST", 12)

	viper.SetDefault("REDIS_RESET_REQUEST_LIMIT", 5)
	viper.SetDefault("REDIS_RESET_REQUEST_WINDOW", 15*time.Minute)

	viper.SetDefault("STORAGE_BACKEND", "local")
	viper.SetDefault("STORAGE_LOCAL_DIR", "uploads")
	viper.SetDefault("STORAGE_BUCKET", "event-ticketing")
	viper.SetDefault("STORAGE_MAX_UPLOAD_SIZE", 5<<20)

	viper.SetDefault("SMTP_PORT", 587)

	viper.SetDefault("MQTT_CLIENT_ID", "event-ticketing-api")
	viper.SetDefault("MQTT_TOPIC_PREFIX", "events")
	viper.SetDefault("MQTT_QOS", 1)

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	viper.SetDefault("RATE_LIMIT_AUTH_RPS", 1)
	viper.SetDefault("RATE_LIMIT_AUTH_BURST", 5)

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Authorization,X-Request-ID")
	viper.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID")
	viper.SetDefault("CORS_MAX_AGE", 12*time.Hour)

	viper.SetDefault("JOBS_SESSION_PURGE_SCHEDULE", "0 30 3 * * *")
	viper.SetDefault("JOBS_SESSION_RETENTION", 30*24*time.Hour)
	viper.SetDefault("JOBS_EVENT_COMPLETION_SCHEDULE", "0 */5 * * * *")
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
			BaseURL:     strings.TrimRight(viper.GetString("API_BASE_URL"), "/"),
			ClientURL:   viper.GetString("CLIENT_URL"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     viper.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			AccessSecret: viper.GetString("AUTH_JWT_SECRET"),
			ResetSecret:  viper.GetString("AUTH_JWT_RESET_SECRET"),
			Issuer:       viper.GetString("JWT_ISSUER"),
			AccessTTL:    viper.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL:   viper.GetDuration("JWT_REFRESH_TTL"),
			ResetTTL:     viper.GetDuration("JWT_RESET_TTL"),
		},
		OTP: OTPConfig{
			Secret: viper.GetString("OTP_SECRET"),
			Step:   viper.GetDuration("OTP_STEP"),
			Skew:   viper.GetUint("OTP_SKEW"),
			Digits: viper.GetInt("OTP_DIGITS"),
		},
		Password: PasswordConfig{
			BcryptCost: viper.GetInt("BCRYPT_COST"),
		},
		Redis: RedisConfig{
			Addr:               viper.GetString("REDIS_ADDR"),
			Password:           viper.GetString("REDIS_PASSWORD"),
			DB:                 viper.GetInt("REDIS_DB"),
			ResetRequestLimit:  viper.GetInt("REDIS_RESET_REQUEST_LIMIT"),
			ResetRequestWindow: viper.GetDuration("REDIS_RESET_REQUEST_WINDOW"),
		},
		Storage: StorageConfig{
			Backend:       viper.GetString("STORAGE_BACKEND"),
			LocalDir:      viper.GetString("STORAGE_LOCAL_DIR"),
			Endpoint:      viper.GetString("STORAGE_ENDPOINT"),
			Region:        viper.GetString("STORAGE_REGION"),
			AccessKey:     viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:     viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:        viper.GetString("STORAGE_BUCKET"),
			UseSSL:        viper.GetBool("STORAGE_USE_SSL"),
			PublicURL:     strings.TrimRight(viper.GetString("STORAGE_PUBLIC_URL"), "/"),
			MaxUploadSize: viper.GetInt64("STORAGE_MAX_UPLOAD_SIZE"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		MQTT: MQTTConfig{
			Broker:      viper.GetString("MQTT_BROKER"),
			ClientID:    viper.GetString("MQTT_CLIENT_ID"),
			Username:    viper.GetString("MQTT_USERNAME"),
			Password:    viper.GetString("MQTT_PASSWORD"),
			TopicPrefix: viper.GetString("MQTT_TOPIC_PREFIX"),
			QoS:         byte(viper.GetUint("MQTT_QOS")),
		},
		OAuth: OAuthConfig{
			Google: OAuthProviderConfig{
				ClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
				ClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
				CallbackURL:  viper.GetString("GOOGLE_CALLBACK_URL"),
			},
			Facebook: OAuthProviderConfig{
				ClientID:     viper.GetString("FACEBOOK_CLIENT_ID"),
				ClientSecret: viper.GetString("FACEBOOK_CLIENT_SECRET"),
				CallbackURL:  viper.GetString("FACEBOOK_CALLBACK_URL"),
			},
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
			AuthRPS:      viper.GetFloat64("RATE_LIMIT_AUTH_RPS"),
			AuthBurst:    viper.GetInt("RATE_LIMIT_AUTH_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(viper.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(viper.GetString("CORS_ALLOWED_HEADERS")),
			ExposedHeaders:   splitList(viper.GetString("CORS_EXPOSED_HEADERS")),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetDuration("CORS_MAX_AGE"),
		},
		Jobs: JobsConfig{
			SessionPurgeSchedule:    viper.GetString("JOBS_SESSION_PURGE_SCHEDULE"),
			SessionRetention:        viper.GetDuration("JOBS_SESSION_RETENTION"),
			EventCompletionSchedule: viper.GetString("JOBS_EVENT_COMPLETION_SCHEDULE"),
		},
	}

	return config, nil
}

// Validate reports configuration the process cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.JWT.AccessSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if c.JWT.ResetSecret == "" {
		missing = append(missing, "AUTH_JWT_RESET_SECRET")
	}
	if c.OTP.Secret == "" {
		missing = append(missing, "OTP_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.JWT.AccessSecret == c.JWT.ResetSecret {
		return errors.New("AUTH_JWT_SECRET and AUTH_JWT_RESET_SECRET must differ")
	}
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
