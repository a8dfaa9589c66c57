package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	JWT    JWTConfig
	Store  StoreConfig
	Redis  RedisConfig
	S3     S3Config
	Log    LogConfig
	Limits LimitsConfig
}

type ServerConfig struct {
	Port             string
	AppName          string
	AllowedOrigins   string
	PublicAPIBaseURL string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type StoreConfig struct {
	Driver string

	// Relational drivers. DSN wins over the discrete fields when set.
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MongoURI      string
	MongoDatabase string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func (c S3Config) Configured() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type LogConfig struct {
	Level       string
	Development bool
}

type LimitsConfig struct {
	PasswordMinLength int
	MaxMessageLength  int
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_NAME", "Peer Connect Backend")
	v.SetDefault("JWT_TTL", "168h")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "peer_connect")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PASSWORD_MIN_LENGTH", 6)
	v.SetDefault("MAX_MESSAGE_LENGTH", 4000)
}

// LoadConfig reads an optional config/config.yaml and overlays the environment.
func LoadConfig() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	c := &Config{
		Server: ServerConfig{
			Port:             v.GetString("PORT"),
			AppName:          v.GetString("APP_NAME"),
			AllowedOrigins:   strings.TrimSpace(v.GetString("ALLOWED_ORIGINS")),
			PublicAPIBaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("PUBLIC_API_BASE_URL")), "/"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			DSN:           v.GetString("DB_DSN"),
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			MongoURI:      v.GetString("MONGODB_URI"),
			MongoDatabase: v.GetString("MONGODB_DATABASE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		S3: S3Config{
			Endpoint:  strings.TrimSpace(v.GetString("S3_ENDPOINT")),
			Region:    strings.TrimSpace(v.GetString("S3_REGION")),
			Bucket:    strings.TrimSpace(v.GetString("S3_BUCKET")),
			AccessKey: strings.TrimSpace(v.GetString("S3_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(v.GetString("S3_SECRET_KEY")),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Log: LogConfig{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		Limits: LimitsConfig{
			PasswordMinLength: v.GetInt("PASSWORD_MIN_LENGTH"),
			MaxMessageLength:  v.GetInt("MAX_MESSAGE_LENGTH"),
		},
	}

	if c.JWT.Secret == "" {
		return nil, ErrMissingJWTSecret
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 7 * 24 * time.Hour
	}
	if c.Limits.PasswordMinLength < 6 {
		c.Limits.PasswordMinLength = 6
	}
	if c.Limits.MaxMessageLength < 1 {
		c.Limits.MaxMessageLength = 4000
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite, DriverMongo, DriverMemory:
	default:
		return nil, errors.New("unsupported STORE_DRIVER: " + c.Store.Driver)
	}
	return c, nil
}

// Load is LoadConfig followed by ParseConfig.
func Load() (*Config, error) {
	v, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return ParseConfig(v)
}
