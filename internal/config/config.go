package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	DB     DBConfig
	Server ServerConfig
	Cache  CacheConfig
	Kafka  KafkaConfig
	S3     S3Config
	Upload UploadConfig
}

type DBConfig struct {
	Type string // sqlite or postgres
	DSN  string
}

type ServerConfig struct {
	GrpcPort string
	HttpPort string
}

type CacheConfig struct {
	RedisAddr   string // empty keeps the cache in process memory
	TTL         time.Duration
	Compression string
}

type KafkaConfig struct {
	Brokers string // empty disables change events
	Topic   string
}

type S3Config struct {
	Bucket    string // empty disables archive retention
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type UploadConfig struct {
	Dir           string
	SweepSchedule string
	MaxAge        time.Duration
}

// LoadConfig reads the configuration from the environment. A .env file in the working directory is loaded first.
func LoadConfig() *Config {
	return &Config{
		DB: DBConfig{
			Type: getEnv("DB_TYPE", "sqlite"),
			DSN:  getEnv("DB_DSN", ".tmp/db/manual.db"),
		},
		Server: ServerConfig{
			GrpcPort: getEnv("GRPC_PORT", "4020"),
			HttpPort: getEnv("HTTP_PORT", "4021"),
		},
		Cache: CacheConfig{
			RedisAddr:   os.Getenv("REDIS_ADDR"),
			TTL:         getDuration("CACHE_TTL", time.Hour),
			Compression: getEnv("COMPRESSION", "gzip"),
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "manual-events"),
		},
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		Upload: UploadConfig{
			Dir:           os.Getenv("UPLOAD_DIR"),
			SweepSchedule: getEnv("UPLOAD_SWEEP_SCHEDULE", "@every 10m"),
			MaxAge:        getDuration("UPLOAD_MAX_AGE", time.Hour),
		},
	}
}

// GetDb opens the database described by the config and panics when it cannot.
func GetDb(cnf *Config) *gorm.DB {
	var dialector gorm.Dialector
	switch strings.ToLower(cnf.DB.Type) {
	case "postgres":
		dialector = postgres.Open(cnf.DB.DSN)
	case "sqlite":
		if err := ensureParentDir(cnf.DB.DSN); err != nil {
			logrus.Fatalf("failed to create database directory: %v", err)
		}
		dialector = sqlite.Open(cnf.DB.DSN)
	default:
		logrus.Fatalf("unsupported database type: %s", cnf.DB.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	return db
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		logrus.Warnf("invalid duration %s=%q, using %s", key, value, fallback)
		return fallback
	}

	return d
}

func ensureParentDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}

	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}

	return os.MkdirAll(dir, os.ModePerm)
}
