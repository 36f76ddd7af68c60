// config/config.go
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// --- Các struct con, phản ánh cấu trúc của YAML ---

type ServerConfig struct {
	Port               string   `mapstructure:"port"`
	CORSAllowedOrigins []string `mapstructure:"corsAllowedOrigins"`
}

type StoreConfig struct {
	Driver         string `mapstructure:"driver"` // mongo | memory
	SeedDemoActors bool   `mapstructure:"seedDemoActors"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

// TTL parses Expiration, falling back to 24h.
func (c JWTConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.Expiration)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

type OSRMConfig struct {
	BaseURL     string        `mapstructure:"baseURL"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxInFlight int           `mapstructure:"maxInFlight"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// Enabled reports whether photo uploads can be served.
func (c S3Config) Enabled() bool { return c.Bucket != "" && c.Region != "" }

type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// Enabled reports whether lifecycle events are published to a broker.
func (c AMQPConfig) Enabled() bool { return c.URL != "" }

type RealtimeConfig struct {
	SendBuffer int `mapstructure:"sendBuffer"`
}

// --- Struct Config chính, bao gồm tất cả các struct con ---

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OSRM     OSRMConfig     `mapstructure:"osrm"`
	S3       S3Config       `mapstructure:"s3"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

// LoadConfig đọc cấu hình từ file và ghi đè bằng các biến môi trường.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "5000")
	v.SetDefault("server.corsAllowedOrigins", []string{"*"})
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.dbName", "food_rescue")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("osrm.baseURL", "https://router.project-osrm.org")
	v.SetDefault("osrm.timeout", 5*time.Second)
	v.SetDefault("osrm.maxInFlight", 3)
	v.SetDefault("amqp.exchange", "donation_topic")
	v.SetDefault("realtime.sendBuffer", 256)

	v.AutomaticEnv()

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.corsAllowedOrigins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.seedDemoActors", "SEED_DEMO_ACTORS")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("osrm.baseURL", "OSRM_BASE_URL")
	v.BindEnv("osrm.timeout", "OSRM_TIMEOUT")
	v.BindEnv("osrm.maxInFlight", "OSRM_MAX_IN_FLIGHT")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("amqp.url", "AMQP_URL")
	v.BindEnv("amqp.exchange", "AMQP_EXCHANGE")
	v.BindEnv("realtime.sendBuffer", "REALTIME_SEND_BUFFER")

	// Nếu file không tồn tại, Viper sẽ chỉ sử dụng các biến môi trường.
	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	// CORS_ALLOWED_ORIGINS comes in as one comma separated string.
	if len(config.Server.CORSAllowedOrigins) == 1 && strings.Contains(config.Server.CORSAllowedOrigins[0], ",") {
		config.Server.CORSAllowedOrigins = strings.Split(config.Server.CORSAllowedOrigins[0], ",")
	}
	config.Store.Driver = strings.ToLower(config.Store.Driver)
	return
}
