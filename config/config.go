package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig
	Logger        LoggerConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Replenishment ReplenishmentConfig
	Scheduler     SchedulerConfig
	Metrics       MetricsConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	OpsPort  string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	RunRequestTopic string
	GroupID         string
	PlanEventsTopic string
}

// ReplenishmentConfig carries the engine constants. They are read once at
// startup and handed to the planner by value.
type ReplenishmentConfig struct {
	WarehouseStoreID    string
	ReviewPeriodDays    int
	LeadTimeDays        int
	LookbackDays        int
	ReadinessWindowDays int
	OverstockDays       int
	Timezone            string
	Workers             int
	LockTTLSeconds      int
	RunTimeoutSeconds   int
}

type SchedulerConfig struct {
	Enabled         bool
	IntervalSeconds int
}

type MetricsConfig struct {
	ServiceName string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8085"),
			OpsPort:  getEnv("OPS_PORT", ":9095"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_replenishment"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:         getEnvBool("KAFKA_ENABLED", true),
			Brokers:         getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			RunRequestTopic: getEnv("KAFKA_TOPIC_RUN_REQUESTS", "replenishment.run-requests"),
			GroupID:         getEnv("KAFKA_GROUP_REPLENISHMENT", "replenishment"),
			PlanEventsTopic: getEnv("KAFKA_TOPIC_PLAN_EVENTS", "replenishment.events"),
		},
		Replenishment: ReplenishmentConfig{
			WarehouseStoreID:    getEnv("REPLENISHMENT_WAREHOUSE_STORE_ID", ""),
			ReviewPeriodDays:    getEnvInt("REPLENISHMENT_REVIEW_PERIOD_DAYS", 7),
			LeadTimeDays:        getEnvInt("REPLENISHMENT_LEAD_TIME_DAYS", 2),
			LookbackDays:        getEnvInt("REPLENISHMENT_LOOKBACK_DAYS", 28),
			ReadinessWindowDays: getEnvInt("REPLENISHMENT_READINESS_WINDOW_DAYS", 28),
			OverstockDays:       getEnvInt("REPLENISHMENT_OVERSTOCK_DAYS", 120),
			Timezone:            getEnv("REPLENISHMENT_TIMEZONE", "Asia/Manila"),
			Workers:             getEnvInt("REPLENISHMENT_WORKERS", 4),
			LockTTLSeconds:      getEnvInt("REPLENISHMENT_LOCK_TTL", 1860),
			RunTimeoutSeconds:   getEnvInt("REPLENISHMENT_RUN_TIMEOUT", 1800),
		},
		Scheduler: SchedulerConfig{
			Enabled:         getEnvBool("SCHEDULER_ENABLED", false),
			IntervalSeconds: getEnvInt("SCHEDULER_INTERVAL", 86400),
		},
		Metrics: MetricsConfig{
			ServiceName: getEnv("METRICS_SERVICE_NAME", "omnipos-replenishment"),
		},
	}
}

// Location resolves the business time zone, falling back to UTC when the
// zone database does not know the name.
func (c ReplenishmentConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}

// lockMargin is how long the run-date lock outlives the run timeout.
const lockMargin = time.Minute

func (c ReplenishmentConfig) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// LockTTL is the configured run-date lock TTL, raised when needed so the lock
// cannot expire before a run is cancelled by its timeout.
func (c ReplenishmentConfig) LockTTL() time.Duration {
	ttl := time.Duration(c.LockTTLSeconds) * time.Second
	if floor := c.RunTimeout() + lockMargin; ttl < floor {
		return floor
	}
	return ttl
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
