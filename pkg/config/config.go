package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	GRPC           GRPCConfig           `mapstructure:"grpc"`
	Storage        StorageConfig        `mapstructure:"storage"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	NATS           NATSConfig           `mapstructure:"nats"`
	RabbitMQ       RabbitMQConfig       `mapstructure:"rabbitmq"`
	Events         EventsConfig         `mapstructure:"events"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Scheduling     SchedulingConfig     `mapstructure:"scheduling"`
	Lifecycle      LifecycleConfig      `mapstructure:"lifecycle"`
	Penalties      PenaltiesConfig      `mapstructure:"penalties"`
	Pricing        PricingConfig        `mapstructure:"pricing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type GRPCConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Port           int           `mapstructure:"port"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

// StorageConfig selects the adapters. Driver is "memory" or "postgres";
// Locker is "local" or "redis".
type StorageConfig struct {
	Driver   string `mapstructure:"driver"`
	Locker   string `mapstructure:"locker"`
	SeedDemo bool   `mapstructure:"seed_demo"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// EventsConfig picks the notification sink: "nats", "rabbitmq" or "none".
type EventsConfig struct {
	Driver string `mapstructure:"driver"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Mount   string `mapstructure:"mount"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level    string          `mapstructure:"level"`
	Format   string          `mapstructure:"format"`
	Output   string          `mapstructure:"output"`
	Sampling LoggingSampling `mapstructure:"sampling"`
}

type LoggingSampling struct {
	Enabled    bool `mapstructure:"enabled"`
	Initial    int  `mapstructure:"initial"`
	Thereafter int  `mapstructure:"thereafter"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	MinRequests      int           `mapstructure:"min_requests"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

type CacheConfig struct {
	CatalogTTL      time.Duration `mapstructure:"catalog_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxEntries      int           `mapstructure:"max_entries"`
}

type SchedulingConfig struct {
	Horizon          time.Duration `mapstructure:"horizon"`
	SlotGranularity  time.Duration `mapstructure:"slot_granularity"`
	LockWaitTimeout  time.Duration `mapstructure:"lock_wait_timeout"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	MaxAdvance       time.Duration `mapstructure:"max_advance"`
	EarlyStartWindow time.Duration `mapstructure:"early_start_window"`
}

type LifecycleConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	BatchSize   int           `mapstructure:"batch_size"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// PenaltiesConfig holds the fee policy. Money values are decimal strings.
type PenaltiesConfig struct {
	NoShowPercent         string        `mapstructure:"no_show_percent"`
	LateCancelPercent     string        `mapstructure:"late_cancel_percent"`
	LateCancelWindow      time.Duration `mapstructure:"late_cancel_window"`
	OvertimeRatePerMinute string        `mapstructure:"overtime_rate_per_minute"`
}

type PricingConfig struct {
	PeakStartHour int    `mapstructure:"peak_start_hour"`
	PeakEndHour   int    `mapstructure:"peak_end_hour"`
	PeakFactor    string `mapstructure:"peak_factor"`
	WeekendFactor string `mapstructure:"weekend_factor"`
	Timezone      string `mapstructure:"timezone"`
}
