package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-ledger/internal/domain"
)

const (
	FeedNATS  = "nats"
	FeedKafka = "kafka"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadHost        string        `mapstructure:"read_host"`
	ReadPort        int           `mapstructure:"read_port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	// DuplicateWindow is how long the stream deduplicates published event ids
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	EventsTopic string   `mapstructure:"events_topic"`
	DriftTopic  string   `mapstructure:"drift_topic"`
	GroupID     string   `mapstructure:"group_id"`
}

// EthereumConfig holds the node connection of the chain the wallets live on
type EthereumConfig struct {
	WebSocketURL string       `mapstructure:"websocket_url"`
	RPCURL       string       `mapstructure:"rpc_url"`
	ChainID      domain.Chain `mapstructure:"chain_id"`
	StartBlock   uint64       `mapstructure:"start_block"`
	// Addresses restricts log filtering to these contracts; empty follows every emitter
	Addresses []string `mapstructure:"addresses"`
}

// TemporalConfig holds Temporal configuration
type TemporalConfig struct {
	HostPort                           string  `mapstructure:"host_port"`
	Namespace                          string  `mapstructure:"namespace"`
	TaskQueue                          string  `mapstructure:"task_queue"`
	MaxConcurrentActivityExecutionSize int     `mapstructure:"max_concurrent_activity_execution_size"`
	WorkerActivitiesPerSecond          float64 `mapstructure:"worker_activities_per_second"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// AllowedOrigins lists the CORS origins; empty allows any origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// LedgerConfig holds the amount handling shared by every binary
type LedgerConfig struct {
	// Decimals is the default number of token decimals
	Decimals int32 `mapstructure:"decimals"`
	// ChainDecimals overrides Decimals per chain, keyed by chain name or CAIP-2 id
	ChainDecimals map[string]int32 `mapstructure:"chain_decimals"`
}

// IngestConfig holds the ingestor configuration
type IngestConfig struct {
	Chain                domain.Chain  `mapstructure:"chain"`
	MaxConflictRetries   uint64        `mapstructure:"max_conflict_retries"`
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `mapstructure:"retry_max_interval"`
	// RetryDelay is how long a failed event waits before it is delivered again
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// ReconcileConfig holds the reconciliation configuration
type ReconcileConfig struct {
	Workers       int      `mapstructure:"workers"`
	PageSize      int      `mapstructure:"page_size"`
	PolicyVersion string   `mapstructure:"policy_version"`
	Chains        []string `mapstructure:"chains"`
	// Schedule is the cron expression of the periodic chain reconciliation; empty disables it
	Schedule string `mapstructure:"schedule"`
	// PublishDrift publishes drift reports to the configured feed
	PublishDrift bool `mapstructure:"publish_drift"`
}

// LedgerIngestorConfig holds configuration for ledger-ingestor
type LedgerIngestorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Feed       string         `mapstructure:"feed"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Ingest     IngestConfig   `mapstructure:"ingest"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
}

// EventEmitterConfig holds configuration for event-emitter and event-replayer
type EventEmitterConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Feed       string         `mapstructure:"feed"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
	// AbandonedAfter is the default inactivity threshold of the abandoned buckets query
	AbandonedAfter time.Duration `mapstructure:"abandoned_after"`
}

// ReconcileWorkerConfig holds configuration for reconcile-worker
type ReconcileWorkerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Temporal   TemporalConfig  `mapstructure:"temporal"`
	Reconcile  ReconcileConfig `mapstructure:"reconcile"`
	Ledger     LedgerConfig    `mapstructure:"ledger"`
	Feed       string          `mapstructure:"feed"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
}

// AdminConfig holds configuration for ledger-admin
type AdminConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Temporal   TemporalConfig `mapstructure:"temporal"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
	// Feed, NATS and Kafka are where released quarantined events are published again
	Feed  string      `mapstructure:"feed"`
	NATS  NATSConfig  `mapstructure:"nats"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// LoadLedgerIngestorConfig loads configuration for ledger-ingestor
func LoadLedgerIngestorConfig(configFile string, envPath string) (*LedgerIngestorConfig, error) {
	v := configureViper("ledger-ingestor", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("feed", FeedNATS)
	v.SetDefault("nats.consumer_name", "ledger-ingestor")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("kafka.events_topic", "ledger-events")
	v.SetDefault("kafka.group_id", "ledger-ingestor")
	v.SetDefault("ingest.chain", string(domain.ChainBaseMainnet))
	v.SetDefault("ingest.max_conflict_retries", 5)
	v.SetDefault("ingest.retry_initial_interval", "100ms")
	v.SetDefault("ingest.retry_max_interval", "2s")
	v.SetDefault("ingest.retry_delay", "5s")
	v.SetDefault("ledger.decimals", domain.USDC_DECIMALS)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config LedgerIngestorConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateFeed(config.Feed); err != nil {
		return nil, err
	}
	chain, err := domain.ParseChain(string(config.Ingest.Chain))
	if err != nil {
		return nil, fmt.Errorf("invalid ingest.chain: %w", err)
	}
	config.Ingest.Chain = chain

	return &config, nil
}

// LoadEventEmitterConfig loads configuration for event-emitter and event-replayer
func LoadEventEmitterConfig(service string, configFile string, envPath string) (*EventEmitterConfig, error) {
	v := configureViper(service, configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("feed", FeedNATS)
	v.SetDefault("kafka.events_topic", "ledger-events")
	v.SetDefault("ethereum.chain_id", string(domain.ChainBaseMainnet))

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config EventEmitterConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateFeed(config.Feed); err != nil {
		return nil, err
	}
	chain, err := domain.ParseChain(string(config.Ethereum.ChainID))
	if err != nil {
		return nil, fmt.Errorf("invalid ethereum.chain_id: %w", err)
	}
	config.Ethereum.ChainID = chain

	return &config, nil
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "120s")
	setDatabaseDefaults(v)
	v.SetDefault("ledger.decimals", domain.USDC_DECIMALS)
	v.SetDefault("abandoned_after", "720h")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadReconcileWorkerConfig loads configuration for reconcile-worker
func LoadReconcileWorkerConfig(configFile string, envPath string) (*ReconcileWorkerConfig, error) {
	v := configureViper("reconcile-worker", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setTemporalDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("feed", FeedNATS)
	v.SetDefault("kafka.drift_topic", "ledger-drift")
	v.SetDefault("reconcile.workers", 8)
	v.SetDefault("reconcile.page_size", 500)
	v.SetDefault("reconcile.policy_version", "v1")
	v.SetDefault("reconcile.chains", []string{string(domain.ChainBaseMainnet)})
	v.SetDefault("reconcile.schedule", "0 3 * * *")
	v.SetDefault("reconcile.publish_drift", true)
	v.SetDefault("ledger.decimals", domain.USDC_DECIMALS)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config ReconcileWorkerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateFeed(config.Feed); err != nil {
		return nil, err
	}
	for _, c := range config.Reconcile.Chains {
		if _, err := domain.ParseChain(c); err != nil {
			return nil, fmt.Errorf("invalid reconcile.chains: %w", err)
		}
	}

	return &config, nil
}

// LoadAdminConfig loads configuration for ledger-admin
func LoadAdminConfig(configFile string, envPath string) (*AdminConfig, error) {
	v := configureViper("ledger-admin", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setTemporalDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("feed", FeedNATS)
	v.SetDefault("kafka.events_topic", "ledger-events")
	v.SetDefault("ledger.decimals", domain.USDC_DECIMALS)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config AdminConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateFeed(config.Feed); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
}

func setNATSDefaults(v *viper.Viper) {
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "LEDGER_EVENTS")
	v.SetDefault("nats.duplicate_window", "2m")
}

func setTemporalDefaults(v *viper.Viper) {
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "ledger-reconcile")
	v.SetDefault("temporal.max_concurrent_activity_execution_size", 10)
	v.SetDefault("temporal.worker_activities_per_second", 10)
}

// readConfig reads the config file; a missing file leaves the environment as the only source
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func validateFeed(feed string) error {
	switch feed {
	case FeedNATS, FeedKafka:
		return nil
	default:
		return fmt.Errorf("unsupported feed %q, expected %q or %q", feed, FeedNATS, FeedKafka)
	}
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("FF_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"feed",
		"abandoned_after",
		// Database
		"database.host",
		"database.port",
		"database.read_host",
		"database.read_port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.duplicate_window",
		// Kafka
		"kafka.brokers",
		"kafka.events_topic",
		"kafka.drift_topic",
		"kafka.group_id",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.rpc_url",
		"ethereum.chain_id",
		"ethereum.start_block",
		"ethereum.addresses",
		// Temporal
		"temporal.host_port",
		"temporal.namespace",
		"temporal.task_queue",
		"temporal.max_concurrent_activity_execution_size",
		"temporal.worker_activities_per_second",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Ledger
		"ledger.decimals",
		// Ingest
		"ingest.chain",
		"ingest.max_conflict_retries",
		"ingest.retry_initial_interval",
		"ingest.retry_max_interval",
		"ingest.retry_delay",
		// Reconcile
		"reconcile.workers",
		"reconcile.page_size",
		"reconcile.policy_version",
		"reconcile.chains",
		"reconcile.schedule",
		"reconcile.publish_drift",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ReadDSNs returns the read-replica connection strings, none when no read host is configured.
// If ReadPort is not configured, it falls back to Port.
func (c *DatabaseConfig) ReadDSNs() []string {
	if c.ReadHost == "" {
		return nil
	}

	port := c.ReadPort
	if port == 0 {
		port = c.Port
	}

	return []string{fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.ReadHost, port, c.User, c.Password, c.DBName, c.SSLMode)}
}

// DomainDecimals returns the per-chain token decimals
func (c LedgerConfig) DomainDecimals() (domain.Decimals, error) {
	d := domain.Decimals{Default: c.Decimals}
	if len(c.ChainDecimals) == 0 {
		return d, nil
	}

	d.PerChain = make(map[domain.Chain]int32, len(c.ChainDecimals))
	for name, decimals := range c.ChainDecimals {
		chain, err := domain.ParseChain(name)
		if err != nil {
			return domain.Decimals{}, fmt.Errorf("invalid ledger.chain_decimals key: %w", err)
		}
		d.PerChain[chain] = decimals
	}
	return d, nil
}
