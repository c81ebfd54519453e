package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/domain"
)

// writeConfig writes the yaml into a temp dir, or returns a path that does not exist when empty
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	if content == "" {
		return filepath.Join(tmpDir, "nonexistent.yaml")
	}

	configFile := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(content), 0600)
	require.NoError(t, err)
	return configFile
}

func TestLoadLedgerIngestorConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *LedgerIngestorConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
feed: kafka
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  events_topic: wallet-events
  group_id: test-group
ingest:
  chain: base-sepolia
  max_conflict_retries: 3
  retry_initial_interval: 50ms
  retry_max_interval: 1s
  retry_delay: 10s
ledger:
  decimals: 18
  chain_decimals:
    base: 6
`,
			validate: func(t *testing.T, cfg *LedgerIngestorConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, FeedKafka, cfg.Feed)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
				assert.Equal(t, "wallet-events", cfg.Kafka.EventsTopic)
				assert.Equal(t, "test-group", cfg.Kafka.GroupID)
				assert.Equal(t, domain.ChainBaseSepolia, cfg.Ingest.Chain)
				assert.Equal(t, uint64(3), cfg.Ingest.MaxConflictRetries)
				assert.Equal(t, 50*time.Millisecond, cfg.Ingest.RetryInitialInterval)
				assert.Equal(t, time.Second, cfg.Ingest.RetryMaxInterval)
				assert.Equal(t, 10*time.Second, cfg.Ingest.RetryDelay)

				decimals, err := cfg.Ledger.DomainDecimals()
				require.NoError(t, err)
				assert.Equal(t, int32(18), decimals.For(domain.ChainEthereumMainnet))
				assert.Equal(t, int32(6), decimals.For(domain.ChainBaseMainnet))
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
nats:
  url: "nats://localhost:4222"
`,
			validate: func(t *testing.T, cfg *LedgerIngestorConfig) {
				assert.Equal(t, FeedNATS, cfg.Feed)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "LEDGER_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, "ledger-ingestor", cfg.NATS.ConsumerName)
				assert.Equal(t, 30*time.Second, cfg.NATS.AckWait)
				assert.Equal(t, 2*time.Minute, cfg.NATS.DuplicateWindow)
				assert.Equal(t, domain.ChainBaseMainnet, cfg.Ingest.Chain)
				assert.Equal(t, uint64(5), cfg.Ingest.MaxConflictRetries)
				assert.Equal(t, 5*time.Second, cfg.Ingest.RetryDelay)
				assert.Equal(t, int32(domain.USDC_DECIMALS), cfg.Ledger.Decimals)
			},
		},
		{
			name:       "missing config file",
			configFile: "",
			validate: func(t *testing.T, cfg *LedgerIngestorConfig) {
				assert.Equal(t, FeedNATS, cfg.Feed)
			},
		},
		{
			name: "unsupported feed",
			configFile: `
feed: rabbitmq
`,
			expectError: true,
		},
		{
			name: "unsupported chain",
			configFile: `
ingest:
  chain: solana
`,
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadLedgerIngestorConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadEventEmitterConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *EventEmitterConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: localhost
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
ethereum:
  websocket_url: "ws://localhost:8545"
  rpc_url: "http://localhost:8545"
  chain_id: "eip155:8453"
  start_block: 1000
  addresses:
    - "0x00000000000000000000000000000000000000aa"
`,
			validate: func(t *testing.T, cfg *EventEmitterConfig) {
				assert.Equal(t, FeedNATS, cfg.Feed)
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, "ws://localhost:8545", cfg.Ethereum.WebSocketURL)
				assert.Equal(t, "http://localhost:8545", cfg.Ethereum.RPCURL)
				assert.Equal(t, domain.ChainBaseMainnet, cfg.Ethereum.ChainID)
				assert.Equal(t, uint64(1000), cfg.Ethereum.StartBlock)
				assert.Equal(t, []string{"0x00000000000000000000000000000000000000aa"}, cfg.Ethereum.Addresses)
			},
		},
		{
			name: "chain by name",
			configFile: `
feed: kafka
ethereum:
  chain_id: polygon
`,
			validate: func(t *testing.T, cfg *EventEmitterConfig) {
				assert.Equal(t, FeedKafka, cfg.Feed)
				assert.Equal(t, "ledger-events", cfg.Kafka.EventsTopic)
				assert.Equal(t, domain.ChainPolygonMainnet, cfg.Ethereum.ChainID)
			},
		},
		{
			name: "unsupported chain",
			configFile: `
ethereum:
  chain_id: "tezos:mainnet"
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadEventEmitterConfig("event-emitter", writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
server:
  host: 127.0.0.1
  port: 9090
  read_timeout: 5s
  allowed_origins: ["https://app.feralfile.com"]
database:
  host: primary
  read_host: replica
  user: testuser
  password: testpass
  dbname: testdb
auth:
  jwt_public_key: "pem"
  api_keys: ["key-1", "key-2"]
abandoned_after: 240h
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, []string{"https://app.feralfile.com"}, cfg.Server.AllowedOrigins)
				assert.Equal(t, "replica", cfg.Database.ReadHost)
				assert.Equal(t, "pem", cfg.Auth.JWTPublicKey)
				assert.Equal(t, []string{"key-1", "key-2"}, cfg.Auth.APIKeys)
				assert.Equal(t, 240*time.Hour, cfg.AbandonedAfter)
			},
		},
		{
			name:       "config with defaults",
			configFile: "",
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
				assert.Empty(t, cfg.Server.AllowedOrigins)
				assert.Equal(t, 720*time.Hour, cfg.AbandonedAfter)
				assert.Empty(t, cfg.Database.ReadDSNs())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAPIConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadReconcileWorkerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *ReconcileWorkerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
temporal:
  host_port: "temporal:7233"
  namespace: ledger
  task_queue: reconcile
  max_concurrent_activity_execution_size: 4
  worker_activities_per_second: 2.5
reconcile:
  workers: 16
  page_size: 100
  policy_version: v0-legacy
  chains: [base, "eip155:1"]
  schedule: ""
  publish_drift: false
`,
			validate: func(t *testing.T, cfg *ReconcileWorkerConfig) {
				assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
				assert.Equal(t, "ledger", cfg.Temporal.Namespace)
				assert.Equal(t, "reconcile", cfg.Temporal.TaskQueue)
				assert.Equal(t, 4, cfg.Temporal.MaxConcurrentActivityExecutionSize)
				assert.Equal(t, 2.5, cfg.Temporal.WorkerActivitiesPerSecond)
				assert.Equal(t, 16, cfg.Reconcile.Workers)
				assert.Equal(t, 100, cfg.Reconcile.PageSize)
				assert.Equal(t, "v0-legacy", cfg.Reconcile.PolicyVersion)
				assert.Equal(t, []string{"base", "eip155:1"}, cfg.Reconcile.Chains)
				assert.Empty(t, cfg.Reconcile.Schedule)
				assert.False(t, cfg.Reconcile.PublishDrift)
			},
		},
		{
			name:       "config with defaults",
			configFile: "",
			validate: func(t *testing.T, cfg *ReconcileWorkerConfig) {
				assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
				assert.Equal(t, "default", cfg.Temporal.Namespace)
				assert.Equal(t, "ledger-reconcile", cfg.Temporal.TaskQueue)
				assert.Equal(t, 8, cfg.Reconcile.Workers)
				assert.Equal(t, 500, cfg.Reconcile.PageSize)
				assert.Equal(t, "v1", cfg.Reconcile.PolicyVersion)
				assert.Equal(t, "0 3 * * *", cfg.Reconcile.Schedule)
				assert.True(t, cfg.Reconcile.PublishDrift)
				assert.Equal(t, "ledger-drift", cfg.Kafka.DriftTopic)
			},
		},
		{
			name: "unsupported chain",
			configFile: `
reconcile:
  chains: [base, solana]
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadReconcileWorkerConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadAdminConfig(t *testing.T) {
	cfg, err := LoadAdminConfig(writeConfig(t, `
database:
  host: localhost
  dbname: ledger
`), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "ledger", cfg.Database.DBName)
	assert.Equal(t, "ledger-reconcile", cfg.Temporal.TaskQueue)
	assert.Equal(t, int32(domain.USDC_DECIMALS), cfg.Ledger.Decimals)
	assert.Equal(t, FeedNATS, cfg.Feed)
	assert.Equal(t, "LEDGER_EVENTS", cfg.NATS.StreamName)
	assert.Equal(t, "ledger-events", cfg.Kafka.EventsTopic)
}

func TestLedgerConfig_DomainDecimals(t *testing.T) {
	tests := []struct {
		name        string
		config      LedgerConfig
		expectError bool
		expected    domain.Decimals
	}{
		{
			name:     "default only",
			config:   LedgerConfig{Decimals: 6},
			expected: domain.Decimals{Default: 6},
		},
		{
			name:   "per chain by name and id",
			config: LedgerConfig{Decimals: 6, ChainDecimals: map[string]int32{"ethereum": 18, "eip155:137": 8}},
			expected: domain.Decimals{Default: 6, PerChain: map[domain.Chain]int32{
				domain.ChainEthereumMainnet: 18,
				domain.ChainPolygonMainnet:  8,
			}},
		},
		{
			name:        "unknown chain",
			config:      LedgerConfig{Decimals: 6, ChainDecimals: map[string]int32{"solana": 9}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decimals, err := tt.config.DomainDecimals()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, decimals)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
		readDSNs []string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "p@ssw0rd!",
				DBName:   "testdb",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=testuser password=p@ssw0rd! dbname=testdb sslmode=disable",
		},
		{
			name: "read replica falls back to primary port",
			config: DatabaseConfig{
				Host:     "primary",
				Port:     5432,
				ReadHost: "replica",
				User:     "user",
				Password: "pass",
				DBName:   "db",
				SSLMode:  "disable",
			},
			expected: "host=primary port=5432 user=user password=pass dbname=db sslmode=disable",
			readDSNs: []string{"host=replica port=5432 user=user password=pass dbname=db sslmode=disable"},
		},
		{
			name: "read replica with its own port",
			config: DatabaseConfig{
				Host:     "primary",
				Port:     5432,
				ReadHost: "replica",
				ReadPort: 6432,
				User:     "user",
				Password: "pass",
				DBName:   "db",
				SSLMode:  "disable",
			},
			expected: "host=primary port=5432 user=user password=pass dbname=db sslmode=disable",
			readDSNs: []string{"host=replica port=6432 user=user password=pass dbname=db sslmode=disable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
			assert.Equal(t, tt.readDSNs, tt.config.ReadDSNs())
		})
	}
}

// Environment variables loaded from .env files stay set for the process, so this runs last
func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	// Create temporary directory for env files
	envDir := filepath.Join(tmpDir, "env")
	err := os.MkdirAll(envDir, 0750)
	require.NoError(t, err)

	envFile := filepath.Join(envDir, ".env")
	envContent := `FF_LEDGER_DEBUG=true
FF_LEDGER_DATABASE_HOST=env-host
FF_LEDGER_DATABASE_PORT=3306
FF_LEDGER_DATABASE_USER=env-user
FF_LEDGER_DATABASE_PASSWORD=env-pass
FF_LEDGER_DATABASE_DBNAME=env-db
FF_LEDGER_DATABASE_SSLMODE=require
`
	err = os.WriteFile(envFile, []byte(envContent), 0600)
	require.NoError(t, err)

	// A per-service file overrides the shared one
	err = os.WriteFile(filepath.Join(envDir, ".env.api.local"), []byte("FF_LEDGER_DATABASE_DBNAME=api-db\n"), 0600)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, key := range []string{"DEBUG", "DATABASE_HOST", "DATABASE_PORT", "DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_DBNAME", "DATABASE_SSLMODE"} {
			_ = os.Unsetenv("FF_LEDGER_" + key)
		}
	})

	configPath := writeConfig(t, `
debug: false
database:
  host: file-host
  port: 5432
  user: file-user
  password: file-pass
  dbname: file-db
  sslmode: disable
`)

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "env-user", cfg.Database.User)
	assert.Equal(t, "env-pass", cfg.Database.Password)
	assert.Equal(t, "api-db", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
}
