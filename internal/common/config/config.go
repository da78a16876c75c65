// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Store    StoreConfig             `mapstructure:"store"`
	Seed     SeedConfig              `mapstructure:"seed"`
	LLM      LLMConfig               `mapstructure:"llm"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Planner  PlannerConfig           `mapstructure:"planner"`
	AWS      AWSConfig               `mapstructure:"aws"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
	Index      string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects the embedded plant store used when Postgres is off.
type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

type SeedConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
}

// --- Garden Planner Sections ---

// LLMConfig configures the text completion endpoint.
type LLMConfig struct {
	Provider        string  `mapstructure:"provider"` // ollama | openai
	BaseURL         string  `mapstructure:"base_url"`
	Model           string  `mapstructure:"model"`
	APIKey          string  `mapstructure:"api_key"`
	Timeout         int     `mapstructure:"timeout"` // milliseconds
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	MaxRetries      int     `mapstructure:"max_retries"`
	BreakerFailures uint32  `mapstructure:"breaker_failures"`
	BreakerTimeout  int     `mapstructure:"breaker_timeout"` // milliseconds
}

type CacheConfig struct {
	TTL           int `mapstructure:"ttl"` // milliseconds
	Capacity      int `mapstructure:"capacity"`
	SweepInterval int `mapstructure:"sweep_interval"` // milliseconds, 0 disables
}

type PlannerConfig struct {
	SectionTimeout           int `mapstructure:"section_timeout"` // milliseconds
	StoreTimeout             int `mapstructure:"store_timeout"`   // milliseconds
	PersistTimeout           int `mapstructure:"persist_timeout"` // milliseconds
	MaxConcurrentSections    int `mapstructure:"max_concurrent_sections"`
	MaxConcurrentGenerations int `mapstructure:"max_concurrent_generations"`
	PlanTTL                  int `mapstructure:"plan_ttl"` // hours
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	SNS    struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig configures the OTLP span exporter. Spans are still
// created when disabled but never leave the process.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // host:port of the OTLP gRPC collector
	Insecure bool   `mapstructure:"insecure"`
}
