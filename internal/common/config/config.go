// internal/common/config/config.go
package config

import (
	"fmt"

	"gradmatch-workers/internal/matching"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
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
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	SSLEnabled   bool     `mapstructure:"ssl_enabled"`
	URL          string   `mapstructure:"url"` // Single URL for backwards compatibility
	ProgramIndex string   `mapstructure:"program_index"`
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
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds Redis TTLs in seconds.
type CacheConfig struct {
	CatalogTTL int `mapstructure:"catalog_ttl"`
	ProfileTTL int `mapstructure:"profile_ttl"`
	AIScoreTTL int `mapstructure:"ai_score_ttl"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	AIScoring struct {
		BaseURL     string `mapstructure:"base_url"`
		APIKey      string `mapstructure:"api_key"`
		Timeout     int    `mapstructure:"timeout"` // milliseconds, per attempt
		MaxAttempts int    `mapstructure:"max_attempts"`
		Concurrency int    `mapstructure:"concurrency"`
	} `mapstructure:"ai_scoring"`
}

// MatchingConfig tunes the match engine. Zero values keep the engine defaults.
type MatchingConfig struct {
	Weights struct {
		GPA       float64 `mapstructure:"gpa"`
		Research  float64 `mapstructure:"research"`
		Location  float64 `mapstructure:"location"`
		Financial float64 `mapstructure:"financial"`
		CV        float64 `mapstructure:"cv"`
		AI        float64 `mapstructure:"ai"`
	} `mapstructure:"weights"`
	ReachAdmissionRate   float64 `mapstructure:"reach_admission_rate"`
	ReachScore           float64 `mapstructure:"reach_score"`
	SafetyScore          float64 `mapstructure:"safety_score"`
	SafetyAdmissionRate  float64 `mapstructure:"safety_admission_rate"`
	DefaultAdmissionRate float64 `mapstructure:"default_admission_rate"`
	MinCount             int     `mapstructure:"min_count"`
	MaxResults           int     `mapstructure:"max_results"`
	ParallelThreshold    int     `mapstructure:"parallel_threshold"`
	FilterByDegree       *bool   `mapstructure:"filter_by_degree"`
}

// Policy overlays the configured values on matching.DefaultPolicy.
func (m MatchingConfig) Policy() matching.Policy {
	p := matching.DefaultPolicy()
	w := m.Weights
	if w.GPA+w.Research+w.Location+w.Financial+w.CV+w.AI > 0 {
		p.Weights = matching.Weights{
			GPA: w.GPA, Research: w.Research, Location: w.Location,
			Financial: w.Financial, CV: w.CV, AI: w.AI,
		}
	}
	setFloat(&p.ReachAdmissionRate, m.ReachAdmissionRate)
	setFloat(&p.ReachScore, m.ReachScore)
	setFloat(&p.SafetyScore, m.SafetyScore)
	setFloat(&p.SafetyAdmissionRate, m.SafetyAdmissionRate)
	setFloat(&p.DefaultAdmissionRate, m.DefaultAdmissionRate)
	if m.MinCount > 0 {
		p.MinCount = m.MinCount
	}
	if m.MaxResults > 0 {
		p.MaxResults = m.MaxResults
	}
	if m.ParallelThreshold > 0 {
		p.ParallelThreshold = m.ParallelThreshold
	}
	if m.FilterByDegree != nil {
		p.FilterByDegree = *m.FilterByDegree
	}
	return p
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

// NotificationConfig holds settings for the send-match-digest worker.
type NotificationConfig struct {
	Email struct {
		Enabled    bool   `mapstructure:"enabled"`
		FromEmail  string `mapstructure:"from_email"`
		DigestTopN int    `mapstructure:"digest_top_n"`
	} `mapstructure:"email"`
	Alerts struct {
		Enabled          bool   `mapstructure:"enabled"`
		CoverageTopicARN string `mapstructure:"coverage_topic_arn"`
	} `mapstructure:"alerts"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	HealthPort     int     `mapstructure:"health_port"`
	MetricsEnabled bool    `mapstructure:"metrics_enabled"`
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
