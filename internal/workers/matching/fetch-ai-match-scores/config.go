// internal/workers/matching/fetch-ai-match-scores/config.go
package fetchaimatchscores

import "time"

type Config struct {
	Timeout        time.Duration
	AttemptTimeout time.Duration
	MaxAttempts    int
	Concurrency    int
	CacheTTL       time.Duration
	BaseURL        string
	APIKey         string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        60 * time.Second,
		AttemptTimeout: 5 * time.Second,
		MaxAttempts:    3,
		Concurrency:    8,
		CacheTTL:       24 * time.Hour,
	}
}
