// internal/workers/matching/generate-university-matches/config.go
package generateuniversitymatches

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
