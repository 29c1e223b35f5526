// internal/workers/profile/normalize-candidate-profile/config.go
package normalizecandidateprofile

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		CacheTTL: time.Hour,
	}
}
