// internal/workers/selection/persist-match-selection/config.go
package persistmatchselection

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
