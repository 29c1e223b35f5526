// internal/workers/data-access/load-university-catalog/config.go
package loaduniversitycatalog

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		CacheTTL: 15 * time.Minute,
	}
}
