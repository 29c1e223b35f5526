// internal/workers/data-access/search-program-catalog/config.go
package searchprogramcatalog

import "time"

type Config struct {
	Timeout     time.Duration
	DefaultSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		DefaultSize: 200,
	}
}
