// internal/workers/onboarding/advance-onboarding-step/config.go
package advanceonboardingstep

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
