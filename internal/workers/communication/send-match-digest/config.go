// internal/workers/communication/send-match-digest/config.go
package sendmatchdigest

import "time"

type Config struct {
	Timeout          time.Duration
	EmailEnabled     bool
	FromEmail        string
	TopN             int
	AlertsEnabled    bool
	CoverageTopicARN string
	DedupeTTL        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: true,
		FromEmail:    "matches@gradmatch.example",
		TopN:         3,
		DedupeTTL:    24 * time.Hour,
	}
}
