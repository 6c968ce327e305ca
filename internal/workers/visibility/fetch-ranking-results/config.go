// internal/workers/visibility/fetch-ranking-results/config.go
package fetchrankingresults

import "time"

type Config struct {
	Timeout             time.Duration
	CacheTTL            time.Duration
	DefaultLookbackDays int
	MaxLookbackDays     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             30 * time.Second,
		CacheTTL:            5 * time.Minute,
		DefaultLookbackDays: 7,
		MaxLookbackDays:     90,
	}
}
