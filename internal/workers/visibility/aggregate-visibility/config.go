// internal/workers/visibility/aggregate-visibility/config.go
package aggregatevisibility

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
