// internal/workers/visibility/build-dashboard-response/config.go
package builddashboardresponse

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	DefaultStep  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultLimit: 20,
		DefaultStep:  10,
	}
}
