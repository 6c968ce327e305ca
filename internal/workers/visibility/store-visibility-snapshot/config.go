// internal/workers/visibility/store-visibility-snapshot/config.go
package storevisibilitysnapshot

import "time"

type Config struct {
	Timeout       time.Duration
	SnapshotIndex string
	CacheTTL      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		SnapshotIndex: "visibility-snapshots",
		CacheTTL:      15 * time.Minute,
	}
}
