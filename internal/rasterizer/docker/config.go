package docker

import (
	"time"
)

// Config holds the configuration for the container sandbox.
type Config struct {
	// Image must provide wkhtmltoimage on its PATH.
	Image string
	// MemoryLimit is the maximum amount of memory a container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout bounds a single export.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers to maintain.
	PoolSize int
}

// DefaultConfig provides defaults for a wkhtmltoimage sandbox.
func DefaultConfig() Config {
	return Config{
		Image: "surnet/alpine-wkhtmltopdf:3.20.2-0.12.6-full",
		// rendering a page needs more headroom than a shell
		MemoryLimit: 256 * 1024 * 1024,
		CPULimit:    1,
		Timeout:     20 * time.Second,
		PoolSize:    2,
	}
}
