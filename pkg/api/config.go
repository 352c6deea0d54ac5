package api

import "time"

// Config configures the HTTP API.
type Config struct {
	// Port is the TCP port to listen on (default: 5000)
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`

	// MaxBodyBytes limits request bodies (default: 32MiB). Uploads are
	// base64 inside JSON, so the largest file is about 3/4 of this.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"omitempty,min=1"`

	// PageSize is the number of records per GET /files page (default: 20)
	PageSize int `mapstructure:"page_size" validate:"omitempty,min=1"`

	// ReadTimeout bounds reading a whole request (default: 1m)
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout bounds writing a response (default: 5m)
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout closes idle keep-alive connections (default: 2m)
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// RateLimit throttles requests per client address.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client; 0 disables limiting
	RequestsPerSecond uint `mapstructure:"requests_per_second"`

	// Burst is the bucket size (default: RequestsPerSecond)
	Burst uint `mapstructure:"burst"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 32 << 20
	}
	if c.PageSize == 0 {
		c.PageSize = 20
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = time.Minute
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 2 * time.Minute
	}
}
