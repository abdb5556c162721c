package courier

import (
	"fmt"
	"time"
)

const (
	DefaultMaxRetries    = 5
	DefaultRetryDelay    = 200 * time.Millisecond
	DefaultMaxRetryDelay = 5 * time.Second
)

// Config controls delivery retries. A failed delivery is retried up to
// MaxRetries times, doubling the delay from RetryDelay up to MaxRetryDelay.
type Config struct {
	MaxRetries    int           `mapstructure:"max_retries"     yaml:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"     yaml:"retry_delay"`
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay" yaml:"max_retry_delay"`
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry_delay must be positive")
	}
	if c.MaxRetryDelay < c.RetryDelay {
		return fmt.Errorf("max_retry_delay must be at least retry_delay")
	}
	return nil
}

// delay returns the wait before retry attempt n, counting from 1.
func (c Config) delay(n int) time.Duration {
	d := c.RetryDelay
	for i := 1; i < n && d < c.MaxRetryDelay; i++ {
		d *= 2
	}
	return min(d, c.MaxRetryDelay)
}
