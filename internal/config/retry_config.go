package config

import (
	"time"
)

// RetrySettings is the environment-facing shape of a retry.Policy.
type RetrySettings struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ScrapeRetry returns the fixed-delay schedule used by the keyword scraper.
func (c Config) ScrapeRetry() RetrySettings {
	delay := c.ScrapeRetryDelay
	if c.IsTest() {
		delay = 10 * time.Millisecond
	}
	return RetrySettings{
		MaxAttempts:  c.ScrapeMaxAttempts,
		InitialDelay: delay,
		MaxDelay:     delay,
		Multiplier:   1,
	}
}

// AIRetry returns backoff settings for model and embedding calls.
// In test environments it uses much shorter delays.
func (c Config) AIRetry() RetrySettings {
	if c.IsTest() {
		return RetrySettings{MaxAttempts: 2, InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2}
	}
	return RetrySettings{
		MaxAttempts:  c.AIBackoffMaxAttempts,
		InitialDelay: c.AIBackoffInitialInterval,
		MaxDelay:     c.AIBackoffMaxInterval,
		Multiplier:   c.AIBackoffMultiplier,
	}
}
