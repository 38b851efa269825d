package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	switch environment {
	case "development", "staging", "local":
		prefix = "staging"
	case "test":
		prefix = "test"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyEventTotals is the all-time per-event counter hash
func (kb *KeyBuilder) KeyEventTotals() string {
	return kb.BuildKey(KeyEventTotals)
}

// KeyEventDaily is the per-event counter hash for one day (YYYY-MM-DD)
func (kb *KeyBuilder) KeyEventDaily(date string) string {
	return kb.BuildKey(fmt.Sprintf(KeyEventDaily, date))
}
