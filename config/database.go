package config

import "time"

// RedisConfig contains the session store connection configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// RecordTTL is the safety-net expiry on session records. Session
	// validity is governed by lastActivityTime; the TTL only reaps
	// abandoned keys.
	RecordTTL time.Duration `env:"RECORD_TTL" envDefault:"24h"`
}

// SessionConfig contains session lifecycle tuning.
type SessionConfig struct {
	// FreshnessWindow is how recently a canonical record must have been
	// active for a concurrent login to be parked for arbitration instead of
	// overwriting it.
	FreshnessWindow time.Duration `env:"FRESHNESS_WINDOW" envDefault:"15m"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.FreshnessWindow <= 0 {
		s.FreshnessWindow = 15 * time.Minute
	}
}
