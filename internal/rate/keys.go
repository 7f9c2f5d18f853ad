package rate

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultKeyPrefix namespaces limiter keys in a shared Redis.
const DefaultKeyPrefix = "gi"

// Emails are hashed so limiter keys do not leak addresses to anyone with
// read access to Redis.
func (l *Limiter) loginUserKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return l.config.KeyPrefix + ":al:" + hex.EncodeToString(sum[:16])
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.config.KeyPrefix + ":ali:" + ip
}
