package redis

import (
	"fmt"
	"strings"
)

// DefaultKeyPrefix namespaces every key when no prefix is configured.
const DefaultKeyPrefix = "cg"

// Keyspace builds the namespaced keys. The zero value uses DefaultKeyPrefix.
type Keyspace struct {
	prefix string
}

func NewKeyspace(prefix string) Keyspace {
	return Keyspace{prefix: strings.Trim(strings.TrimSpace(prefix), ":")}
}

// RateLimitKey holds one fixed-window counter.
func (k Keyspace) RateLimitKey(scope string) string {
	return k.join("rate_limit", scope)
}

// AccessSessionKey holds the refresh token bound to an access token jti.
func (k Keyspace) AccessSessionKey(accessID string) string {
	return k.join("session", "access", accessID)
}

// CacheKey addresses one cached snapshot of tab for a scope at a generation.
// Scopes are compared case-insensitively, like owner emails.
func (k Keyspace) CacheKey(tab string, generation int64, scope string) string {
	return k.join("cache", tab, fmt.Sprintf("g%d", generation), strings.ToLower(scope))
}

// GenerationKey holds the write counter of a tab.
func (k Keyspace) GenerationKey(tab string) string {
	return k.join("generation", tab)
}

// FilterSessionKey stores the persisted filter selection of one session.
func (k Keyspace) FilterSessionKey(sessionID string) string {
	return k.join("filters", sessionID)
}

// LockKey names a distributed lock.
func (k Keyspace) LockKey(name string) string {
	return k.join("lock", name)
}

func (k Keyspace) join(parts ...string) string {
	prefix := k.prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
