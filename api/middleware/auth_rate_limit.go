package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/api/responses"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
)

const maxRateLimitBody = 1 << 20

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for an auth surface.
// The key counter is per account: the "login" field of the body, or "email"
// when no login is sent.
type AuthRateLimitPolicy struct {
	name     string
	window   time.Duration
	ipLimit  int
	keyLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, keyLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:     strings.ToLower(strings.TrimSpace(name)),
		window:   window,
		ipLimit:  ipLimit,
		keyLimit: keyLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.keyLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

func (p AuthRateLimitPolicy) ipScope(ip string) string {
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p AuthRateLimitPolicy) accountScope(hash string) string {
	return fmt.Sprintf("account:%s:%s", p.normalizedName(), hash)
}

// AuthRateLimit enforces per-IP and per-account counters for auth endpoints.
// Counter failures fail closed with DEPENDENCY_ERROR.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			limiter := rateCheck{policy: policy, store: store, logg: logg}

			if ip := clientIP(r); policy.ipLimit > 0 && ip != "" {
				if !limiter.allow(ctx, w, "ip", policy.ipScope(ip), policy.ipLimit, map[string]any{"ip": ip}) {
					return
				}
			}

			if policy.keyLimit > 0 && r.Body != nil {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "corpo da requisição ilegível"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if account := normalizeAccount(extractAccount(body)); account != "" {
					hash := hashValue(account)
					if !limiter.allow(ctx, w, "account", policy.accountScope(hash), policy.keyLimit, map[string]any{"account_hash": hash}) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

type rateCheck struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

// allow counts the hit and writes the rejection itself when the request must
// stop here.
func (c rateCheck) allow(ctx context.Context, w http.ResponseWriter, kind, scope string, limit int, fields map[string]any) bool {
	allowed, count, err := c.store.FixedWindowAllow(ctx, scope, int64(limit), c.policy.window)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}
	if c.logg != nil {
		logFields := map[string]any{
			"scope":          kind,
			"policy":         c.policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(c.policy.window.Seconds()),
		}
		for k, v := range fields {
			logFields[k] = v
		}
		c.logg.Warn(c.logg.WithFields(ctx, logFields), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(c.policy.window)))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "muitas tentativas, tente novamente mais tarde"))
	return false
}

func retryAfterSeconds(window time.Duration) int {
	secs := int(window.Round(time.Second).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractAccount(payload []byte) string {
	var body struct {
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if strings.TrimSpace(body.Login) != "" {
		return body.Login
	}
	return body.Email
}

func normalizeAccount(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
