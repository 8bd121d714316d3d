/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an idle client's limiter is kept
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UploadLimiter rate limits uploads per client IP with a token bucket
type UploadLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	now     func() time.Time
	trusted []netip.Prefix
}

// NewUploadLimiter allows perMinute uploads per client with a burst of the
// same size. A non-positive perMinute disables limiting and returns nil.
// Clients are keyed by peer address; X-Forwarded-For is only read when the
// peer is one of trustedProxies.
func NewUploadLimiter(perMinute int, trustedProxies ...netip.Prefix) *UploadLimiter {
	if perMinute <= 0 {
		return nil
	}

	return &UploadLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		now:     time.Now,
		trusted: trustedProxies,
	}
}

// Allow reports whether key may upload now and consumes a token if so
func (l *UploadLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, k)
		}
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}

	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with a flash and a redirect home
func (l *UploadLimiter) Middleware() flamego.Handler {
	return func(c flamego.Context, s session.Session) {
		if l == nil {
			c.Next()
			return
		}

		if !l.Allow(limiterKey(c.Request().Request, l.trusted)) {
			logRateLimited(c, "/")
			SetErrorFlash(s, "Too many uploads, please wait a minute and try again")
			c.Redirect("/", http.StatusSeeOther)

			return
		}

		c.Next()
	}
}

// ParseTrustedProxies parses IP addresses and CIDR prefixes.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))

	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", errInvalidTrustedProxy, value)
			}

			prefixes = append(prefixes, prefix.Masked())

			continue
		}

		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errInvalidTrustedProxy, value)
		}

		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return prefixes, nil
}

// limiterKey returns the socket peer address, or the nearest untrusted hop of
// X-Forwarded-For when the peer is a trusted proxy.
func limiterKey(req *http.Request, trusted []netip.Prefix) string {
	peer := req.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !isTrustedProxy(addr, trusted) {
		return peer
	}

	hops := strings.Split(req.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}

		if !isTrustedProxy(hop, trusted) {
			return hop.Unmap().String()
		}
	}

	return peer
}

func isTrustedProxy(addr netip.Addr, trusted []netip.Prefix) bool {
	addr = addr.Unmap()

	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}
