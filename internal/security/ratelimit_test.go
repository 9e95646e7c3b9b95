package security

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Separate keys have separate buckets
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1)
	rl.Allow("stale")
	rl.Allow("fresh")

	rl.mu.Lock()
	rl.limiters["stale"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, "stale")
	assert.Contains(t, rl.limiters, "fresh")
}

func TestClientIP(t *testing.T) {
	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8", "192.168.1.10"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct client",
			remoteAddr: "192.0.2.1:54321",
			want:       "192.0.2.1",
		},
		{
			name:       "untrusted peer cannot spoof forwarded for",
			remoteAddr: "192.0.2.1:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "192.0.2.1",
		},
		{
			name:       "untrusted peer cannot spoof real ip",
			remoteAddr: "192.0.2.1:54321",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "192.0.2.1",
		},
		{
			name:       "trusted proxy uses rightmost untrusted hop",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.5, 10.0.0.2"},
			want:       "203.0.113.5",
		},
		{
			name:       "single trusted address",
			remoteAddr: "192.168.1.10:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "trusted proxy with real ip header",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name:       "chain of proxies only",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"},
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, resolver.ClientIP(req))
		})
	}
}

func TestClientIPWithoutTrustedProxies(t *testing.T) {
	var nilResolver *ClientIPResolver
	empty, err := NewClientIPResolver(nil)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:54321"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")

	assert.Equal(t, "192.0.2.1", empty.ClientIP(req))
	assert.Equal(t, "192.0.2.1", nilResolver.ClientIP(req))
}

func TestNewClientIPResolverRejectsGarbage(t *testing.T) {
	_, err := NewClientIPResolver([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = NewClientIPResolver([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestCreateSessionCookieSecureDetection(t *testing.T) {
	plain := httptest.NewRequest("GET", "/", nil)
	cookie := CreateSessionCookie(plain, "abc", time.Now().Add(time.Hour))
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)

	proxied := httptest.NewRequest("GET", "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, CreateSessionCookie(proxied, "abc", time.Now()).Secure)

	direct := httptest.NewRequest("GET", "/", nil)
	direct.TLS = &tls.ConnectionState{}
	assert.True(t, CreateDeleteCookie(direct).Secure)
	assert.Equal(t, -1, CreateDeleteCookie(direct).MaxAge)
}
