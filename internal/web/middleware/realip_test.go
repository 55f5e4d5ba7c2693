package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		wantRemote string
		wantCtxIP  string
	}{
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "203.0.113.9:5555",
			headers:    map[string]string{"X-Real-IP": "10.1.1.1"},
			wantRemote: "203.0.113.9:5555",
			wantCtxIP:  "203.0.113.9",
		},
		{
			name:       "trusted proxy with X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.2:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			wantRemote: "198.51.100.7",
			wantCtxIP:  "198.51.100.7",
		},
		{
			name:       "trusted single ip with forwarded chain",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.8, 10.0.0.1"},
			wantRemote: "198.51.100.8",
			wantCtxIP:  "198.51.100.8",
		},
		{
			name:       "invalid header keeps remote address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.2:80",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			wantRemote: "10.0.0.2:80",
			wantCtxIP:  "10.0.0.2",
		},
		{
			name:       "ipv4 mapped proxy address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "[::ffff:10.0.0.3]:443",
			headers:    map[string]string{"X-Forwarded-For": "2001:db8::1"},
			wantRemote: "2001:db8::1",
			wantCtxIP:  "2001:db8::1",
		},
		{
			name:       "unparseable remote address",
			remoteAddr: "pipe",
			wantRemote: "pipe",
			wantCtxIP:  "pipe",
		},
		{
			name:       "untrusted source",
			trusted:    []string{"10.0.0.0/8", "garbage"},
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.8"},
			wantRemote: "192.0.2.1:1234",
			wantCtxIP:  "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var remote, ctxIP string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				remote = r.RemoteAddr
				ctxIP = core.CallerFromContext(r.Context()).ClientIP
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.wantRemote, remote)
			assert.Equal(t, tt.wantCtxIP, ctxIP)
		})
	}
}
