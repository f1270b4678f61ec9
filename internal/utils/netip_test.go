package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr only", "203.0.113.7:5123", nil, false, "203.0.113.7"},
		{"headers ignored without trust", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "198.51.100.1"}, false, "10.0.0.1"},
		{"cloudflare header first", "10.0.0.1:80", map[string]string{
			"CF-Connecting-IP": "198.51.100.2",
			"X-Forwarded-For":  "198.51.100.1",
		}, true, "198.51.100.2"},
		{"left-most forwarded for", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, true, "198.51.100.1"},
		{"real ip fallback", "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.3"}, true, "198.51.100.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.7", "203.0.113.7"},
		{"::ffff:203.0.113.7", "203.0.113.7"},
		{"2001:db8:1:2:aaaa:bbbb:cccc:dddd", "2001:db8:1:2::/64"},
		{"2001:db8:1:2::1", "2001:db8:1:2::/64"},
		{"not-an-ip", "not-an-ip"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ClientKey(tt.in); got != tt.want {
				t.Errorf("ClientKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.4 ", "", "garbage"})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.168.1.4", true},
		{"192.168.1.5", false},
		{"nope", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("matcher built from nil should be empty")
	}
}
