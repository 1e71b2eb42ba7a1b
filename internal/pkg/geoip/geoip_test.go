package geoip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/config"
	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/testsupport"
)

func TestIsPublicIP(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		expected bool
	}{
		{name: "public ipv4", ip: "8.8.8.8", expected: true},
		{name: "public ipv4 cloudflare", ip: "1.1.1.1", expected: true},
		{name: "public ipv6", ip: "2606:4700:4700::1111", expected: true},

		{name: "rfc1918 10/8", ip: "10.1.2.3", expected: false},
		{name: "rfc1918 172.16/12", ip: "172.16.0.1", expected: false},
		{name: "rfc1918 192.168/16", ip: "192.168.1.1", expected: false},
		{name: "loopback", ip: "127.0.0.1", expected: false},
		{name: "ipv6 loopback", ip: "::1", expected: false},
		{name: "link local", ip: "169.254.10.20", expected: false},
		{name: "ipv6 link local", ip: "fe80::1", expected: false},
		{name: "ipv6 unique local", ip: "fd00::1", expected: false},
		{name: "multicast", ip: "224.0.0.1", expected: false},
		{name: "unspecified", ip: "0.0.0.0", expected: false},

		{name: "empty string", ip: "", expected: false},
		{name: "garbage", ip: "not-an-ip", expected: false},
		{name: "truncated", ip: "10.0.0", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, geoip.IsPublicIP(tt.ip))
		})
	}
}

func TestResolveWithoutDatabase(t *testing.T) {
	cfg := &config.Config{GeoDBPath: ""}
	r := geoip.NewResolver(cfg, testsupport.GetLogger())
	defer r.Close()

	country, city := r.Resolve("8.8.8.8")
	assert.Empty(t, country)
	assert.Empty(t, city)
}

func TestResolveWithMissingDatabaseFile(t *testing.T) {
	cfg := &config.Config{GeoDBPath: "/nonexistent/GeoLite2-City.mmdb"}
	r := geoip.NewResolver(cfg, testsupport.GetLogger())
	defer r.Close()

	country, city := r.Resolve("8.8.8.8")
	assert.Empty(t, country)
	assert.Empty(t, city)
}
