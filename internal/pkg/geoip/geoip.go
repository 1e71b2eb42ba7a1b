// Package geoip resolves client IP addresses to a coarse location using an
// optional GeoLite2 database. Resolution never fails: any problem yields
// empty strings.
package geoip

import (
	"log/slog"
	"net"
	"os"

	"github.com/dgraph-io/ristretto"
	"github.com/oschwald/geoip2-golang"
	"github.com/pariz/gountries"

	"sitepulse/internal/config"
)

// cacheSize bounds the number of memoized lookups. Lookups against the mmdb
// are cheap but not free, and dashboards hammer the same handful of IPs.
const cacheSize = 10_000

type location struct {
	Country string
	City    string
}

// Resolver looks up the country and city for public IP addresses. A Resolver
// without a configured database is valid and resolves everything to empty
// strings.
type Resolver struct {
	reader    *geoip2.Reader
	cache     *ristretto.Cache
	countries *gountries.Query
	logger    *slog.Logger
}

// NewResolver opens the GeoLite2 database referenced by the configuration.
// A missing or unreadable database disables resolution rather than failing;
// geo data is an enrichment, never a requirement.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	r := &Resolver{
		countries: gountries.New(),
		logger:    logger,
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheSize * 10,
		MaxCost:     cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		logger.Warn("Failed to create geo lookup cache, lookups will not be memoized",
			slog.Any("error", err))
	} else {
		r.cache = cache
	}

	if cfg.GeoDBPath == "" {
		logger.Debug("GeoIP database path not configured - geo resolution disabled")
		return r
	}

	if _, err := os.Stat(cfg.GeoDBPath); os.IsNotExist(err) {
		logger.Info("GeoLite2 database not found - geo resolution disabled",
			slog.String("path", cfg.GeoDBPath),
			slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		return r
	} else if err != nil {
		logger.Warn("Error checking GeoLite2 database file",
			slog.String("path", cfg.GeoDBPath),
			slog.Any("error", err))
		return r
	}

	reader, err := geoip2.Open(cfg.GeoDBPath)
	if err != nil {
		logger.Error("Failed to open GeoLite2 database",
			slog.String("path", cfg.GeoDBPath),
			slog.Any("error", err))
		return r
	}

	r.reader = reader
	logger.Info("GeoLite2 database initialized",
		slog.String("path", cfg.GeoDBPath))
	return r
}

// Resolve returns the (country, city) for an IP address. Unconfigured
// database, unparseable input, non-public addresses and failed lookups all
// yield ("", "").
func (r *Resolver) Resolve(ip string) (string, string) {
	if r.reader == nil {
		return "", ""
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(ip); ok {
			loc := cached.(location)
			return loc.Country, loc.City
		}
	}

	loc := r.lookup(ip)
	if r.cache != nil {
		r.cache.Set(ip, loc, 1)
	}
	return loc.Country, loc.City
}

func (r *Resolver) lookup(ip string) location {
	if !IsPublicIP(ip) {
		return location{}
	}

	record, err := r.reader.City(net.ParseIP(ip))
	if err != nil {
		r.logger.Debug("GeoIP lookup failed", slog.String("ip", ip), slog.Any("error", err))
		return location{}
	}

	loc := location{
		Country: r.countryName(record.Country.IsoCode),
		City:    record.City.Names["en"],
	}
	return loc
}

// countryName expands an ISO 3166-1 alpha-2 code to its common English name,
// falling back to the code itself for anything gountries does not know.
func (r *Resolver) countryName(isoCode string) string {
	if isoCode == "" {
		return ""
	}
	country, err := r.countries.FindCountryByAlpha(isoCode)
	if err != nil {
		return isoCode
	}
	return country.Name.Common
}

// Close releases the underlying database handle.
func (r *Resolver) Close() {
	if r.reader != nil {
		r.reader.Close()
		r.reader = nil
	}
	if r.cache != nil {
		r.cache.Close()
	}
}

// IsPublicIP reports whether ip is a routable public address. Invalid input,
// private ranges (RFC1918 and friends), loopback, link-local, multicast and
// unspecified addresses are all non-public.
func IsPublicIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	switch {
	case parsed.IsUnspecified(),
		parsed.IsLoopback(),
		parsed.IsPrivate(),
		parsed.IsLinkLocalUnicast(),
		parsed.IsLinkLocalMulticast(),
		parsed.IsInterfaceLocalMulticast(),
		parsed.IsMulticast():
		return false
	}
	return true
}
