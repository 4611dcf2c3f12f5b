package geoip

import (
	"net/netip"

	"github.com/phuslu/iploc"
)

// Resolver maps an origin IP to an ISO country code using the embedded
// iploc database. No network calls, no external data files.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Country returns "Unknown" for unparsable, private, or unlocatable
// addresses; callers treat it as just another country code.
func (r *Resolver) Country(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "Unknown"
	}

	code := iploc.IPCountry(addr)
	if code == "" || code == "ZZ" {
		return "Unknown"
	}

	return code
}
