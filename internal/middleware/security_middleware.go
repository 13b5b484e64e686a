// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// SecurityHeaders sets the response headers that harden browsers against
// sniffing, framing and cross-site scripting. HSTS is only sent in production.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			h.Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			h.Set(constants.HeaderXXSSProtection, constants.XSSProtectionModeBlock)
			h.Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
			h.Set(constants.HeaderContentSecurityPolicy, constants.CSPPolicy)
			if production {
				h.Set(constants.HeaderStrictTransport, constants.StrictTransportMaxAge)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HPP guards against HTTP parameter pollution: a repeated query parameter
// keeps only its last value unless it is whitelisted.
func HPP(whitelist []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(whitelist))
	for _, name := range whitelist {
		allowed[name] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery == "" {
				next.ServeHTTP(w, r)
				return
			}

			q := r.URL.Query()
			changed := false
			for key, values := range q {
				if len(values) > 1 && !allowed[baseParam(key)] {
					q[key] = values[len(values)-1:]
					changed = true
				}
			}
			if changed {
				r.URL.RawQuery = q.Encode()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// baseParam strips an operator suffix such as price[gte].
func baseParam(key string) string {
	if i := strings.IndexByte(key, '['); i > 0 {
		return key[:i]
	}
	return key
}

// TrustedProxies lists the networks whose forwarding headers are believed.
type TrustedProxies []*net.IPNet

// ParseTrustedProxies parses CIDR blocks or single addresses.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	proxies := make(TrustedProxies, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			proxies = append(proxies, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		proxies = append(proxies, network)
	}
	return proxies, nil
}

func (p TrustedProxies) contains(ip net.IP) bool {
	for _, network := range p {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// forwardedClient returns the client address reported by a trusted peer, or
// "" when the peer is not a trusted proxy. X-Forwarded-For is read right to
// left and the first hop outside the trusted networks is the client.
func (p TrustedProxies) forwardedClient(r *http.Request) string {
	peer := net.ParseIP(remoteHost(r.RemoteAddr))
	if peer == nil || !p.contains(peer) {
		return ""
	}

	if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		hops := strings.Split(xff, ",")
		var ip net.IP
		for i := len(hops) - 1; i >= 0; i-- {
			ip = net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				return ""
			}
			if !p.contains(ip) {
				return ip.String()
			}
		}
		return ip.String()
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get(constants.HeaderXRealIP))); ip != nil {
		return ip.String()
	}
	return ""
}

// RealIP replaces RemoteAddr with the forwarded client address when the
// request came through one of the trusted proxies. Forwarding headers sent by
// anyone else are ignored.
func RealIP(proxies TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(proxies) > 0 {
				if ip := proxies.forwardedClient(r); ip != "" {
					r.RemoteAddr = ip
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the address of the client that sent the request. Behind
// RealIP this is the forwarded address from a trusted proxy.
func ClientIP(r *http.Request) string {
	return remoteHost(r.RemoteAddr)
}

func remoteHost(addr string) string {
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ip
}

// isExemptedPath returns true if the path should be exempted from
// rate limiting (health checks, static assets).
func isExemptedPath(path string) bool {
	exemptPrefixes := []string{
		constants.HealthPath,
		constants.VersionPath,
		"/img/",
		"/css/",
		"/js/",
		"/favicon.ico",
	}

	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
