package http

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient identifies callers whose origin cannot be determined
const UnknownClient = "unknown"

// IPConfig holds configuration for client identification
type IPConfig struct {
	TrustForwardedHeaders bool     // Honour X-Forwarded-For / X-Real-IP at all
	TrustedProxies        []string // CIDR ranges allowed to set those headers; empty = any peer
}

// ExtractClientID derives a best-effort client identifier from the request.
// Forwarding headers are easy to spoof when no proxy sits in front of the
// server, so the result must never be treated as an authenticated identity.
//
// Flow:
// 1. If headers are trusted for this peer, the first valid X-Forwarded-For entry
// 2. Then X-Real-IP
// 3. Then the socket address
// 4. Finally "unknown"
func ExtractClientID(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)

	if config != nil && config.TrustForwardedHeaders && headersTrusted(remoteIP, config.TrustedProxies) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, ip := range strings.Split(xff, ",") {
				ip = strings.TrimSpace(ip)
				if isValidIP(ip) {
					return ip
				}
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && isValidIP(xri) {
			return xri
		}
	}

	if remoteIP == "" {
		return UnknownClient
	}
	return remoteIP
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return ""
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func headersTrusted(remoteIP string, trustedProxies []string) bool {
	if len(trustedProxies) == 0 {
		return true
	}
	return isTrustedProxy(remoteIP, trustedProxies)
}

// isTrustedProxy checks if an IP address is within any of the trusted proxy CIDR ranges
func isTrustedProxy(ip string, trustedProxies []string) bool {
	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue // Skip invalid CIDR ranges
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}

// isValidIP checks if a string is a valid IPv4 or IPv6 address
func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
