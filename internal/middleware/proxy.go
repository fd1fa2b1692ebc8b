package middleware

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

const proxyTrustedKey = "proxy_trusted"

// TrustProxies marks requests whose direct peer is one of proxies (IPs or
// CIDRs). Only marked requests may use X-Forwarded-Proto and X-Forwarded-Host.
// Entries that do not parse are ignored.
func TrustProxies(proxies []string) gin.HandlerFunc {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if p, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(raw); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return func(c *gin.Context) {
		if len(prefixes) > 0 {
			if addr, err := netip.ParseAddr(c.RemoteIP()); err == nil {
				addr = addr.Unmap()
				for _, p := range prefixes {
					if p.Contains(addr) {
						c.Set(proxyTrustedKey, true)
						break
					}
				}
			}
		}
		c.Next()
	}
}

// ProxyTrusted reports whether TrustProxies accepted the request's peer.
func ProxyTrusted(c *gin.Context) bool {
	return c.GetBool(proxyTrustedKey)
}
