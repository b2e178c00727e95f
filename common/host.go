package common

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// HostFromURL derives the origin host of a page or initiator URL. Scheme,
// credentials, path, query and fragment are dropped; the port is kept.
// Internationalized names are converted to their ASCII form so the same site
// always maps to the same origin key. Input that doesn't parse as a URL is
// returned trimmed and lower cased.
func HostFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	host := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Host
	} else if _, rest, found := strings.Cut(raw, "://"); found {
		host, _, _ = strings.Cut(rest, "/")
		if at := strings.LastIndex(host, "@"); at >= 0 {
			host = host[at+1:]
		}
	}
	return normalizeHost(strings.ToLower(host))
}

func normalizeHost(host string) string {
	name, port, err := net.SplitHostPort(host)
	if err != nil {
		name, port = host, ""
	}
	if ascii, err := idna.Lookup.ToASCII(name); err == nil && ascii != "" {
		name = ascii
	}
	if port == "" {
		return name
	}
	return net.JoinHostPort(name, port)
}
