package service

import (
	"net/url"
	"regexp"
	"strings"
)

var endpointSuffix = regexp.MustCompile(`(?i)/(wp-json(/.*)?|xmlrpc\.php|wp-admin(/.*)?|wp-login\.php)$`)

// NormalizeSiteURL reduces whatever the user typed to the site root, the same
// way for both protocols.
func NormalizeSiteURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}

	if parsed, err := url.Parse(u); err == nil {
		parsed.RawQuery = ""
		parsed.Fragment = ""
		u = parsed.String()
	}

	u = strings.TrimRight(u, "/")
	for {
		trimmed := strings.TrimRight(endpointSuffix.ReplaceAllString(u, ""), "/")
		if trimmed == u {
			break
		}
		u = trimmed
	}
	return u
}

func restEndpoint(base, path string) string {
	return NormalizeSiteURL(base) + "/wp-json/wp/v2" + path
}

func xmlrpcEndpoint(base string) string {
	return NormalizeSiteURL(base) + "/xmlrpc.php"
}
