package ai

import (
	"net/url"
	"strings"
)

// RootURL returns scheme://host[:port] for baseURL, dropping any path. Health
// and pairing endpoints live at the root. A bare host:port gets http://.
func RootURL(baseURL string) string {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + u.Host
}

// APIBaseURL returns the OpenAI-compatible base, always RootURL + "/v1".
func APIBaseURL(baseURL string) string {
	root := RootURL(baseURL)
	if root == "" {
		return ""
	}
	return root + "/v1"
}
