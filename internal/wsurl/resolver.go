package wsurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Resolve converts a target into an absolute WebSocket URL.
//
// Targets that already carry a ws:// or wss:// scheme are returned
// unchanged. Anything else is treated as a path (optionally with a query
// string) relative to base, an http:// or https:// origin: the scheme is
// swapped to ws:/wss: and the path and query are appended verbatim.
func Resolve(target, base string) (string, error) {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		return target, nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	var scheme string
	switch u.Scheme {
	case "http":
		scheme = "ws"
	case "https":
		scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", base)
	}

	// Concatenate rather than url.JoinPath: the query string must pass
	// through byte-for-byte, including any pre-encoded characters.
	return scheme + "://" + u.Host + target, nil
}
