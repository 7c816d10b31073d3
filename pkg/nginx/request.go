package nginx

import (
	"net/url"
	"strings"
)

// SplitRequest breaks a raw request line like "GET /path?x=1 HTTP/2.0" into
// method, uri, path, query string, and protocol. Absolute URLs (seen when
// clients send proxy-style requests) are split with a full URL parse.
// Missing parts come back as empty strings.
func SplitRequest(req string) (method, uri, path, query, proto string) {
	parts := strings.Fields(req)
	if len(parts) > 0 {
		method = parts[0]
	}
	if len(parts) > 1 {
		uri = parts[1]
	}
	if len(parts) > 2 {
		proto = parts[2]
	}

	path = uri
	if uri != "" && strings.Contains(uri, "://") {
		if u, err := url.Parse(uri); err == nil {
			path = u.Path
			query = u.RawQuery
		}
	} else if i := strings.Index(uri, "?"); i >= 0 {
		path = uri[:i]
		query = uri[i+1:]
	}
	return method, uri, path, query, proto
}

// countQueryKeys counts distinct query parameters that carry a value.
// Bare keys without a value are ignored, and a query string that fails
// to parse counts as zero.
func countQueryKeys(query string) int {
	if query == "" {
		return 0
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return 0
	}
	n := 0
	for _, vs := range values {
		for _, v := range vs {
			if v != "" {
				n++
				break
			}
		}
	}
	return n
}
