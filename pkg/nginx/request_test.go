package nginx

import "testing"

func TestSplitRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    string
		method string
		uri    string
		path   string
		query  string
		proto  string
	}{
		{"plain", "GET /healthz HTTP/1.1", "GET", "/healthz", "/healthz", "", "HTTP/1.1"},
		{"query", "POST /submit?a=1&b=2 HTTP/2.0", "POST", "/submit?a=1&b=2", "/submit", "a=1&b=2", "HTTP/2.0"},
		{"absolute", "GET http://example.com/p?k=v HTTP/1.1", "GET", "http://example.com/p?k=v", "/p", "k=v", "HTTP/1.1"},
		{"no proto", "GET /x", "GET", "/x", "/x", "", ""},
		{"method only", "PRI", "PRI", "", "", "", ""},
		{"empty", "", "", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, uri, path, query, proto := SplitRequest(tt.req)
			if method != tt.method || uri != tt.uri || path != tt.path || query != tt.query || proto != tt.proto {
				t.Errorf("SplitRequest(%q) = %q %q %q %q %q", tt.req, method, uri, path, query, proto)
			}
		})
	}
}

func TestCountQueryKeys(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"a=1", 1},
		{"a=1&b=2&c=3", 3},
		{"a=1&a=2", 1},
		{"a=1&bare", 1},
		{"%zz=broken", 0},
	}
	for _, tt := range tests {
		if got := countQueryKeys(tt.query); got != tt.want {
			t.Errorf("countQueryKeys(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
