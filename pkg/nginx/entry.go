package nginx

import (
	"time"
)

// Entry is a single parsed access-log line in the nginx ingress format.
// Numeric fields that carry "-" in the raw log are nil.
type Entry struct {
	RemoteAddr string    `json:"remote_addr" yaml:"remote_addr"`
	TimeLocal  string    `json:"time_local" yaml:"time_local"`
	Time       time.Time `json:"time_utc" yaml:"time_utc"`

	Method string `json:"method" yaml:"method"`
	URI    string `json:"uri" yaml:"uri"`
	Path   string `json:"path" yaml:"path"`
	Query  string `json:"query,omitempty" yaml:"query,omitempty"`
	Proto  string `json:"proto" yaml:"proto"`

	Status        *int   `json:"status" yaml:"status"`
	BodyBytesSent *int64 `json:"body_bytes_sent" yaml:"body_bytes_sent"`

	HTTPReferer   string `json:"http_referer" yaml:"http_referer"`
	HTTPUserAgent string `json:"http_user_agent" yaml:"http_user_agent"`

	RequestLength *int64   `json:"request_length" yaml:"request_length"`
	RequestTime   *float64 `json:"request_time" yaml:"request_time"`

	UpstreamName           string   `json:"upstream_name" yaml:"upstream_name"`
	UpstreamAlternative    string   `json:"upstream_alternative" yaml:"upstream_alternative"`
	UpstreamAddr           string   `json:"upstream_addr" yaml:"upstream_addr"`
	UpstreamResponseLength *int64   `json:"upstream_response_length" yaml:"upstream_response_length"`
	UpstreamResponseTime   *float64 `json:"upstream_response_time" yaml:"upstream_response_time"`
	// UpstreamStatusRaw keeps the original token; UpstreamStatus is set
	// only when the token is all digits.
	UpstreamStatus    *int   `json:"upstream_status" yaml:"upstream_status"`
	UpstreamStatusRaw string `json:"upstream_status_raw,omitempty" yaml:"upstream_status_raw,omitempty"`

	RequestID string `json:"request_id" yaml:"request_id"`

	QueryKeysCount int `json:"query_keys_count" yaml:"query_keys_count"`
}

// TimeUTC renders the normalized timestamp the way the CSV export expects,
// RFC3339 with a literal Z suffix.
func (e *Entry) TimeUTC() string {
	if e.Time.IsZero() {
		return ""
	}
	return e.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
}

// StatusValue returns the HTTP status or -1 when it was unparseable.
func (e *Entry) StatusValue() int {
	if e.Status == nil {
		return -1
	}
	return *e.Status
}
