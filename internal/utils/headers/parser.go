package headers

import (
	"fmt"
	"net/http"
	"strings"
)

// ParseHeaders converts "Key: Value" strings into a header set. Repeated
// keys accumulate values.
func ParseHeaders(h []string) (http.Header, error) {
	out := make(http.Header)
	for _, hdr := range h {
		parts := strings.SplitN(hdr, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Key: Value\"", hdr)
		}
		out.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	return out, nil
}

// Flatten returns the first value of every header, as request builders
// taking a map expect.
func Flatten(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			m[k] = v[0]
		}
	}
	return m
}
