// Package ctxutil carries per-query tracing values on a context: the
// request ID and client IP set by the HTTP layer, and the dataset version
// the resolver answered from. The logger copies all three onto records.
package ctxutil

import "context"

type key int

const (
	requestIDKey key = iota
	clientIPKey
	datasetVersionKey
)

func stringValue(ctx context.Context, k key) string {
	s, _ := ctx.Value(k).(string)
	return s
}

// WithRequestID tags ctx with the request ID from the X-Request-ID header
// or a generated one.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID and whether one is set.
func GetRequestID(ctx context.Context) (string, bool) {
	id := stringValue(ctx, requestIDKey)
	return id, id != ""
}

// WithClientIP tags ctx with the caller's address. It is the key for
// per-client rate limiting.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// GetClientIP returns the client IP, or "".
func GetClientIP(ctx context.Context) string {
	return stringValue(ctx, clientIPKey)
}

// WithDatasetVersion tags ctx with the version of the snapshot serving the
// query, so log lines from later stages can be tied to one dataset.
func WithDatasetVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, datasetVersionKey, version)
}

// GetDatasetVersion returns the dataset version, or "".
func GetDatasetVersion(ctx context.Context) string {
	return stringValue(ctx, datasetVersionKey)
}

// Attrs returns the tracing values set on ctx as alternating key/value
// pairs, in a fixed order. Unset values are omitted.
func Attrs(ctx context.Context) []string {
	var out []string
	for _, kv := range []struct {
		name string
		k    key
	}{
		{"request_id", requestIDKey},
		{"client_ip", clientIPKey},
		{"dataset_version", datasetVersionKey},
	} {
		if v := stringValue(ctx, kv.k); v != "" {
			out = append(out, kv.name, v)
		}
	}
	return out
}
