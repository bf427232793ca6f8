// internal/contextkeys/keys.go
package contextkeys

// contextKey is a private type so context keys cannot collide.
type contextKey string

const TraceIDKey contextKey = "trace_id"
const RunIDKey contextKey = "run_id"
const StoreDomainKey contextKey = "store_domain"
