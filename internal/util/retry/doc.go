// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an operation until it succeeds, the
// attempt budget runs out, the context ends, or the operation returns an
// error wrapped with [Fatal]. It is used for Hetzner Cloud API calls,
// release store requests and readiness probes.
package retry
