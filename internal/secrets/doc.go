// Package secrets manages the [secrets] table of a manifest. The table maps
// each secret name to a short digest of its value so that a manifest can be
// reviewed and diffed without ever containing a credential. Values are read
// from a local YAML file, hashed, and discarded.
package secrets
