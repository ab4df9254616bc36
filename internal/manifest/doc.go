// Package manifest defines the deployment descriptor consumed by the
// hosting platform.
//
// A [Manifest] describes how the service is deployed: the container image,
// the graceful-shutdown contract given to the process supervisor, persistent
// mounts, runtime environment, secrets referenced by name and digest,
// network ingress rules and the metrics scrape target. The descriptor is
// read once at release time and never mutated by the running process.
//
// Manifests are stored as TOML (the platform's native format) and can be
// converted to and from YAML and JSON.
package manifest
