// Package local runs a manifest's image in the local Docker engine.
//
// The container receives the inline environment plus secret values read
// from a local file, publishes every internal port and the metrics port on
// the loopback interface, and mounts one named Docker volume per manifest
// mount. A readiness check runs alongside the container; if it fails the
// container is stopped. Containers are removed on exit, including when the
// tool itself is killed.
package local
