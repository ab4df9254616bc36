// Package probe checks a running deployment from the outside. The checks
// are derived from the manifest: ports that force HTTPS must redirect,
// TLS ports must complete a handshake and answer HTTP, plain HTTP ports
// must answer, and the metrics endpoint must serve the Prometheus text
// format.
//
// Every result is also recorded in a Prometheus registry owned by the
// [Prober], so a long-running watch can itself be scraped.
package probe
