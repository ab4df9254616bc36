// Package config holds the tool's own settings: credentials for the
// platform APIs, the release bucket, and the timeouts and retry knobs used
// by every long-running operation. Values are read from the environment.
//
// Every variable may be given with the SEQDEPLOY_ prefix. Credentials also
// fall back to their conventional unprefixed names (HCLOUD_TOKEN,
// S3_ACCESS_KEY, ...), so an existing shell setup keeps working.
package config
