// Package hcloud manages the Hetzner Cloud resources an app needs outside
// the platform itself: a firewall admitting the manifest's public ports and
// one block volume per mount.
//
// Resources are reconciled with two generic operations. EnsureOperation is
// get-or-create with optional validation and in-place update; DeleteOperation
// is idempotent and retries while the resource is locked or the API is rate
// limiting. Timeouts and retry parameters come from config.Timeouts.
package hcloud
