// Package sequencer encodes the environment contract of the KZG ceremony
// sequencer: which variables the service reads, whether they come from the
// manifest's inline env or from platform secrets, how their values are
// parsed, and what the service falls back to when they are absent.
//
// The sequencer's own behaviour (lobby, contribution verification,
// deadlines) lives in the service. This package only checks that a
// manifest supplies what the service will look for.
package sequencer
