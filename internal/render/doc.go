// Package render turns a manifest into the Kubernetes objects that run the
// same deployment on a cluster: a ConfigMap for inline env, a single-replica
// Deployment, a LoadBalancer Service for the public ports and one
// PersistentVolumeClaim per mount.
//
// Secret values are referenced by name from a Secret the operator creates
// out of band; they are never rendered.
package render
