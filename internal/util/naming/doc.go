// Package naming provides consistent names for the resources seqdeploy
// creates from a manifest.
//
// Cloud resources follow the pattern {app}-{type}. Kubernetes object names
// must be DNS-1123 labels, so mount sources such as kzg_ceremony_data are
// lowered and their underscores replaced.
package naming
