// Package labels provides consistent labeling for everything seqdeploy
// creates: Hetzner Cloud firewalls and volumes, rendered Kubernetes
// objects, and local containers.
//
// All labels use the seqdeploy.io domain prefix and follow a builder
// pattern for constructing label sets with the app name, component and
// manager identification.
package labels
