package labels

import "maps"

// Standard label keys.
const (
	// KeyApp identifies which app a resource belongs to
	KeyApp = "seqdeploy.io/app"

	// KeyComponent identifies what part of the deployment a resource is
	KeyComponent = "seqdeploy.io/component"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "seqdeploy.io/managed-by"

	// KeyVolume carries the mount source a volume was created for
	KeyVolume = "seqdeploy.io/volume"
)

// Kubernetes recommended keys, set on rendered objects.
const (
	KeyK8sName      = "app.kubernetes.io/name"
	KeyK8sComponent = "app.kubernetes.io/component"
	KeyK8sManagedBy = "app.kubernetes.io/managed-by"
)

// Component values
const (
	ComponentFirewall = "firewall"
	ComponentVolume   = "volume"
	ComponentServer   = "server"
	ComponentLocal    = "local"
)

// ManagedBySeqdeploy is the only manager value.
const ManagedBySeqdeploy = "seqdeploy"

// LabelBuilder provides a fluent interface for building resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the app name pre-set.
func NewLabelBuilder(app string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyApp:       app,
			KeyManagedBy: ManagedBySeqdeploy,
		},
	}
}

// NewKubernetesBuilder creates a builder using the app.kubernetes.io keys.
func NewKubernetesBuilder(app string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyK8sName:      app,
			KeyK8sManagedBy: ManagedBySeqdeploy,
		},
	}
}

// WithComponent adds a component label.
func (lb *LabelBuilder) WithComponent(component string) *LabelBuilder {
	if _, k8s := lb.labels[KeyK8sName]; k8s {
		lb.labels[KeyK8sComponent] = component
	} else {
		lb.labels[KeyComponent] = component
	}
	return lb
}

// WithVolume records the mount source a volume belongs to.
func (lb *LabelBuilder) WithVolume(source string) *LabelBuilder {
	lb.labels[KeyVolume] = source
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	maps.Copy(lb.labels, extra)
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	return maps.Clone(lb.labels)
}

// SelectorForApp returns a label selector string for all resources of an app.
func SelectorForApp(app string) string {
	return KeyApp + "=" + app
}
