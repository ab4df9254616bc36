package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/util/labels"
	"github.com/kzgceremony/seqdeploy/internal/util/naming"
	"github.com/kzgceremony/seqdeploy/internal/util/ptr"
)

// Annotation keys written on rendered objects.
const (
	AnnotationHandlers   = "seqdeploy.io/handlers"
	AnnotationForceHTTPS = "seqdeploy.io/force-https"
	AnnotationScrape     = "prometheus.io/scrape"
	AnnotationScrapePort = "prometheus.io/port"
	AnnotationScrapePath = "prometheus.io/path"
)

// DefaultVolumeSize is requested for each claim when Options.VolumeSize is empty.
const DefaultVolumeSize = "10Gi"

// Options adjust rendering to the target cluster.
type Options struct {
	Namespace    string
	StorageClass string
	// VolumeSize is a resource quantity such as "10Gi".
	VolumeSize string
	// SecretName is the Secret holding the manifest's secret values.
	// Defaults to {app}-secrets.
	SecretName string
}

// Bundle is the complete set of rendered objects.
type Bundle struct {
	ConfigMap  *corev1.ConfigMap
	Deployment *appsv1.Deployment
	Service    *corev1.Service
	Claims     []*corev1.PersistentVolumeClaim
}

// Objects returns the bundle in apply order.
func (b *Bundle) Objects() []runtime.Object {
	out := []runtime.Object{b.ConfigMap}
	for _, c := range b.Claims {
		out = append(out, c)
	}
	return append(out, b.Deployment, b.Service)
}

// Render builds the Kubernetes objects for m.
func Render(m *manifest.Manifest, opts Options) (*Bundle, error) {
	size := opts.VolumeSize
	if size == "" {
		size = DefaultVolumeSize
	}
	quantity, err := resource.ParseQuantity(size)
	if err != nil {
		return nil, fmt.Errorf("invalid volume size %q: %w", size, err)
	}
	if opts.SecretName == "" {
		opts.SecretName = naming.Secret(m.App)
	}

	b := &Bundle{
		ConfigMap:  configMap(m, opts),
		Deployment: deployment(m, opts),
		Service:    service(m, opts),
	}
	for _, mnt := range m.Mounts {
		b.Claims = append(b.Claims, claim(m, mnt, quantity, opts))
	}
	return b, nil
}

// Objects renders m and returns the objects in apply order.
func Objects(m *manifest.Manifest, opts Options) ([]runtime.Object, error) {
	b, err := Render(m, opts)
	if err != nil {
		return nil, err
	}
	return b.Objects(), nil
}

// YAML renders m as a multi-document YAML stream.
func YAML(m *manifest.Manifest, opts Options) ([]byte, error) {
	objs, err := Objects(m, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, obj := range objs {
		data, err := yaml.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", obj.GetObjectKind().GroupVersionKind().Kind, err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

func objectMeta(m *manifest.Manifest, name, component string, opts Options) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: opts.Namespace,
		Labels:    labels.NewKubernetesBuilder(m.App).WithComponent(component).Build(),
	}
}

func selector(m *manifest.Manifest) map[string]string {
	return map[string]string{labels.KeyK8sName: m.App}
}

func configMap(m *manifest.Manifest, opts Options) *corev1.ConfigMap {
	data := make(map[string]string, len(m.Env))
	for k, v := range m.Env {
		data[k] = v
	}
	return &corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: objectMeta(m, naming.ConfigMap(m.App), "config", opts),
		Data:       data,
	}
}

func claim(m *manifest.Manifest, mnt manifest.Mount, size resource.Quantity, opts Options) *corev1.PersistentVolumeClaim {
	pvc := &corev1.PersistentVolumeClaim{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: objectMeta(m, naming.Claim(mnt.Source), "storage", opts),
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: size},
			},
		},
	}
	if opts.StorageClass != "" {
		pvc.Spec.StorageClassName = ptr.String(opts.StorageClass)
	}
	return pvc
}

func deployment(m *manifest.Manifest, opts Options) *appsv1.Deployment {
	podAnnotations := map[string]string{}
	if m.Metrics != nil {
		podAnnotations[AnnotationScrape] = "true"
		podAnnotations[AnnotationScrapePort] = strconv.Itoa(m.Metrics.Port)
		podAnnotations[AnnotationScrapePath] = m.Metrics.Path
	}

	pod := corev1.PodSpec{
		Containers: []corev1.Container{container(m, opts)},
		OS:         &corev1.PodOS{Name: corev1.Linux},
	}
	if m.KillTimeout.Duration > 0 {
		pod.TerminationGracePeriodSeconds = ptr.Int64(int64(m.KillTimeout.Seconds()))
	}
	for _, mnt := range m.Mounts {
		pod.Volumes = append(pod.Volumes, corev1.Volume{
			Name: naming.Claim(mnt.Source),
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: naming.Claim(mnt.Source)},
			},
		})
	}

	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: objectMeta(m, m.App, "server", opts),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.Int32(1),
			// Volumes are ReadWriteOnce, so the old pod must stop before the new one starts.
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
			Selector: &metav1.LabelSelector{MatchLabels: selector(m)},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels:      labels.NewKubernetesBuilder(m.App).WithComponent("server").Build(),
					Annotations: podAnnotations,
				},
				Spec: pod,
			},
		},
	}
}

func container(m *manifest.Manifest, opts Options) corev1.Container {
	c := corev1.Container{
		Name:  naming.DNSLabel(m.App),
		Image: m.Build.Image,
	}

	for _, port := range m.InternalPorts() {
		c.Ports = append(c.Ports, corev1.ContainerPort{
			Name:          portName(port),
			ContainerPort: int32(port),
			Protocol:      protocolOf(m, port),
		})
	}
	if m.Metrics != nil {
		c.Ports = append(c.Ports, corev1.ContainerPort{
			Name:          "metrics",
			ContainerPort: int32(m.Metrics.Port),
			Protocol:      corev1.ProtocolTCP,
		})
	}

	if len(m.Env) > 0 {
		c.EnvFrom = []corev1.EnvFromSource{{
			ConfigMapRef: &corev1.ConfigMapEnvSource{
				LocalObjectReference: corev1.LocalObjectReference{Name: naming.ConfigMap(m.App)},
			},
		}}
	}
	for _, name := range m.SecretNames() {
		c.Env = append(c.Env, corev1.EnvVar{
			Name: name,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: opts.SecretName},
					Key:                  name,
				},
			},
		})
	}

	for _, mnt := range m.Mounts {
		c.VolumeMounts = append(c.VolumeMounts, corev1.VolumeMount{
			Name:      naming.Claim(mnt.Source),
			MountPath: mnt.Destination,
		})
	}

	if m.KillSignal != "" {
		signal := corev1.Signal(m.KillSignal)
		c.Lifecycle = &corev1.Lifecycle{StopSignal: &signal}
	}

	c.ReadinessProbe, c.LivenessProbe = probes(m)
	return c
}

// probes maps the first tcp check to a readiness probe and the first http
// check to a liveness probe.
func probes(m *manifest.Manifest) (readiness, liveness *corev1.Probe) {
	for _, svc := range m.Services {
		port := intstr.FromInt32(int32(svc.InternalPort))
		if readiness == nil && len(svc.TCPChecks) > 0 {
			chk := svc.TCPChecks[0]
			readiness = &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{TCPSocket: &corev1.TCPSocketAction{Port: port}},
			}
			applyTiming(readiness, chk.Interval, chk.Timeout, chk.GracePeriod, chk.RestartLimit)
		}
		if liveness == nil && len(svc.HTTPChecks) > 0 {
			chk := svc.HTTPChecks[0]
			path := chk.Path
			if path == "" {
				path = "/"
			}
			liveness = &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{HTTPGet: &corev1.HTTPGetAction{Path: path, Port: port}},
			}
			applyTiming(liveness, chk.Interval, chk.Timeout, chk.GracePeriod, chk.RestartLimit)
		}
	}
	return readiness, liveness
}

func applyTiming(p *corev1.Probe, interval, timeout, grace manifest.Duration, restartLimit int) {
	if s := int32(interval.Seconds()); s > 0 {
		p.PeriodSeconds = s
	}
	if s := int32(timeout.Seconds()); s > 0 {
		p.TimeoutSeconds = s
	}
	p.InitialDelaySeconds = int32(grace.Seconds())
	if restartLimit > 0 {
		p.FailureThreshold = int32(restartLimit)
	}
}

func service(m *manifest.Manifest, opts Options) *corev1.Service {
	var (
		ports    []corev1.ServicePort
		handlers []string
		forced   []string
	)
	for _, svc := range m.Services {
		proto := corev1.ProtocolTCP
		if svc.Protocol == manifest.ProtocolUDP {
			proto = corev1.ProtocolUDP
		}
		for _, p := range svc.Ports {
			ports = append(ports, corev1.ServicePort{
				Name:       fmt.Sprintf("port-%d", p.Port),
				Port:       int32(p.Port),
				TargetPort: intstr.FromInt32(int32(svc.InternalPort)),
				Protocol:   proto,
			})
			chain := make([]string, len(p.Handlers))
			for i, h := range p.Handlers {
				chain[i] = string(h)
			}
			handlers = append(handlers, fmt.Sprintf("%d=%s", p.Port, strings.Join(chain, ",")))
			if p.ForceHTTPS {
				forced = append(forced, strconv.Itoa(p.Port))
			}
		}
	}

	meta := objectMeta(m, m.App, "ingress", opts)
	meta.Annotations = map[string]string{AnnotationHandlers: strings.Join(handlers, ";")}
	if len(forced) > 0 {
		meta.Annotations[AnnotationForceHTTPS] = strings.Join(forced, ",")
	}

	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: meta,
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeLoadBalancer,
			Selector: selector(m),
			Ports:    ports,
		},
	}
}

func portName(port int) string {
	return fmt.Sprintf("svc-%d", port)
}

func protocolOf(m *manifest.Manifest, internal int) corev1.Protocol {
	for _, svc := range m.Services {
		if svc.InternalPort == internal && svc.Protocol == manifest.ProtocolUDP {
			return corev1.ProtocolUDP
		}
	}
	return corev1.ProtocolTCP
}
