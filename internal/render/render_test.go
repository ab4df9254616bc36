package render

import (
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/util/labels"
)

var _ = Describe("Render", func() {
	var m *manifest.Manifest

	BeforeEach(func() {
		var err error
		m, err = manifest.Load(filepath.Join("..", "manifest", "testdata", "fly.toml"))
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with the ceremony manifest", func() {
		var b *Bundle

		BeforeEach(func() {
			var err error
			b, err = Render(m, Options{Namespace: "ceremony"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("puts inline env into the ConfigMap", func() {
			Expect(b.ConfigMap.Name).To(Equal("kzg-ceremony-sequencer-env"))
			Expect(b.ConfigMap.Namespace).To(Equal("ceremony"))
			Expect(b.ConfigMap.Data).To(Equal(m.Env))
			Expect(b.ConfigMap.Data).NotTo(HaveKey("GH_CLIENT_SECRET"))
		})

		It("runs a single replica that is recreated on rollout", func() {
			spec := b.Deployment.Spec
			Expect(*spec.Replicas).To(Equal(int32(1)))
			Expect(spec.Strategy.Type).To(Equal(appsv1.RecreateDeploymentStrategyType))
			Expect(spec.Selector.MatchLabels).To(HaveKeyWithValue(labels.KeyK8sName, m.App))
			Expect(spec.Template.Labels).To(HaveKeyWithValue(labels.KeyK8sName, m.App))
		})

		It("maps the shutdown contract", func() {
			pod := b.Deployment.Spec.Template.Spec
			Expect(*pod.TerminationGracePeriodSeconds).To(Equal(int64(30)))
			Expect(pod.OS).NotTo(BeNil())
			Expect(pod.OS.Name).To(Equal(corev1.Linux))

			c := pod.Containers[0]
			Expect(c.Lifecycle).NotTo(BeNil())
			Expect(*c.Lifecycle.StopSignal).To(Equal(corev1.Signal("SIGINT")))
		})

		It("wires image, ports, env and secrets into the container", func() {
			c := b.Deployment.Spec.Template.Spec.Containers[0]
			Expect(c.Image).To(Equal("ghcr.io/ethereum/kzg-ceremony-sequencer:latest"))

			Expect(c.Ports).To(ConsistOf(
				corev1.ContainerPort{Name: "svc-8080", ContainerPort: 8080, Protocol: corev1.ProtocolTCP},
				corev1.ContainerPort{Name: "metrics", ContainerPort: 9998, Protocol: corev1.ProtocolTCP},
			))

			Expect(c.EnvFrom).To(HaveLen(1))
			Expect(c.EnvFrom[0].ConfigMapRef.Name).To(Equal("kzg-ceremony-sequencer-env"))

			Expect(c.Env).To(HaveLen(5))
			for _, env := range c.Env {
				Expect(env.Value).To(BeEmpty())
				Expect(env.ValueFrom.SecretKeyRef.Name).To(Equal("kzg-ceremony-sequencer-secrets"))
				Expect(env.ValueFrom.SecretKeyRef.Key).To(Equal(env.Name))
			}
		})

		It("mounts one claim per volume", func() {
			Expect(b.Claims).To(HaveLen(1))
			Expect(b.Claims[0].Name).To(Equal("kzg-ceremony-data"))
			Expect(b.Claims[0].Spec.AccessModes).To(ConsistOf(corev1.ReadWriteOnce))
			storage := b.Claims[0].Spec.Resources.Requests[corev1.ResourceStorage]
			Expect(storage.String()).To(Equal(DefaultVolumeSize))

			c := b.Deployment.Spec.Template.Spec.Containers[0]
			Expect(c.VolumeMounts).To(ConsistOf(corev1.VolumeMount{Name: "kzg-ceremony-data", MountPath: "/data"}))
		})

		It("turns the tcp check into a readiness probe", func() {
			probe := b.Deployment.Spec.Template.Spec.Containers[0].ReadinessProbe
			Expect(probe).NotTo(BeNil())
			Expect(probe.TCPSocket.Port).To(Equal(intstr.FromInt32(8080)))
			Expect(probe.PeriodSeconds).To(Equal(int32(15)))
			Expect(probe.TimeoutSeconds).To(Equal(int32(2)))
			Expect(probe.InitialDelaySeconds).To(Equal(int32(1)))
		})

		It("annotates the pod for Prometheus scraping", func() {
			Expect(b.Deployment.Spec.Template.Annotations).To(And(
				HaveKeyWithValue(AnnotationScrape, "true"),
				HaveKeyWithValue(AnnotationScrapePort, "9998"),
				HaveKeyWithValue(AnnotationScrapePath, "/metrics"),
			))
		})

		It("exposes every public port through a LoadBalancer", func() {
			svc := b.Service
			Expect(svc.Spec.Type).To(Equal(corev1.ServiceTypeLoadBalancer))
			Expect(svc.Spec.Ports).To(HaveLen(2))
			Expect(svc.Spec.Ports[0].Port).To(Equal(int32(80)))
			Expect(svc.Spec.Ports[1].Port).To(Equal(int32(443)))
			for _, p := range svc.Spec.Ports {
				Expect(p.TargetPort).To(Equal(intstr.FromInt32(8080)))
			}
			Expect(svc.Annotations).To(HaveKeyWithValue(AnnotationHandlers, "80=http;443=tls,http"))
			Expect(svc.Annotations).To(HaveKeyWithValue(AnnotationForceHTTPS, "80"))
		})

		It("lists objects in apply order", func() {
			kinds := []string{}
			for _, obj := range b.Objects() {
				kinds = append(kinds, obj.GetObjectKind().GroupVersionKind().Kind)
			}
			Expect(kinds).To(Equal([]string{"ConfigMap", "PersistentVolumeClaim", "Deployment", "Service"}))
		})
	})

	Context("with options", func() {
		It("uses the storage class, size and secret name", func() {
			b, err := Render(m, Options{StorageClass: "hcloud-volumes", VolumeSize: "20Gi", SecretName: "creds"})
			Expect(err).NotTo(HaveOccurred())

			Expect(*b.Claims[0].Spec.StorageClassName).To(Equal("hcloud-volumes"))
			storage := b.Claims[0].Spec.Resources.Requests[corev1.ResourceStorage]
			Expect(storage.String()).To(Equal("20Gi"))
			Expect(b.Deployment.Spec.Template.Spec.Containers[0].Env[0].ValueFrom.SecretKeyRef.Name).To(Equal("creds"))
		})

		It("rejects an invalid volume size", func() {
			_, err := Render(m, Options{VolumeSize: "lots"})
			Expect(err).To(MatchError(ContainSubstring("invalid volume size")))
		})
	})

	Context("with multiple mounts and an http check", func() {
		It("renders a claim per mount and a liveness probe", func() {
			m.Mounts = append(m.Mounts, manifest.Mount{Source: "cache", Destination: "/cache"})
			m.Services[0].HTTPChecks = []manifest.HTTPCheck{{Path: "/info/status", RestartLimit: 3}}

			b, err := Render(m, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Claims).To(HaveLen(2))
			Expect(b.Deployment.Spec.Template.Spec.Volumes).To(HaveLen(2))

			live := b.Deployment.Spec.Template.Spec.Containers[0].LivenessProbe
			Expect(live.HTTPGet.Path).To(Equal("/info/status"))
			Expect(live.FailureThreshold).To(Equal(int32(3)))
		})
	})

	Describe("YAML", func() {
		It("emits one document per object that decodes back", func() {
			out, err := YAML(m, Options{})
			Expect(err).NotTo(HaveOccurred())

			docs := strings.Split(string(out), "---\n")
			Expect(docs).To(HaveLen(4))
			Expect(docs[0]).To(ContainSubstring("kind: ConfigMap"))
			Expect(docs[3]).To(ContainSubstring("kind: Service"))

			var d appsv1.Deployment
			Expect(yaml.Unmarshal([]byte(docs[2]), &d)).To(Succeed())
			Expect(d.Spec.Template.Spec.Containers[0].Image).To(Equal(m.Build.Image))
		})
	})
})
