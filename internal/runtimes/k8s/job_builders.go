package k8s

// Contains the builder functions that construct Kubernetes objects
import (
	"fmt"
	"regexp"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

const (
	maxK8sNameLength       = 63
	defaultJobTTLSeconds   = int32(3600)
	componentContainerName = "component"
	argumentsVolumeName    = "arguments"
	dataVolumeName         = "data"
	argumentsFileName      = "arguments.json"
	argumentsMountPath     = "/meta/arguments.json"
	dataMountPath          = "/data"
	jobPrefix              = "eval-job-"
	argumentsSuffix        = "-args"
	envEvaluationIDName    = "EVALUATION_ID"
	envBenchmarkName       = "BENCHMARK"
	envArgumentsFileName   = "ARGUMENTS_FILE"
	defaultRunAsUser       = int64(1000)
	defaultRunAsGroup      = int64(1000)
	labelAppKey            = "app"
	labelComponentKey      = "component"
	labelEvaluationIDKey   = "evaluation_id"
	labelFrameworkKey      = "framework"
	labelBenchmarkIDKey    = "benchmark_id"
	labelAppValue          = "evalhub"
	labelComponentValue    = "evaluation-job"
)

var dnsLabelSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

func sanitizeDNS1123Label(value string) string {
	safe := dnsLabelSanitizer.ReplaceAllString(strings.ToLower(value), "-")
	if safe = strings.Trim(safe, "-"); safe == "" {
		return "x"
	}
	return safe
}

// truncateLabel cuts value to at most limit characters without leaving a
// trailing dash.
func truncateLabel(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return strings.Trim(value[:limit], "-")
}

// buildK8sName derives an object name from the evaluation and benchmark. The
// suffix is always kept so that the objects of one run stay distinguishable.
func buildK8sName(evaluationID, benchmarkID, suffix string) string {
	base := jobPrefix + sanitizeDNS1123Label(evaluationID) + "-" + sanitizeDNS1123Label(benchmarkID)
	base = truncateLabel(base, max(maxK8sNameLength-len(suffix), 1))
	return truncateLabel(base+suffix, maxK8sNameLength)
}

func jobName(evaluationID, benchmarkID string) string {
	return buildK8sName(evaluationID, benchmarkID, "")
}

func configMapName(evaluationID, benchmarkID string) string {
	return buildK8sName(evaluationID, benchmarkID, argumentsSuffix)
}

func labelValue(value string) string {
	return truncateLabel(sanitizeDNS1123Label(value), maxK8sNameLength)
}

func jobLabels(cfg *jobConfig) map[string]string {
	return map[string]string{
		labelAppKey:          labelAppValue,
		labelComponentKey:    labelComponentValue,
		labelEvaluationIDKey: labelValue(cfg.evaluationID),
		labelFrameworkKey:    labelValue(cfg.framework),
		labelBenchmarkIDKey:  labelValue(cfg.benchmarkID),
	}
}

func objectMeta(cfg *jobConfig, name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: cfg.namespace,
		Labels:    jobLabels(cfg),
	}
}

// buildConfigMap holds the resolved arguments, mounted read-only into the component.
func buildConfigMap(cfg *jobConfig) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: objectMeta(cfg, configMapName(cfg.evaluationID, cfg.benchmarkID)),
		Data: map[string]string{
			argumentsFileName: cfg.argumentsJSON,
		},
	}
}

func buildJob(cfg *jobConfig) (*batchv1.Job, error) {
	if cfg.image == "" {
		return nil, fmt.Errorf("component image is required")
	}
	container, err := buildComponentContainer(cfg)
	if err != nil {
		return nil, err
	}

	spec := batchv1.JobSpec{
		BackoffLimit:            ptr.To(int32(cfg.retryAttempts)),
		TTLSecondsAfterFinished: ptr.To(defaultJobTTLSeconds),
		Template: corev1.PodTemplateSpec{
			ObjectMeta: metav1.ObjectMeta{Labels: jobLabels(cfg)},
			Spec: corev1.PodSpec{
				RestartPolicy: corev1.RestartPolicyNever,
				Containers:    []corev1.Container{container},
				Volumes:       buildVolumes(cfg),
			},
		},
	}
	if seconds := int64(cfg.activeDeadline.Seconds()); seconds > 0 {
		spec.ActiveDeadlineSeconds = ptr.To(seconds)
	}

	return &batchv1.Job{
		ObjectMeta: objectMeta(cfg, jobName(cfg.evaluationID, cfg.benchmarkID)),
		Spec:       spec,
	}, nil
}

func buildComponentContainer(cfg *jobConfig) (corev1.Container, error) {
	resources, err := buildResources(cfg)
	if err != nil {
		return corev1.Container{}, err
	}
	return corev1.Container{
		Name:            componentContainerName,
		Image:           cfg.image,
		ImagePullPolicy: corev1.PullIfNotPresent,
		Command:         buildContainerCommand(cfg.command),
		Args:            cfg.args,
		Env:             buildEnvVars(cfg),
		Resources:       resources,
		SecurityContext: defaultSecurityContext(),
		VolumeMounts: []corev1.VolumeMount{
			{Name: argumentsVolumeName, MountPath: argumentsMountPath, SubPath: argumentsFileName, ReadOnly: true},
			{Name: dataVolumeName, MountPath: dataMountPath},
		},
	}, nil
}

// buildVolumes returns the arguments ConfigMap and the scratch volume the
// component writes its outputs to.
func buildVolumes(cfg *jobConfig) []corev1.Volume {
	return []corev1.Volume{
		{
			Name: argumentsVolumeName,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: configMapName(cfg.evaluationID, cfg.benchmarkID)},
				},
			},
		},
		{
			Name:         dataVolumeName,
			VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
		},
	}
}

func buildContainerCommand(entrypoint []string) []string {
	var command []string
	for _, part := range entrypoint {
		if item := strings.TrimSpace(part); item != "" {
			command = append(command, item)
		}
	}
	return command
}

func defaultSecurityContext() *corev1.SecurityContext {
	return &corev1.SecurityContext{
		AllowPrivilegeEscalation: ptr.To(false),
		RunAsNonRoot:             ptr.To(true),
		RunAsUser:                ptr.To(defaultRunAsUser),
		RunAsGroup:               ptr.To(defaultRunAsGroup),
		Capabilities: &corev1.Capabilities{
			Drop: []corev1.Capability{"ALL"},
		},
		SeccompProfile: &corev1.SeccompProfile{
			Type: corev1.SeccompProfileTypeRuntimeDefault,
		},
	}
}

// buildEnvVars puts the run identity first; configured variables cannot
// override it and only the first occurrence of a name is kept.
func buildEnvVars(cfg *jobConfig) []corev1.EnvVar {
	env := []corev1.EnvVar{
		{Name: envEvaluationIDName, Value: cfg.evaluationID},
		{Name: envBenchmarkName, Value: cfg.benchmarkID},
		{Name: envArgumentsFileName, Value: argumentsMountPath},
	}
	seen := map[string]bool{}
	for _, item := range env {
		seen[item.Name] = true
	}
	for _, item := range cfg.defaultEnv {
		if item.Name == "" || seen[item.Name] {
			continue
		}
		seen[item.Name] = true
		env = append(env, corev1.EnvVar{Name: item.Name, Value: item.Value})
	}
	return env
}

func buildResources(cfg *jobConfig) (corev1.ResourceRequirements, error) {
	requests, err := resourceList("request", map[corev1.ResourceName]string{
		corev1.ResourceCPU:    cfg.cpuRequest,
		corev1.ResourceMemory: cfg.memoryRequest,
	})
	if err != nil {
		return corev1.ResourceRequirements{}, err
	}
	limits, err := resourceList("limit", map[corev1.ResourceName]string{
		corev1.ResourceCPU:    cfg.cpuLimit,
		corev1.ResourceMemory: cfg.memoryLimit,
	})
	if err != nil {
		return corev1.ResourceRequirements{}, err
	}
	return corev1.ResourceRequirements{Requests: requests, Limits: limits}, nil
}

// resourceList parses the non-empty quantities, it returns nil when all are empty.
func resourceList(kind string, quantities map[corev1.ResourceName]string) (corev1.ResourceList, error) {
	var list corev1.ResourceList
	for name, value := range quantities {
		if value == "" {
			continue
		}
		quantity, err := resource.ParseQuantity(value)
		if err != nil {
			return nil, fmt.Errorf("parse %s %s: %w", name, kind, err)
		}
		if list == nil {
			list = corev1.ResourceList{}
		}
		list[name] = quantity
	}
	return list, nil
}
