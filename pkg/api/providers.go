package api

// K8sRuntime contains runtime configuration for Kubernetes jobs rendered from
// an adapter component. An empty Image means the component image is used.
//
// Example YAML:
//
//	runtime:
//	  k8s:
//	    image: "quay.io/eval-hub/lighteval-kfp:latest"
//	    entrypoint:
//	      - "/path/to/program"
//	    cpu_request: "250m"
//	    memory_request: "512Mi"
//	    cpu_limit: "1"
//	    memory_limit: "2Gi"
//	    namespace: "evaluations"
//	    env:
//	      - name: FOO
//	        value: "bar"
type K8sRuntime struct {
	Image         string   `mapstructure:"image" yaml:"image" json:"image,omitempty"`
	Entrypoint    []string `mapstructure:"entrypoint" yaml:"entrypoint" json:"entrypoint,omitempty"`
	CPURequest    string   `mapstructure:"cpu_request" yaml:"cpu_request" json:"cpu_request,omitempty"`
	MemoryRequest string   `mapstructure:"memory_request" yaml:"memory_request" json:"memory_request,omitempty"`
	CPULimit      string   `mapstructure:"cpu_limit" yaml:"cpu_limit" json:"cpu_limit,omitempty"`
	MemoryLimit   string   `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit,omitempty"`
	Namespace     string   `mapstructure:"namespace" yaml:"namespace" json:"namespace,omitempty"`
	Env           []EnvVar `mapstructure:"env" yaml:"env" json:"env,omitempty"`
}

type Runtime struct {
	K8s *K8sRuntime `mapstructure:"k8s" yaml:"k8s" json:"k8s,omitempty"`
}
