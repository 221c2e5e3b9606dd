package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "evalhub_adapters"

// Artifact parse outcomes.
const (
	OutcomeParsed  = "parsed"
	OutcomeFailed  = "failed"
	OutcomeMissing = "missing"
)

// Recorder holds the counters of the adapter layer. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	adapterLookups *prometheus.CounterVec
	artifactParses *prometheus.CounterVec
}

func NewRecorder(registerer prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		adapterLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_lookups_total",
			Help:      "Adapter lookups by framework name and whether an adapter was found.",
		}, []string{"framework", "found"}),
		artifactParses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_parses_total",
			Help:      "Result artifacts parsed by framework, artifact name and outcome.",
		}, []string{"framework", "artifact", "outcome"}),
	}
	if registerer != nil {
		for _, collector := range []prometheus.Collector{r.adapterLookups, r.artifactParses} {
			if err := registerer.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Recorder) AdapterLookup(framework string, found bool) {
	if r == nil {
		return
	}
	label := "false"
	if found {
		label = "true"
	}
	r.adapterLookups.WithLabelValues(framework, label).Inc()
}

func (r *Recorder) ArtifactParsed(framework string, artifact string, outcome string) {
	if r == nil {
		return
	}
	r.artifactParses.WithLabelValues(framework, artifact, outcome).Inc()
}

// AdapterLookups exposes the lookup counter, mostly for tests.
func (r *Recorder) AdapterLookups() *prometheus.CounterVec {
	return r.adapterLookups
}

func (r *Recorder) ArtifactParses() *prometheus.CounterVec {
	return r.artifactParses
}
