// Package metrics exposes copy engine activity as Prometheus counters.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/micromata/projectforge-sub013/internal/candh"
	"github.com/micromata/projectforge-sub013/internal/history"
)

// Recorder counts copy passes, skipped properties and finalized history
// entries. It implements candh.Observer.
type Recorder struct {
	passes  *prometheus.CounterVec
	skipped *prometheus.CounterVec
	entries *prometheus.CounterVec
}

var _ candh.Observer = (*Recorder)(nil)

// New registers the counters on reg. Passing a fresh prometheus.Registry
// keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "candh_copy_passes_total",
			Help: "Completed copy passes by resulting change status",
		}, []string{"type", "status"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "candh_skipped_properties_total",
			Help: "Properties skipped during copy by reason",
		}, []string{"type", "reason"}),
		entries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "candh_history_entries_total",
			Help: "Finalized history entries by operation",
		}, []string{"operation"}),
	}
}

// CopyCompleted implements candh.Observer.
func (r *Recorder) CopyCompleted(typeName string, status candh.ChangeStatus) {
	r.passes.WithLabelValues(typeName, status.String()).Inc()
}

// PropertySkipped implements candh.Observer.
func (r *Recorder) PropertySkipped(typeName, _ string, reason candh.SkipReason) {
	r.skipped.WithLabelValues(typeName, string(reason)).Inc()
}

// EntriesFinalized counts finalized entries by operation.
func (r *Recorder) EntriesFinalized(entries []history.Entry) {
	for _, e := range entries {
		r.entries.WithLabelValues(e.Operation.String()).Inc()
	}
}

// Summarize flattens the counters gathered from g into a map keyed by
// "name{label=value,...}". Labels appear in the order Gather sorts them.
func Summarize(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			if pairs := m.GetLabel(); len(pairs) > 0 {
				labels := make([]string, 0, len(pairs))
				for _, lp := range pairs {
					labels = append(labels, lp.GetName()+"="+lp.GetValue())
				}
				key += "{" + strings.Join(labels, ",") + "}"
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out, nil
}
