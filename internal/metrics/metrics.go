package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orgMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org_hierarchy",
		Subsystem: "units",
		Name:      "mutations_total",
		Help:      "Total number of org unit mutations broken down by operation and result.",
	}, []string{"operation", "result"})

	orgWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org_hierarchy",
		Subsystem: "write",
		Name:      "conflicts_total",
		Help:      "Total number of storage-level write conflicts broken down by kind.",
	}, []string{"kind"})

	structureConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org_hierarchy",
		Subsystem: "structure",
		Name:      "confirmations_total",
		Help:      "Total number of structure confirmation attempts broken down by type and result.",
	}, []string{"type", "result"})
)

// RecordMutation учитывает попытку изменения подразделения.
// result - "ok" либо код отказа.
func RecordMutation(operation, result string) {
	orgMutations.WithLabelValues(operation, result).Inc()
}

func RecordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	orgWriteConflicts.WithLabelValues(kind).Inc()
}

func RecordConfirmation(confirmationType, result string) {
	structureConfirmations.WithLabelValues(confirmationType, result).Inc()
}
