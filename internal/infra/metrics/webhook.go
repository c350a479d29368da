package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		ledgerConflictsTotal,
	)
}

var (
	// kind: payment.captured|payment.failed|order.paid|unhandled
	// result: applied|already_applied|conflict|rejected|error
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook deliveries by event kind and outcome.",
		},
		[]string{"kind", "result"},
	)

	ledgerConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_conflicts_total",
			Help: "Outcome applications rejected because the purchase already settled differently.",
		},
	)
)

func IncWebhookEvent(kind, result string) {
	webhookEventsTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}

func IncLedgerConflict() {
	ledgerConflictsTotal.Inc()
}
