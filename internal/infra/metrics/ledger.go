package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ledgerEventsTotal,
		ledgerInsufficientTotal,
		freePlanClaimsTotal,
	)
}

var (
	ledgerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_total",
			Help: "Balance-affecting ledger events by kind (credit/debit) and reason.",
		},
		[]string{"kind", "reason"},
	)

	ledgerInsufficientTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_insufficient_credits_total",
			Help: "Debit attempts rejected for insufficient balance, by reason.",
		},
		[]string{"reason"},
	)

	freePlanClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "free_plan_claims_total",
			Help: "Free-plan claim attempts by outcome (granted/already_claimed/misconfigured).",
		},
		[]string{"outcome"},
	)
)

func IncLedgerEvent(kind, reason string) {
	ledgerEventsTotal.WithLabelValues(norm(kind), norm(reason)).Inc()
}

func IncInsufficientCredits(reason string) {
	ledgerInsufficientTotal.WithLabelValues(norm(reason)).Inc()
}

func IncFreePlanClaim(outcome string) {
	freePlanClaimsTotal.WithLabelValues(norm(outcome)).Inc()
}
