package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_quotes_issued_total",
		Help: "Quotes issued",
	})

	PaymentsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_payments_matched_total",
		Help: "Inbound payments matched to a quote",
	})

	DuplicateNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_duplicate_notifications_total",
		Help: "Redelivered payment notifications answered from the ledger",
	})

	UnmatchedPayments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_unmatched_payments_total",
		Help: "Payments parked for manual review",
	}, []string{"reason"})

	PayoutsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_payouts_submitted_total",
		Help: "Payout requests accepted by the payout API",
	})

	PayoutsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_payouts_confirmed_total",
		Help: "Payouts confirmed settled on the bank side",
	})

	PayoutsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_payouts_failed_total",
		Help: "Payouts that reached the terminal failed state",
	})
)
