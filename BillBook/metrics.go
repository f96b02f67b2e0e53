package BillBook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitebook_ledger_entries_total",
		Help: "Bill book entries committed, by entry type.",
	}, []string{"type"})

	entriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitebook_ledger_entry_deletes_total",
		Help: "Bill book entries deleted and reversed.",
	})

	syncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitebook_payment_sync_failures_total",
		Help: "Payments that could not be mirrored into the bill book.",
	})
)
