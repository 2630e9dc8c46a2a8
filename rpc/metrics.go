package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nftstake",
		Name:      "operations_total",
		Help:      "Ledger operations processed, labelled by operation and outcome.",
	}, []string{"op", "result"})

	rewardPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nftstake",
		Name:      "reward_paid_total",
		Help:      "Total reward units paid out by claims.",
	})
)

func observeOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}
