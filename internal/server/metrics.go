package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relay",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route, method and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	disbursementOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "disbursements_total",
		Help:      "Disbursement attempts by ledger outcome.",
	}, []string{"outcome"})

	guardrailRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "guardrail_rejections_total",
		Help:      "Disbursement proposals rejected by the guardrail engine.",
	}, []string{"reason"})

	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "payments_total",
		Help:      "Merchant payments by settlement mode.",
	}, []string{"mode"})
)
