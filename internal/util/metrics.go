package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_fetch_latency_seconds",
		Help:    "Latency of remote catalog fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})

	CatalogFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fallback_total",
		Help: "Total number of catalog reads served from the static snapshot",
	}, []string{"resource", "reason"})

	CartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Total number of cart operations",
	}, []string{"operation"})

	WorkflowTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Total number of workflow actions by outcome",
	}, []string{"kind", "action", "outcome"})

	WorkflowCompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_completions_total",
		Help: "Total number of workflow runs that reached their terminal step",
	}, []string{"kind"})

	WorkflowCommitLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_commit_latency_seconds",
		Help:    "Latency of workflow commit actions, submission delay included",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of shop orders placed",
	})

	DonationsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donations_recorded_total",
		Help: "Total number of donations recorded",
	}, []string{"frequency"})

	DonationAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donation_amount_euros_total",
		Help: "Sum of donated amounts in euros",
	})

	FundingAllocatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funding_allocated_euros_total",
		Help: "Sum of partner funding applied to proposals in euros",
	})

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrations_total",
		Help: "Total number of event and course registrations",
	}, []string{"target", "paid"})

	ConfirmationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confirmations_sent_total",
		Help: "Total number of confirmations processed by the worker",
	}, []string{"event_type"})

	PortalLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_logins_total",
		Help: "Total number of partner portal login attempts",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
