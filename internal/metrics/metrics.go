package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamCallsTotal tracks BLS API calls per endpoint
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_upstream_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"endpoint"},
	)

	// UpstreamErrorsTotal tracks upstream errors per endpoint and error type
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_upstream_errors_total",
			Help: "Total number of upstream API errors",
		},
		[]string{"endpoint", "error_type"},
	)

	// BatchesFetched tracks completed fetch batches
	BatchesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_batches_fetched_total",
			Help: "Total number of series batches fetched",
		},
	)

	// SeriesFetched tracks series records retrieved with data
	SeriesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_series_fetched_total",
			Help: "Total number of series records retrieved",
		},
	)

	// ObservationsNormalized tracks observations that survived normalization
	ObservationsNormalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_observations_normalized_total",
			Help: "Total number of observations normalized into rows",
		},
	)

	// ObservationsDropped tracks observations dropped during normalization
	ObservationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_observations_dropped_total",
			Help: "Total number of observations dropped during normalization",
		},
		[]string{"reason"},
	)

	// DatasetsPublished tracks published topic datasets
	DatasetsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_datasets_published_total",
			Help: "Total number of topic datasets published",
		},
	)

	// DatasetValidationFailures tracks datasets rejected by validation
	DatasetValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_dataset_validation_failures_total",
			Help: "Total number of datasets that failed validation",
		},
	)
)
