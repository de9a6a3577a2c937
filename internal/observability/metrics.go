// Package observability holds Prometheus metric definitions for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextblog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// AssetUploads counts image uploads to the remote object store by outcome.
	AssetUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextblog_asset_uploads_total",
		Help: "Total number of image asset uploads by outcome",
	}, []string{"outcome"})

	// AssetDeletionFailures counts best-effort remote asset deletions that
	// failed. Callers swallow these errors, so the counter and a log line are
	// the only trace they leave.
	AssetDeletionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nextblog_asset_deletion_failures_total",
		Help: "Total number of failed remote asset deletions during reconciliation",
	})

	// MailDeliveries counts outbound mail attempts by kind and outcome.
	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextblog_mail_deliveries_total",
		Help: "Total number of outbound mail attempts by kind and outcome",
	}, []string{"kind", "outcome"})

	// PostViews counts persisted view-counter increments.
	PostViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nextblog_post_views_total",
		Help: "Total number of single-post retrievals that incremented a view counter",
	})
)
