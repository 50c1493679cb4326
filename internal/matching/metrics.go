package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	likesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heartsync_likes_recorded_total",
		Help: "Number of like edges recorded",
	})

	dislikesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heartsync_dislikes_recorded_total",
		Help: "Number of dislike edges recorded",
	})

	matchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heartsync_matches_created_total",
		Help: "Number of matches created from mutual likes",
	})

	unmatchesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heartsync_unmatches_total",
		Help: "Number of matches dissolved by unmatch",
	})

	chatBootstrapFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heartsync_chat_bootstrap_failures_total",
		Help: "Number of matches whose chat could not be created",
	})

	rankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "heartsync_ranking_duration_seconds",
		Help:    "Time spent ranking suggestion candidates",
		Buckets: prometheus.DefBuckets,
	})
)
