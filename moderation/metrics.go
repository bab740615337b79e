package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var moderatedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sieve_moderation_processed",
	Help: "Number of content moderation passes, by outcome",
}, []string{"outcome"})

var urlRemovedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sieve_moderation_urls_removed",
	Help: "Number of URLs stripped from content",
})

var mentionSpamCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sieve_moderation_mention_spam",
	Help: "Number of content items flagged for mention spam",
})
