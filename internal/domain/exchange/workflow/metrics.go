// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/skillswap/internal/domain/exchange/lifecycle"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapd_workflow_actions_total",
		Help: "Workflow actions by action and result",
	}, []string{"action", "result"})

	actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swapd_workflow_action_seconds",
		Help:    "Latency of workflow actions including the store write",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	hookFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapd_workflow_hook_failures_total",
		Help: "Post-transition hook failures that were logged and swallowed",
	}, []string{"hook"})
)

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	if k := lifecycle.KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}

func observe(act lifecycle.Action, start time.Time, err error) {
	transitionsTotal.WithLabelValues(string(act), resultLabel(err)).Inc()
	actionDuration.WithLabelValues(string(act)).Observe(time.Since(start).Seconds())
}
