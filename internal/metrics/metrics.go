// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus instrumentation for transform runs.
//
// Every Transform owns its registry so tests and embedded callers never
// collide on the global default registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutils"

// Transform groups the collectors updated by the checkpointed transform engine.
type Transform struct {
	registry *prometheus.Registry

	Records            *prometheus.CounterVec
	Checkpoints        *prometheus.CounterVec
	PersistedRecords   prometheus.Gauge
	CheckpointDuration prometheus.Histogram
}

// Record outcomes used as the "outcome" label of Records.
const (
	OutcomeKept           = "kept"
	OutcomeDropped        = "dropped"
	OutcomeParseError     = "parse_error"
	OutcomeTransformError = "transform_error"
)

// Checkpoint results used as the "result" label of Checkpoints.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// NewTransform creates and registers the transform collectors.
func NewTransform() *Transform {
	m := &Transform{
		registry: prometheus.NewRegistry(),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "records_total",
			Help:      "Records considered by the transform, by outcome.",
		}, []string{"outcome"}),
		Checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "checkpoints_total",
			Help:      "Checkpoint attempts, by result.",
		}, []string{"result"}),
		PersistedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "persisted_records",
			Help:      "Length of the transformed prefix durably written to the source file.",
		}),
		CheckpointDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "checkpoint_duration_seconds",
			Help:      "Time spent writing, syncing and renaming a checkpoint.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.Records, m.Checkpoints, m.PersistedRecords, m.CheckpointDuration)
	return m
}

// Registry returns the registry holding the transform collectors.
func (m *Transform) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRecord counts one record outcome. A nil receiver is a no-op.
func (m *Transform) ObserveRecord(outcome string) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(outcome).Inc()
}

// ObserveCheckpoint records one checkpoint attempt. A nil receiver is a no-op.
func (m *Transform) ObserveCheckpoint(persisted int, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.CheckpointDuration.Observe(took.Seconds())
	if err != nil {
		m.Checkpoints.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.Checkpoints.WithLabelValues(ResultOK).Inc()
	m.PersistedRecords.Set(float64(persisted))
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Transform) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Transform) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
