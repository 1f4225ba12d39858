package acl

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

func TestNewMetricsRegisters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.observeEvaluation(ResourceAnnotation, LevelRead, time.Now(), nil)
	metrics.observeMutation("upsert")
	metrics.observeDenied(ResourceAnnotation)
	metrics.observePurged(3)

	if got := testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("annotation", "read")); got != 1 {
		t.Errorf("Expected one evaluation observed, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.GrantMutationsTotal.WithLabelValues("upsert")); got != 1 {
		t.Errorf("Expected one mutation observed, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DeniedTotal.WithLabelValues("annotation")); got != 1 {
		t.Errorf("Expected one denial observed, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.GrantsPurgedTotal); got != 3 {
		t.Errorf("Expected three purged grants observed, got %v", got)
	}
}

func TestEvaluationErrorCounterStorageOnly(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	badReq := &BadRequestError{Field: "resource_type", Value: "folder", Reason: "unknown resource type"}
	metrics.observeEvaluation(ResourceAnnotation, LevelNone, time.Now(), badReq)
	if got := testutil.ToFloat64(metrics.EvaluationErrors); got != 0 {
		t.Errorf("Expected caller errors not to count, got %v", got)
	}

	storage := &StorageError{Op: "get annotation", Err: errors.New("connection reset")}
	metrics.observeEvaluation(ResourceAnnotation, LevelNone, time.Now(), storage)
	if got := testutil.ToFloat64(metrics.EvaluationErrors); got != 1 {
		t.Errorf("Expected storage error to count, got %v", got)
	}

	// Neither failure path touches the per-level counters.
	if got := testutil.CollectAndCount(metrics.EvaluationsTotal); got != 0 {
		t.Errorf("Expected no evaluation series after errors, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var metrics *Metrics
	metrics.observeEvaluation(ResourceAnnotation, LevelRead, time.Now(), nil)
	metrics.observeMutation("delete")
	metrics.observeDenied(ResourceChat)
	metrics.observePurged(1)
}

func TestServiceRecordsMetrics(t *testing.T) {
	db := setupTestDB(t)
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewService(db, log, metrics)
	ctx := context.Background()

	insertDocument(t, db, "doc1")
	insertAnnotation(t, db, "ann1", "doc1", "alice", "")

	if _, err := svc.Evaluate(ctx, "bob", ResourceAnnotation, "ann1"); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if err := svc.Require(ctx, "bob", ResourceAnnotation, "ann1", LevelWrite); !IsForbidden(err) {
		t.Fatalf("Expected ForbiddenError, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("annotation", "none")); got < 1 {
		t.Errorf("Expected evaluation counter to advance, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DeniedTotal.WithLabelValues("annotation")); got != 1 {
		t.Errorf("Expected denial counter to advance, got %v", got)
	}
}
