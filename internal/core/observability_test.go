package core

import (
	"bytes"
	"context"
	"encoding/json"
	"expvar"
	"strings"
	"sync"
	"testing"
	"time"
)

type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+":"+msg)
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.log("debug", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log("error", msg) }

func (l *captureLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

type captureMetrics struct {
	calls []string
}

func (m *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	status := "ok"
	if !success {
		status = "err"
	}
	m.calls = append(m.calls, op+":"+status)
}

type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func TestServiceObservesOperations(t *testing.T) {
	ctx := context.Background()
	logger := &captureLogger{}
	metrics := &captureMetrics{}
	audit := NewJSONAuditRecorder(nil)
	tracer := NewJSONTracer(nil)
	clock := &steppingClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Second}
	svc := newTestService(t, WithLogger(logger), WithMetricsRecorder(metrics), WithAuditRecorder(audit), WithTracer(tracer), WithClock(clock))

	if _, _, err := svc.CreateProject(ctx, "P1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.CreateProject(ctx, "P1"); err == nil {
		t.Fatalf("expected duplicate error")
	}

	if !equalStrings(metrics.calls, []string{"create_project:ok", "create_project:err"}) {
		t.Fatalf("unexpected metrics %v", metrics.calls)
	}
	entries := audit.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Status != AuditStatusSuccess || entries[0].Project != "P1" || entries[0].ID == "" || entries[0].Duration != time.Second {
		t.Fatalf("unexpected success entry %+v", entries[0])
	}
	if entries[1].Status != AuditStatusError || entries[1].Error == "" {
		t.Fatalf("unexpected error entry %+v", entries[1])
	}
	if entries[0].ID == entries[1].ID {
		t.Fatalf("audit ids must be unique")
	}
	spans := tracer.Entries()
	if len(spans) != 2 || spans[1].Status != "error" {
		t.Fatalf("unexpected spans %+v", spans)
	}
	if !logger.has("error:operation failed") {
		t.Fatalf("expected failure log, got %v", logger.entries)
	}
}

func TestServiceLogsRuleWarnings(t *testing.T) {
	ctx := context.Background()
	logger := &captureLogger{}
	svc := newTestService(t, WithLogger(logger))
	p := buildProject(t, "P1", constructSeed{"C1", 2})
	setOutcome(t, p, StagePCR, OutcomeSuccess, "C1_1", "C1_2")
	seedProject(t, svc, p)

	if _, _, err := svc.StoreClones(ctx, "P1", Predicates{PCR: true}, 1); err != nil {
		t.Fatalf("first store: %v", err)
	}
	// C1_1 keeps its well once it no longer qualifies, so C1_2 lands on top of it.
	_, err := svc.Store().RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateProject("P1", func(p *Project) error {
			c, _ := p.FindClone("C1_1")
			return c.SetOutcome(StagePCR, OutcomeFail)
		})
		return err
	})
	if err != nil {
		t.Fatalf("update outcome: %v", err)
	}
	_, res, err := svc.StoreClones(ctx, "P1", Predicates{PCR: true}, 1)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if len(res.Violations) != 1 || !logger.has("warn:rule warning") {
		t.Fatalf("expected logged storage warning, got %+v / %v", res, logger.entries)
	}
	if !logger.has("info:storage assigned") {
		t.Fatalf("expected storage summary log")
	}
}

func TestJSONExportersWriteLines(t *testing.T) {
	var traces, audits bytes.Buffer
	tracer := NewJSONTracer(&traces)
	_, span := tracer.Start(context.Background(), "export_project")
	span.End(nil)
	span.End(nil)
	if n := strings.Count(traces.String(), "\n"); n != 1 {
		t.Fatalf("expected one span line, got %d", n)
	}
	var entry JSONTraceEntry
	if err := json.Unmarshal(traces.Bytes(), &entry); err != nil || entry.Operation != "export_project" || entry.Status != "success" {
		t.Fatalf("unexpected span %+v %v", entry, err)
	}

	rec := NewJSONAuditRecorder(&audits)
	rec.Record(context.Background(), AuditEntry{ID: "a", Operation: "ingest_pcr", Status: AuditStatusSuccess})
	var got AuditEntry
	if err := json.Unmarshal(audits.Bytes(), &got); err != nil || got.Operation != "ingest_pcr" {
		t.Fatalf("unexpected audit line %+v %v", got, err)
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "clonetrack_service_metrics_") {
		t.Fatalf("unexpected name %s", rec.Name())
	}
	rec.Observe(context.Background(), "ingest_pcr", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "ingest_pcr", false, 4*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	snap := rec.Snapshot()
	stats := snap.Operations["ingest_pcr"]
	if stats.Calls != 2 || stats.Errors != 1 || stats.TotalMS != 6 || stats.LastMS != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if ops := rec.Operations(); !equalStrings(ops, []string{"ingest_pcr"}) {
		t.Fatalf("unexpected operations %v", ops)
	}
	published := expvar.Get(rec.Name())
	if published == nil || !strings.Contains(published.String(), "ingest_pcr") {
		t.Fatalf("expected published expvar, got %v", published)
	}
}

func TestPrometheusMetricsRecorderWritesText(t *testing.T) {
	rec := NewPrometheusMetricsRecorder(nil)
	expvarRec := NewExpvarMetricsRecorder("")
	multi := MultiMetricsRecorder(rec, nil, expvarRec)
	multi.Observe(context.Background(), "store_clones", true, 10*time.Millisecond)
	multi.Observe(context.Background(), "store_clones", false, 20*time.Millisecond)

	var buf bytes.Buffer
	if err := rec.WriteText(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`clonetrack_service_operations_total{operation="store_clones",status="success"} 1`,
		`clonetrack_service_operations_total{operation="store_clones",status="error"} 1`,
		`clonetrack_service_operation_duration_seconds_count{operation="store_clones"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if expvarRec.Snapshot().Operations["store_clones"].Calls != 2 {
		t.Fatalf("expected fan-out to expvar recorder")
	}
}

func TestWorkspaceCollectorReportsClonePopulation(t *testing.T) {
	svc := newTestService(t)
	p := buildProject(t, "P1", constructSeed{"C1", 3})
	setOutcome(t, p, StagePCR, OutcomeSuccess, "C1_1", "C1_2")
	setOutcome(t, p, StagePCR, OutcomeFail, "C1_3")
	seedProject(t, svc, p)
	if _, _, err := svc.StoreClones(context.Background(), "P1", Predicates{PCR: true}, 1); err != nil {
		t.Fatalf("store: %v", err)
	}

	rec := NewPrometheusMetricsRecorder(nil)
	rec.Registry().MustRegister(NewWorkspaceCollector(svc.Store()))
	var buf bytes.Buffer
	if err := rec.WriteText(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`clonetrack_workspace_clones{kind="primary",project="P1"} 3`,
		`clonetrack_workspace_stored_clones{project="P1"} 1`,
		`clonetrack_workspace_stage_results{outcome="success",project="P1",stage="pcr"} 2`,
		`clonetrack_workspace_stage_results{outcome="fail",project="P1",stage="pcr"} 1`,
		`clonetrack_workspace_stage_results{outcome="pending",project="P1",stage="sequencing"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
