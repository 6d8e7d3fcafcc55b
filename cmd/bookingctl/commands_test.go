package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/booking-resolver/internal/app"
	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/queue"
	"github.com/iliyamo/booking-resolver/internal/repository"
	"github.com/iliyamo/booking-resolver/internal/service"
)

func memoryApp(payments ...model.Payment) *app.App {
	mirror := repository.NewMemoryMirror()
	ledger := repository.NewCompositeLedger(nil,
		repository.NamedLedger{Name: "memory", Store: repository.NewMemoryLedger(payments...)})
	pub := &queue.Recorder{}
	synth := service.NewSynthesizer()
	writer := service.NewRepairWriter(mirror, pub, nil)
	resolver := service.NewDefaultResolver(nil, mirror, ledger, writer, synth, nil)
	engine := service.NewEngine(resolver, nil, writer, pub, nil)
	return &app.App{
		Publisher: pub,
		Mirror:    mirror,
		Ledger:    ledger,
		Writer:    writer,
		Resolver:  resolver,
		Engine:    engine,
		Diag:      service.NewDiagnostics(mirror, ledger, writer, engine, synth, pub, nil),
	}
}

func execute(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(func(context.Context) (*app.App, error) { return a, nil }, &out)
	root.SetArgs(args)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestResolveAndInspect(t *testing.T) {
	a := memoryApp(model.Payment{ID: "P1", BookingID: "BK1", Amount: 1500})

	out, err := execute(t, a, "inspect", "BK1")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var report service.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report %q: %v", out, err)
	}
	if report.FoundInBookings || !report.FoundInPayments {
		t.Fatalf("unexpected report %+v", report)
	}

	out, err = execute(t, a, "resolve", "BK1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var res model.Resolution
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode resolution %q: %v", out, err)
	}
	if res.Source != model.SourceSynthesized {
		t.Fatalf("source = %s", res.Source)
	}
	if _, err := a.Mirror.Get(context.Background(), "BK1"); err != nil {
		t.Fatalf("resolve did not repair: %v", err)
	}
}

func TestClearMirrorNeedsConfirm(t *testing.T) {
	a := memoryApp()
	_ = a.Mirror.Upsert(context.Background(), model.Booking{BookingID: "BK1"})

	if _, err := execute(t, a, "clear-mirror"); err == nil || !strings.Contains(err.Error(), "--confirm CLEAR") {
		t.Fatalf("got %v, want confirmation error", err)
	}
	out, err := execute(t, a, "clear-mirror", "--confirm", "CLEAR", "--operator", "ops-9")
	if err != nil {
		t.Fatalf("clear-mirror: %v", err)
	}
	if !strings.Contains(out, "mirror cleared") {
		t.Fatalf("unexpected output %q", out)
	}
	rec := a.Publisher.(*queue.Recorder)
	last := rec.Events[len(rec.Events)-1].Event.(queue.OperatorActionEvent)
	if last.OperatorID != "ops-9" || last.Outcome != "ok" {
		t.Fatalf("unexpected audit event %+v", last)
	}
}

func TestCancelUnknown(t *testing.T) {
	a := memoryApp()
	if _, err := execute(t, a, "cancel", "BK404", "-r", "test"); !service.IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestExportToStdout(t *testing.T) {
	a := memoryApp(model.Payment{ID: "P1", BookingID: "BK1"})
	a.Diag.Now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	out, err := execute(t, a, "export", "--role", "ADMIN")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var doc service.ExportDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode export %q: %v", out, err)
	}
	if doc.Session.Role != "ADMIN" || len(doc.Payments) != 1 || doc.ExportID == "" {
		t.Fatalf("unexpected export %+v", doc)
	}
}
