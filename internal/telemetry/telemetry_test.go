package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type recordingProcessor struct {
	ended []sdktrace.ReadOnlySpan
}

func (p *recordingProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *recordingProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	p.ended = append(p.ended, s)
}

func (p *recordingProcessor) Shutdown(context.Context) error { return nil }

func (p *recordingProcessor) ForceFlush(context.Context) error { return nil }

func attributeValue(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := inst.(noopInstrumenter); !ok {
		t.Fatalf("expected noop instrumenter, got %T", inst)
	}
}

func TestSendSpanRecordsPhasesAndStatus(t *testing.T) {
	proc := &recordingProcessor{}
	inst, err := New(Config{ServiceName: "reqdeck-test"}, WithSpanProcessor(proc))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() {
		_ = inst.Shutdown(context.Background())
	}()

	_, span := inst.Start(context.Background(), SendStart{
		RequestName: "login",
		Method:      "POST",
		URL:         "https://auth.example.com/login",
	})
	span.Phase("resolve", 2*time.Millisecond)
	span.Phase("script", 7*time.Millisecond)
	span.End(SendResult{StatusCode: 200})

	if len(proc.ended) != 1 {
		t.Fatalf("expected one ended span, got %d", len(proc.ended))
	}
	ended := proc.ended[0]

	if ended.Name() != "login" {
		t.Fatalf("span name: got %q", ended.Name())
	}
	if ended.Status().Code != codes.Ok {
		t.Fatalf("status: got %v", ended.Status())
	}

	events := ended.Events()
	if len(events) != 2 {
		t.Fatalf("expected two phase events, got %d", len(events))
	}
	for i, name := range []string{"resolve", "script"} {
		if events[i].Name != "reqdeck.phase" {
			t.Fatalf("event %d name: got %q", i, events[i].Name)
		}
		found := false
		for _, kv := range events[i].Attributes {
			if kv.Key == "reqdeck.phase" && kv.Value.AsString() == name {
				found = true
			}
		}
		if !found {
			t.Fatalf("event %d missing phase attribute %q", i, name)
		}
	}
}

func TestSendSpanMarksErrors(t *testing.T) {
	proc := &recordingProcessor{}
	inst, err := New(Config{}, WithSpanProcessor(proc))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() {
		_ = inst.Shutdown(context.Background())
	}()

	_, span := inst.Start(context.Background(), SendStart{Method: "GET"})
	span.End(SendResult{Err: errors.New("connection refused")})

	_, span = inst.Start(context.Background(), SendStart{Method: "GET"})
	span.End(SendResult{StatusCode: 503, ScriptFailed: true})

	if len(proc.ended) != 2 {
		t.Fatalf("expected two spans, got %d", len(proc.ended))
	}

	transport := proc.ended[0]
	if transport.Status().Code != codes.Error {
		t.Fatalf("transport failure status: got %v", transport.Status())
	}
	if transport.Name() != "GET" {
		t.Fatalf("fallback span name: got %q", transport.Name())
	}

	serverErr := proc.ended[1]
	if serverErr.Status().Code != codes.Error {
		t.Fatalf("http 5xx status: got %v", serverErr.Status())
	}
	if value, ok := attributeValue(serverErr, "reqdeck.script.failed"); !ok || !value.AsBool() {
		t.Fatalf("expected script failure attribute on span")
	}
}
