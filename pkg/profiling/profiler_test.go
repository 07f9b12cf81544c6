package profiling

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProfilerRecordsSpans(t *testing.T) {
	p := NewProfiler()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time {
		clock = clock.Add(10 * time.Millisecond)
		return clock
	}

	a := p.StartNetworkSpan("https://x/api/a", "GET")
	b := p.StartNetworkSpan("https://x/api/b", "POST")
	p.EndNetworkSpan(b, SpanResult{StatusCode: 201, ResponseSize: 12})
	p.EndNetworkSpan(a, SpanResult{StatusCode: 503, RetryCount: 2, Error: "HTTP 503"})
	p.EndNetworkSpan("unknown", SpanResult{StatusCode: 200})

	spans := p.Spans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].ID != a || spans[1].ID != b {
		t.Error("spans should be returned in start order")
	}
	if spans[0].RetryCount != 2 || spans[0].StatusCode != 503 {
		t.Errorf("unexpected first span: %+v", spans[0])
	}
	if spans[0].Duration() != 30*time.Millisecond {
		t.Errorf("Duration = %v, want 30ms", spans[0].Duration())
	}

	var buf bytes.Buffer
	if err := p.WriteReport(&buf); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "https://x/api/a") {
		t.Errorf("report missing URL:\n%s", buf.String())
	}

	p.Reset()
	if len(p.Spans()) != 0 {
		t.Error("Reset should drop spans")
	}
}

func TestNoopSink(t *testing.T) {
	var s Sink = NoopSink{}
	id := s.StartNetworkSpan("u", "GET")
	s.EndNetworkSpan(id, SpanResult{})
	if id != "" {
		t.Errorf("NoopSink id = %q, want empty", id)
	}
}
