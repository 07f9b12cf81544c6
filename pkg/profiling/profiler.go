package profiling

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
)

// SpanResult is recorded when a network span ends.
type SpanResult struct {
	StatusCode   int
	ResponseSize int
	RetryCount   int
	Error        string
}

// Sink receives network spans from the API client.
type Sink interface {
	StartNetworkSpan(url, method string) string
	EndNetworkSpan(id string, result SpanResult)
}

// NoopSink discards every span.
type NoopSink struct{}

func (NoopSink) StartNetworkSpan(string, string) string { return "" }
func (NoopSink) EndNetworkSpan(string, SpanResult)      {}

// Span is a completed or in-flight network span.
type Span struct {
	ID     string
	URL    string
	Method string
	Start  time.Time
	End    time.Time
	SpanResult
}

// Duration returns the span length, or zero while in flight.
func (s Span) Duration() time.Duration {
	if s.End.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Profiler records network spans in memory.
type Profiler struct {
	mu    sync.Mutex
	spans map[string]*Span
	order []string
	now   func() time.Time
}

// NewProfiler creates an empty profiler.
func NewProfiler() *Profiler {
	return &Profiler{
		spans: make(map[string]*Span),
		now:   time.Now,
	}
}

// StartNetworkSpan opens a span and returns its id.
func (p *Profiler) StartNetworkSpan(url, method string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	p.spans[id] = &Span{ID: id, URL: url, Method: method, Start: p.now()}
	p.order = append(p.order, id)
	return id
}

// EndNetworkSpan closes the span. Unknown ids are ignored.
func (p *Profiler) EndNetworkSpan(id string, result SpanResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.spans[id]
	if !ok {
		return
	}
	s.End = p.now()
	s.SpanResult = result
}

// Spans returns a copy of the recorded spans in start order.
func (p *Profiler) Spans() []Span {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Span, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.spans[id])
	}
	return out
}

// Reset drops all recorded spans.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spans = make(map[string]*Span)
	p.order = nil
}

// WriteReport renders the spans as a table, slowest first.
func (p *Profiler) WriteReport(w io.Writer) error {
	spans := p.Spans()
	if len(spans) == 0 {
		_, err := fmt.Fprintln(w, "No network requests recorded.")
		return err
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Duration() > spans[j].Duration()
	})

	data := pterm.TableData{{"METHOD", "URL", "STATUS", "BYTES", "RETRIES", "DURATION"}}
	for _, s := range spans {
		status := fmt.Sprintf("%d", s.StatusCode)
		if s.Error != "" {
			status += " (" + s.Error + ")"
		}
		data = append(data, []string{
			s.Method, s.URL, status,
			fmt.Sprintf("%d", s.ResponseSize),
			fmt.Sprintf("%d", s.RetryCount),
			s.Duration().Round(time.Millisecond).String(),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render span report: %w", err)
	}
	_, err = fmt.Fprintln(w, table)
	return err
}
