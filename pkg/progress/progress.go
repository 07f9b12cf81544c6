package progress

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

// live is a running pterm printer.
type live interface {
	update(message string)
	step()
	// finish stops the printer. A non-empty message is reported as a success
	// or a failure.
	finish(message string, ok bool)
}

// lifecycle guards a live printer. Spinner and Bar differ only in how the
// printer is started.
type lifecycle struct {
	mu     sync.Mutex
	config *Config
	kind   string
	start  func(message string) (live, error)
	cur    live
}

func (l *lifecycle) Start(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.config.Enabled {
		return nil
	}
	if l.cur != nil {
		return fmt.Errorf("%s already active", l.kind)
	}
	p, err := l.start(message)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", l.kind, err)
	}
	l.cur = p
	return nil
}

func (l *lifecycle) with(fn func(live)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur != nil {
		fn(l.cur)
	}
	return nil
}

func (l *lifecycle) end(message string, ok bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == nil {
		return nil
	}
	l.cur.finish(message, ok)
	l.cur = nil
	return nil
}

func (l *lifecycle) Update(message string) error { return l.with(func(p live) { p.update(message) }) }
func (l *lifecycle) Increment() error            { return l.with(live.step) }
func (l *lifecycle) Success(message string) error { return l.end(message, true) }
func (l *lifecycle) Failure(message string) error { return l.end(message, false) }
func (l *lifecycle) Stop() error                  { return l.end("", true) }

func (l *lifecycle) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur != nil
}

// Spinner is shown while a single API call is in flight.
type Spinner struct {
	lifecycle
}

// NewSpinner creates a spinner. It is removed from the terminal when it stops.
func NewSpinner(config *Config) *Spinner {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Spinner{lifecycle{config: config, kind: "spinner"}}
	s.start = func(message string) (live, error) {
		sp, err := pterm.DefaultSpinner.WithWriter(config.writer()).WithRemoveWhenDone(true).Start(message)
		if err != nil {
			return nil, err
		}
		return spinnerLive{sp}, nil
	}
	return s
}

type spinnerLive struct{ sp *pterm.SpinnerPrinter }

func (s spinnerLive) update(message string) { s.sp.UpdateText(message) }
func (s spinnerLive) step()                 {}

func (s spinnerLive) finish(message string, ok bool) {
	switch {
	case message == "":
		_ = s.sp.Stop()
	case ok:
		s.sp.Success(message)
	default:
		s.sp.Fail(message)
	}
}

// Bar tracks a known number of API calls, such as the per-type counts of
// the overview command.
type Bar struct {
	lifecycle
}

// NewBar creates a bar with total steps. A bar without steps never starts.
func NewBar(config *Config, total int) *Bar {
	if config == nil {
		config = DefaultConfig()
	}
	b := &Bar{lifecycle{config: config, kind: "progress bar"}}
	b.start = func(message string) (live, error) {
		if total <= 0 {
			return nil, nil
		}
		pb, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle(message).
			WithWriter(config.writer()).
			WithRemoveWhenDone(true).
			Start()
		if err != nil {
			return nil, err
		}
		return barLive{pb: pb, out: config}, nil
	}
	return b
}

type barLive struct {
	pb  *pterm.ProgressbarPrinter
	out *Config
}

func (b barLive) update(message string) { b.pb.UpdateTitle(message) }
func (b barLive) step()                 { b.pb.Increment() }

func (b barLive) finish(message string, ok bool) {
	_, _ = b.pb.Stop()
	if message == "" {
		return
	}
	printer := pterm.Success
	if !ok {
		printer = pterm.Error
	}
	printer.WithWriter(b.out.writer()).Println(message)
}

// Noop is an indicator that does nothing.
type Noop struct{}

func (Noop) Start(string) error   { return nil }
func (Noop) Update(string) error  { return nil }
func (Noop) Increment() error     { return nil }
func (Noop) Success(string) error { return nil }
func (Noop) Failure(string) error { return nil }
func (Noop) Stop() error          { return nil }
func (Noop) IsActive() bool       { return false }

// New creates the indicator selected by config. total is used by bars.
func New(config *Config, total int) Indicator {
	if config == nil {
		config = DefaultConfig()
	}
	if !config.Enabled {
		return Noop{}
	}
	switch config.Type {
	case TypeBar:
		return NewBar(config, total)
	case TypeNone:
		return Noop{}
	default:
		return NewSpinner(config)
	}
}

// Track shows ind with message while fn runs and removes it afterwards.
func Track[T any](ind Indicator, message string, fn func() T) T {
	_ = ind.Start(message)
	defer func() { _ = ind.Stop() }()
	return fn()
}
