package domains

// ErrorKind classifies a failed dispatch or command.
type ErrorKind int

const (
	KindUnknownDomain ErrorKind = iota + 1
	KindUnknownCommand
	KindConflict
	KindUnexpectedArgs
	KindValidation
	KindCancelled
	KindExecution
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownDomain:
		return "unknown-domain"
	case KindUnknownCommand:
		return "unknown-command"
	case KindConflict:
		return "conflict"
	case KindUnexpectedArgs:
		return "unexpected-args"
	case KindValidation:
		return "validation"
	case KindCancelled:
		return "cancelled"
	case KindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// Result is the outcome of a dispatched line. It is one of Success, Failure,
// Raw, Exit or Clear.
type Result interface {
	isResult()
}

// Success carries output lines.
type Success struct {
	Output []string
	// ContextChanged is set when the command changed session state the
	// prompt depends on.
	ContextChanged bool
}

// Failure is an expected, recoverable error.
type Failure struct {
	Output  []string
	Kind    ErrorKind
	Message string
	// Err is the underlying error for execution failures.
	Err error
}

// Raw is content written to the terminal unmodified.
type Raw struct {
	Content string
}

// Exit ends the session.
type Exit struct {
	Output []string
}

// Clear clears the screen.
type Clear struct{}

func (Success) isResult() {}
func (Failure) isResult() {}
func (Raw) isResult()     {}
func (Exit) isResult()    {}
func (Clear) isResult()   {}

// Outcome is the flattened view of a Result.
type Outcome struct {
	Output         []string
	Error          string
	RawContent     string
	ShouldExit     bool
	ShouldClear    bool
	ContextChanged bool
}

// Flatten converts a Result to an Outcome.
func Flatten(r Result) Outcome {
	switch v := r.(type) {
	case Success:
		return Outcome{Output: v.Output, ContextChanged: v.ContextChanged}
	case Failure:
		return Outcome{Output: v.Output, Error: v.Message}
	case Raw:
		return Outcome{RawContent: v.Content}
	case Exit:
		return Outcome{Output: v.Output, ShouldExit: true}
	case Clear:
		return Outcome{ShouldClear: true}
	default:
		return Outcome{}
	}
}

// Ok returns a Success with the given lines.
func Ok(lines ...string) Result {
	return Success{Output: lines}
}

// Fail returns a Failure whose output is the message itself.
func Fail(kind ErrorKind, message string) Result {
	return Failure{Output: []string{message}, Kind: kind, Message: message}
}

// FailErr returns an execution Failure wrapping err.
func FailErr(err error) Result {
	return Failure{Output: []string{"Error: " + err.Error()}, Kind: KindExecution, Message: err.Error(), Err: err}
}

// IsFailure reports whether r is a Failure.
func IsFailure(r Result) bool {
	_, ok := r.(Failure)
	return ok
}
