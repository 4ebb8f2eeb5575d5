package calc

import (
	"errors"
	"fmt"
)

// Sentinel cell texts standing in for error conditions.
const (
	NameSentinel    = "#NAME?"
	ErrorSentinel   = "#ERROR!"
	NASentinel      = "#N/A"
	PendingSentinel = "#AI_PROCESSING..."
)

// Result is the outcome of one evaluation. Error is empty on success;
// otherwise Value holds one of the sentinels. Pending marks a deferred
// AI(...) call: the caller should dispatch Prompt and patch the cell later.
type Result struct {
	Value   Value
	Error   string
	Pending bool
	Prompt  string
}

// Failed reports whether the result is a terminal error.
func (r Result) Failed() bool {
	return r.Error != "" && !r.Pending
}

// evalError carries the sentinel a failure renders as.
type evalError struct {
	sentinel string
	msg      string
}

func (e *evalError) Error() string { return e.msg }

// pendingError unwinds evaluation when AI(...) is reached.
type pendingError struct {
	prompt string
}

func (e *pendingError) Error() string { return "AI request pending" }

func errorf(format string, args ...any) error {
	return &evalError{sentinel: ErrorSentinel, msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &evalError{sentinel: NASentinel, msg: fmt.Sprintf(format, args...)}
}

func unknownFunction(name string) error {
	return &evalError{sentinel: NameSentinel, msg: "Unknown function: " + name}
}

func resultFromError(err error) Result {
	var pe *pendingError
	if errors.As(err, &pe) {
		return Result{Value: String(PendingSentinel), Error: pe.Error(), Pending: true, Prompt: pe.prompt}
	}
	var ee *evalError
	if errors.As(err, &ee) {
		return Result{Value: String(ee.sentinel), Error: ee.msg}
	}
	return Result{Value: String(ErrorSentinel), Error: err.Error()}
}
