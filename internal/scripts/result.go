package scripts

type FailureKind string

const (
	FailureSyntax  FailureKind = "SyntaxError"
	FailureRuntime FailureKind = "RuntimeError"
	FailureTimeout FailureKind = "TimeoutError"
)

type Failure struct {
	Kind    FailureKind
	Message string
}

// Result is the outcome of one sandbox run. Console output lands in Logs on
// success and failure alike; a failure never propagates as an error out of
// Run, and bridge writes made before the failure point are retained.
type Result struct {
	Logs    []string
	Failure *Failure
}

func (r Result) OK() bool {
	return r.Failure == nil
}
