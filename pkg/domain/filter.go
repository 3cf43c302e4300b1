package domain

// ResultKind tells the pipeline what to do after a filter ran.
type ResultKind int

const (
	// ResultContinue lets the next filter (or the intent handler) run.
	ResultContinue ResultKind = iota
	// ResultBlock stops the chain. The intent handler does not run.
	ResultBlock
	// ResultRedirect stops the chain and dispatches to another state and intent.
	ResultRedirect
)

func (k ResultKind) String() string {
	switch k {
	case ResultBlock:
		return "block"
	case ResultRedirect:
		return "redirect"
	default:
		return "continue"
	}
}

// Redirect instructs the state machine to handle a different state and intent.
type Redirect struct {
	State  string `json:"state" yaml:"state" mapstructure:"state"`
	Intent string `json:"intent" yaml:"intent" mapstructure:"intent"`

	// Args replaces the original call arguments when non-nil.
	// A nil slice forwards the original arguments unchanged.
	Args []any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// FilterResult is the outcome of a single filter execution.
// The zero value means "continue".
type FilterResult struct {
	Kind     ResultKind
	Redirect Redirect
}

// Continue lets the pipeline proceed to the next filter.
func Continue() FilterResult {
	return FilterResult{Kind: ResultContinue}
}

// Block stops the pipeline without redirecting.
func Block() FilterResult {
	return FilterResult{Kind: ResultBlock}
}

// RedirectTo stops the pipeline and forwards the original arguments to state/intent.
func RedirectTo(state, intent string) FilterResult {
	return FilterResult{
		Kind:     ResultRedirect,
		Redirect: Redirect{State: state, Intent: intent},
	}
}

// RedirectWithArgs stops the pipeline and calls state/intent with exactly args.
// Passing no args forwards an empty argument list, not the original one.
func RedirectWithArgs(state, intent string, args ...any) FilterResult {
	if args == nil {
		args = []any{}
	}
	return FilterResult{
		Kind:     ResultRedirect,
		Redirect: Redirect{State: state, Intent: intent, Args: args},
	}
}

// ForwardArgs returns the arguments a redirect should be dispatched with.
func (r Redirect) ForwardArgs(original []any) []any {
	if r.Args != nil {
		return r.Args
	}
	return original
}
